package core

import "testing"

func TestTransactionTypeIsValid(t *testing.T) {
	cases := []struct {
		tt TransactionType
		ok bool
	}{
		{Income, true},
		{Outcome, true},
		{"transfer", false},
		{"", false},
		{"INCOME", false}, // case-sensitive
	}
	for i, tc := range cases {
		if got := tc.tt.IsValid(); got != tc.ok {
			t.Fatalf("case %d: IsValid(%q) = %v, want %v", i, tc.tt, got, tc.ok)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("zero is a legal magnitude, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:         NewID(),
		Title:      "Salary",
		Value:      Money{Cents: 500000},
		Type:       Income,
		CategoryID: NewID(),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Title: "", Value: Money{Cents: 1}, Type: Income},
		{Title: "  ", Value: Money{Cents: 1}, Type: Outcome},
		{Title: "a", Value: Money{Cents: 1}, Type: "sideways"},
		{Title: "a", Value: Money{Cents: -1}, Type: Income},
	}
	for i, tr := range bads {
		if err := tr.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBalanceCovers(t *testing.T) {
	b := Balance{Total: Money{Cents: 500}}
	if !b.Covers(Money{Cents: 500}) {
		t.Fatalf("exact balance should be covered")
	}
	if b.Covers(Money{Cents: 501}) {
		t.Fatalf("overdraw should not be covered")
	}
}

func TestNewIDUnique(t *testing.T) {
	if NewID() == NewID() {
		t.Fatalf("ids should be unique")
	}
}
