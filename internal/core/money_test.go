package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFromUnits(t *testing.T) {
	cases := []struct {
		in  float64
		out int64
		ok  bool
	}{
		{0, 0, true},
		{1, 100, true},
		{12.34, 1234, true},
		{0.005, 1, true}, // half-up rounding
		{-0.01, 0, false},
	}
	for _, tc := range cases {
		got, err := MoneyFromUnits(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("MoneyFromUnits(%v) = %d cents (err=%v), want %d", tc.in, got.Cents, err, tc.out)
			}
		} else if err == nil {
			t.Fatalf("MoneyFromUnits(%v) expected error", tc.in)
		}
	}
}

func TestMoneyDecimalString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{1234, "12.34"},
		{-950, "-9.50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).DecimalString(); got != tc.want {
			t.Fatalf("DecimalString(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}
