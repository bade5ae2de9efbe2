package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Income  TransactionType = "income"
	Outcome TransactionType = "outcome"
)

type (
	// TransactionType is the direction of a monetary movement.
	TransactionType string

	Money struct {
		Cents int64
	}

	// Category is a named grouping label, unique by title.
	Category struct {
		ID        string
		Title     string
		CreatedAt time.Time
	}

	// Transaction is a single recorded monetary movement. Value holds the
	// magnitude; Type decides the sign when computing the balance.
	Transaction struct {
		ID         string
		Title      string
		Value      Money
		Type       TransactionType
		CategoryID string
		CreatedAt  time.Time
	}

	// Balance is derived from persisted transactions, never stored.
	Balance struct {
		Income  Money
		Outcome Money
		Total   Money
	}
)

var (
	ErrInvalidTransactionType = errors.New("transaction type is invalid")
	ErrInsufficientFunds      = errors.New("outcome value cannot be more than total available")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrEmptyTitle             = errors.New("empty title")
	ErrEmptyCategoryTitle     = errors.New("empty category title")
)

// NewID returns a fresh identity for categories and transactions.
func NewID() string {
	return uuid.NewString()
}

// IsValid reports whether t is one of the two permitted kinds.
func (t TransactionType) IsValid() bool {
	return t == Income || t == Outcome
}

func (t TransactionType) String() string {
	return string(t)
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Title)) == 0 {
		return ErrEmptyTitle
	}
	if !t.Type.IsValid() {
		return ErrInvalidTransactionType
	}
	if err := t.Value.Validate(); err != nil {
		return err
	}
	return nil
}

// Covers reports whether the available total can absorb an outflow of v.
func (b Balance) Covers(v Money) bool {
	return b.Total.Cents >= v.Cents
}
