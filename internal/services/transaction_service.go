package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ledger/internal/core"
)

// TransactionService validates and persists single transactions, enforcing
// the non-negative-balance invariant for outflows.
type TransactionService struct {
	categories *CategoryResolver
	store      TransactionStore
	publisher  EventPublisher
}

func NewTransactionService(categories *CategoryResolver, store TransactionStore, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		categories: categories,
		store:      store,
		publisher:  publisher,
	}
}

// CreateTransactionInput carries one intake request.
type CreateTransactionInput struct {
	Title    string
	Value    core.Money
	Type     core.TransactionType
	Category string
}

// Create validates the input, resolves the category and persists the
// transaction. For outflows the balance check and the insert share one
// store transaction, so no write happens when funds are short. A category
// created along the way is not rolled back on a later failure.
func (s *TransactionService) Create(ctx context.Context, in CreateTransactionInput) (core.Transaction, error) {
	if !in.Type.IsValid() {
		return core.Transaction{}, core.ErrInvalidTransactionType
	}
	if strings.TrimSpace(in.Title) == "" {
		return core.Transaction{}, core.ErrEmptyTitle
	}
	if err := in.Value.Validate(); err != nil {
		return core.Transaction{}, err
	}

	category, err := s.categories.Resolve(ctx, in.Category)
	if err != nil {
		return core.Transaction{}, err
	}

	transaction := core.Transaction{
		ID:         core.NewID(),
		Title:      strings.TrimSpace(in.Title),
		Value:      in.Value,
		Type:       in.Type,
		CategoryID: category.ID,
		CreatedAt:  time.Now(),
	}

	if in.Type == core.Outcome {
		err = s.store.CreateOutcomeGuarded(ctx, transaction)
	} else {
		err = s.store.CreateTransaction(ctx, transaction)
	}
	if err != nil {
		return core.Transaction{}, err
	}

	s.publishRecorded(ctx, transaction)

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", transaction.ID,
		"transaction_title", transaction.Title,
		"transaction_type", string(transaction.Type),
		"value_cents", transaction.Value.Cents,
		"category", category.Title)

	return transaction, nil
}

// List returns all persisted transactions along with the current balance.
func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, core.Balance, error) {
	transactions, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, core.Balance{}, fmt.Errorf("list transactions: %w", err)
	}

	balance, err := s.store.Balance(ctx)
	if err != nil {
		return nil, core.Balance{}, fmt.Errorf("compute balance: %w", err)
	}

	return transactions, balance, nil
}

// Balance returns the derived income/outcome/total triple.
func (s *TransactionService) Balance(ctx context.Context) (core.Balance, error) {
	return s.store.Balance(ctx)
}

func (s *TransactionService) publishRecorded(ctx context.Context, t core.Transaction) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionRecorded(ctx, t); err != nil {
		// Best effort: the transaction is already persisted.
		slog.ErrorContext(ctx, "Failed to publish transaction recorded message",
			"transaction_id", t.ID, "error", err)
	}
}
