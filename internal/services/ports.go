package services

import (
	"context"

	"ledger/internal/core"
)

// Ports for the stores and outbound collaborators the services depend on.
// Store handles are injected through constructors, never resolved from
// ambient state.
type (
	CategoryStore interface {
		// FindCategoryByTitle returns (nil, nil) when no category matches.
		FindCategoryByTitle(ctx context.Context, title string) (*core.Category, error)
		FindCategoriesByTitles(ctx context.Context, titles []string) ([]core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) error
		CreateCategories(ctx context.Context, cats []core.Category) error
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) error
		// CreateOutcomeGuarded returns core.ErrInsufficientFunds without
		// writing when the balance cannot cover the value.
		CreateOutcomeGuarded(ctx context.Context, t core.Transaction) error
		CreateTransactions(ctx context.Context, ts []core.Transaction) error
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		Balance(ctx context.Context) (core.Balance, error)
	}

	// EventPublisher notifies downstream consumers about recorded
	// transactions. Implementations must be safe to skip: publishing is
	// best effort and never fails a request.
	EventPublisher interface {
		PublishTransactionRecorded(ctx context.Context, t core.Transaction) error
		PublishImportCompleted(ctx context.Context, sourceFile string, count int) error
	}
)
