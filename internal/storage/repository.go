package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ledger/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite has a single writer; one pooled connection serializes the
	// balance-check-then-insert transaction against concurrent intakes.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// FindCategoryByTitle looks up a category by exact title match.
// Returns (nil, nil) when no category with that title exists.
func (r *SQLiteRepository) FindCategoryByTitle(ctx context.Context, title string) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, created_at FROM categories WHERE title = ?`, title)

	var c core.Category
	if err := row.Scan(&c.ID, &c.Title, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find category by title: %w", err)
	}
	return &c, nil
}

// FindCategoriesByTitles returns all categories whose title is in titles,
// in a single query.
func (r *SQLiteRepository) FindCategoriesByTitles(ctx context.Context, titles []string) ([]core.Category, error) {
	if len(titles) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(titles))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(titles))
	for i, t := range titles {
		args[i] = t
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, created_at FROM categories WHERE title IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("find categories by titles: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return cats, nil
}

// CreateCategory persists a single category row.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, title, created_at) VALUES (?, ?, ?)`,
		c.ID, c.Title, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category saved",
		"category_id", c.ID,
		"category", c.Title)

	return nil
}

// CreateCategories bulk-inserts categories inside one transaction.
func (r *SQLiteRepository) CreateCategories(ctx context.Context, cats []core.Category) error {
	if len(cats) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk category insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO categories (id, title, created_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare category insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range cats {
		if _, err := stmt.ExecContext(ctx, c.ID, c.Title, c.CreatedAt); err != nil {
			return fmt.Errorf("insert category %q: %w", c.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk category insert: %w", err)
	}

	slog.InfoContext(ctx, "Categories bulk-saved", "count", len(cats))
	return nil
}

// CreateTransaction persists a single transaction row without any balance
// guard. Use CreateOutcomeGuarded for outflows that must honor the balance.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, title, value_cents, type, category_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Value.Cents, string(t.Type), t.CategoryID, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"transaction_title", t.Title,
		"transaction_type", string(t.Type),
		"value_cents", t.Value.Cents)

	return nil
}

// CreateOutcomeGuarded inserts an outflow only if the current balance covers
// its value. The balance read and the insert share one transaction, so a
// concurrent intake cannot slip between check and write.
// Returns core.ErrInsufficientFunds without writing when the balance is short.
func (r *SQLiteRepository) CreateOutcomeGuarded(ctx context.Context, t core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin guarded insert: %w", err)
	}
	defer tx.Rollback()

	var total int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE type
		     WHEN 'income' THEN value_cents
		     WHEN 'outcome' THEN -value_cents
		     ELSE 0 END), 0)
		 FROM transactions`).Scan(&total)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}

	if total < t.Value.Cents {
		return core.ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, title, value_cents, type, category_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Value.Cents, string(t.Type), t.CategoryID, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit guarded insert: %w", err)
	}

	slog.InfoContext(ctx, "Outcome transaction saved",
		"transaction_id", t.ID,
		"transaction_title", t.Title,
		"value_cents", t.Value.Cents,
		"balance_before_cents", total)

	return nil
}

// CreateTransactions bulk-inserts transactions inside one transaction.
// No balance guard: batch import never checks funds.
func (r *SQLiteRepository) CreateTransactions(ctx context.Context, ts []core.Transaction) error {
	if len(ts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk transaction insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (id, title, value_cents, type, category_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare transaction insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range ts {
		if _, err := stmt.ExecContext(ctx, t.ID, t.Title, t.Value.Cents, string(t.Type), t.CategoryID, t.CreatedAt); err != nil {
			return fmt.Errorf("insert transaction %q: %w", t.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk transaction insert: %w", err)
	}

	slog.InfoContext(ctx, "Transactions bulk-saved", "count", len(ts))
	return nil
}

// SumByType returns the total cents over all transactions of the given type.
func (r *SQLiteRepository) SumByType(ctx context.Context, t core.TransactionType) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(value_cents), 0) FROM transactions WHERE type = ?`,
		string(t)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum transactions by type %s: %w", t, err)
	}
	return total, nil
}

// Balance computes the derived income/outcome/total triple in one query.
func (r *SQLiteRepository) Balance(ctx context.Context) (core.Balance, error) {
	var income, outcome int64
	err := r.db.QueryRowContext(ctx,
		`SELECT
		     COALESCE(SUM(CASE WHEN type = 'income' THEN value_cents ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN type = 'outcome' THEN value_cents ELSE 0 END), 0)
		 FROM transactions`).Scan(&income, &outcome)
	if err != nil {
		return core.Balance{}, fmt.Errorf("compute balance: %w", err)
	}

	return core.Balance{
		Income:  core.Money{Cents: income},
		Outcome: core.Money{Cents: outcome},
		Total:   core.Money{Cents: income - outcome},
	}, nil
}

// ListTransactions returns all transactions in insertion order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, value_cents, type, category_id, created_at
		 FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var ts []core.Transaction
	for rows.Next() {
		var (
			t     core.Transaction
			cents int64
			typ   string
			catID sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Title, &cents, &typ, &catID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Value = core.Money{Cents: cents}
		t.Type = core.TransactionType(typ)
		t.CategoryID = catID.String
		ts = append(ts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return ts, nil
}

// GetTransaction retrieves a single transaction by ID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, value_cents, type, category_id, created_at
		 FROM transactions WHERE id = ?`, id)

	var (
		t     core.Transaction
		cents int64
		typ   string
		catID sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Title, &cents, &typ, &catID, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	t.Value = core.Money{Cents: cents}
	t.Type = core.TransactionType(typ)
	t.CategoryID = catID.String
	return &t, nil
}
