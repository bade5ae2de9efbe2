package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ledger/internal/core"
	"ledger/internal/csvimport"
)

// ImportService runs the batch import pipeline: parse the whole file into
// memory, deduplicate categories in one pass, bulk-persist new categories,
// then bulk-persist transactions, and discard the source file.
//
// Unlike single intake the pipeline performs no balance check and does not
// validate row types against the income/outcome pair. The import trusts
// its source file.
type ImportService struct {
	categories   CategoryStore
	transactions TransactionStore
	publisher    EventPublisher
	uploadDir    string
}

func NewImportService(categories CategoryStore, transactions TransactionStore, publisher EventPublisher, uploadDir string) *ImportService {
	return &ImportService{
		categories:   categories,
		transactions: transactions,
		publisher:    publisher,
		uploadDir:    uploadDir,
	}
}

// ImportFile imports the named file from the configured upload directory.
// Only the base name of sourceFileName is honored, so callers cannot reach
// outside the upload directory.
func (s *ImportService) ImportFile(ctx context.Context, sourceFileName string) ([]core.Transaction, error) {
	path := filepath.Join(s.uploadDir, filepath.Base(sourceFileName))
	return s.ImportPath(ctx, path)
}

// ImportPath imports the file at path and deletes it afterwards. Deletion
// is fire-and-forget: a failure is logged and does not abort the import.
func (s *ImportService) ImportPath(ctx context.Context, path string) ([]core.Transaction, error) {
	rows, skipped, err := csvimport.ParseFile(path)
	if err != nil {
		return nil, err
	}

	if skipped > 0 {
		slog.WarnContext(ctx, "Dropped incomplete import rows",
			"import_file", path,
			"skipped_rows", skipped)
	}

	titleToID, err := s.resolveCategories(ctx, rows)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	transactions := make([]core.Transaction, len(rows))
	for i, row := range rows {
		transactions[i] = core.Transaction{
			ID:         core.NewID(),
			Title:      row.Title,
			Value:      row.Value,
			Type:       row.Type,
			CategoryID: titleToID[row.Category],
			CreatedAt:  now,
		}
	}

	if err := s.transactions.CreateTransactions(ctx, transactions); err != nil {
		return nil, err
	}

	if err := os.Remove(path); err != nil {
		slog.WarnContext(ctx, "Failed to remove import source file",
			"import_file", path, "error", err)
	}

	s.publishCompleted(ctx, path, len(transactions))

	slog.InfoContext(ctx, "Batch import completed",
		"import_file", path,
		"row_count", len(transactions),
		"skipped_rows", skipped)

	return transactions, nil
}

// resolveCategories maps every referenced category title to a stored id
// using one bulk lookup and at most one bulk insert.
func (s *ImportService) resolveCategories(ctx context.Context, rows []csvimport.Row) (map[string]string, error) {
	titles := csvimport.CategoryTitles(rows)
	if len(titles) == 0 {
		return nil, nil
	}

	existing, err := s.categories.FindCategoriesByTitles(ctx, titles)
	if err != nil {
		return nil, err
	}

	titleToID := make(map[string]string, len(titles))
	for _, c := range existing {
		titleToID[c.Title] = c.ID
	}

	now := time.Now()
	var missing []core.Category
	for _, title := range titles {
		if _, ok := titleToID[title]; ok {
			continue
		}
		c := core.Category{
			ID:        core.NewID(),
			Title:     title,
			CreatedAt: now,
		}
		missing = append(missing, c)
		titleToID[title] = c.ID
	}

	if len(missing) > 0 {
		if err := s.categories.CreateCategories(ctx, missing); err != nil {
			return nil, fmt.Errorf("bulk create categories: %w", err)
		}
	}

	return titleToID, nil
}

func (s *ImportService) publishCompleted(ctx context.Context, path string, count int) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishImportCompleted(ctx, filepath.Base(path), count); err != nil {
		slog.ErrorContext(ctx, "Failed to publish import completed message",
			"import_file", path, "error", err)
	}
}
