// Package worker mirrors recorded transactions into a local CSV export.
package worker

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"ledger/internal/amqp"
	"ledger/internal/core"
)

// TransactionGetter fetches a persisted transaction by id.
type TransactionGetter interface {
	GetTransaction(ctx context.Context, id string) (*core.Transaction, error)
}

// ExportWorker consumes transaction-recorded messages and appends each
// transaction as one CSV line to the export file.
type ExportWorker struct {
	storage TransactionGetter
	path    string

	mu sync.Mutex
}

func NewExportWorker(storage TransactionGetter, exportPath string) *ExportWorker {
	return &ExportWorker{
		storage: storage,
		path:    exportPath,
	}
}

// Handlers returns the AMQP dispatch table for this worker.
func (w *ExportWorker) Handlers() amqp.Handlers {
	return amqp.Handlers{
		TransactionRecorded: w.HandleTransactionRecorded,
		ImportCompleted:     w.HandleImportCompleted,
	}
}

// HandleTransactionRecorded fetches the transaction behind msg and appends
// it to the export file. Returning an error requeues the message.
func (w *ExportWorker) HandleTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	transaction, err := w.storage.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.appendRow(*transaction); err != nil {
		return fmt.Errorf("append export row: %w", err)
	}

	slog.InfoContext(ctx, "Transaction exported",
		"transaction_id", transaction.ID,
		"transaction_title", transaction.Title,
		"value_cents", transaction.Value.Cents)

	return nil
}

// HandleImportCompleted only logs: imported transactions arrive through
// individual recorded messages like any other.
func (w *ExportWorker) HandleImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error {
	slog.InfoContext(ctx, "Batch import observed",
		"import_file", msg.SourceFile,
		"row_count", msg.Count)
	return nil
}

func (w *ExportWorker) appendRow(t core.Transaction) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat export file: %w", err)
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write([]string{"id", "title", "type", "value", "category_id", "created_at"}); err != nil {
			return fmt.Errorf("write export header: %w", err)
		}
	}

	record := []string{
		t.ID,
		t.Title,
		string(t.Type),
		t.Value.DecimalString(),
		t.CategoryID,
		t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("write export row: %w", err)
	}

	cw.Flush()
	return cw.Error()
}
