// Package csvimport parses batch-import files into validated rows.
//
// The expected format is one record per line with a header line first,
// fields in fixed order: title, type, value, category. Leading and trailing
// whitespace is trimmed per field. Rows missing any of the four fields are
// dropped silently rather than raised as errors.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Row is one valid parsed record. Type is carried over as-is: batch import
// does not validate it against the income/outcome pair.
type Row struct {
	Title    string
	Type     core.TransactionType
	Value    core.Money
	Category string
}

// Parse reads the whole input into memory and returns the valid rows in
// input order plus the number of rows that were dropped. The first record
// is treated as a header and never produces a row.
func Parse(r io.Reader) ([]Row, int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv: %w", err)
	}

	if len(records) < 2 {
		return nil, 0, nil // empty or header-only
	}

	var (
		rows    []Row
		skipped int
	)
	for _, record := range records[1:] {
		row, ok := mapToRow(record)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	return rows, skipped, nil
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string) ([]Row, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// mapToRow converts a raw record into a Row. It reports false for records
// with fewer than four fields, an empty field, or an uncoercible value.
func mapToRow(record []string) (Row, bool) {
	if len(record) < 4 {
		return Row{}, false
	}

	title := strings.TrimSpace(record[0])
	typ := strings.TrimSpace(record[1])
	value := strings.TrimSpace(record[2])
	category := strings.TrimSpace(record[3])

	if title == "" || typ == "" || value == "" || category == "" {
		return Row{}, false
	}

	cents, err := coerceCents(value)
	if err != nil {
		return Row{}, false
	}

	return Row{
		Title:    title,
		Type:     core.TransactionType(typ),
		Value:    core.Money{Cents: cents},
		Category: category,
	}, true
}

// coerceCents turns a decimal amount string into cents, half-up on the
// third decimal place. Negative amounts are rejected: the sign lives in
// the transaction type.
func coerceCents(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", s)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// CategoryTitles returns the distinct category titles referenced by rows,
// preserving first-seen order.
func CategoryTitles(rows []Row) []string {
	seen := make(map[string]struct{}, len(rows))
	var titles []string
	for _, r := range rows {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		titles = append(titles, r.Category)
	}
	return titles
}
