package storage

import (
	"encoding/csv"
	"fmt"
	"os"

	"fintrack/internal/core"
)

// ExportJSON writes transactions to path in the store's own JSON shape, so
// an export can be dropped back in as a data file.
func ExportJSON(path string, txns []core.Transaction) error {
	file := transactionsFile{Transactions: make([]transactionRecord, 0, len(txns))}
	for _, t := range txns {
		file.Transactions = append(file.Transactions, toRecord(t))
	}
	if err := writeFileAtomic(path, file); err != nil {
		return fmt.Errorf("export JSON: %w", err)
	}
	return nil
}

// ExportCSV writes transactions to path in the standard statement layout
// with a trailing category column.
func ExportCSV(path string, txns []core.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Date", "Description", "Amount", "Balance", "Category"}); err != nil {
		return fmt.Errorf("export CSV: %w", err)
	}
	for _, t := range txns {
		balance := ""
		if t.Balance != nil {
			balance = t.Balance.String()
		}
		row := []string{
			t.Date.Format(dateLayout),
			t.Description,
			t.Amount.String(),
			balance,
			t.CategoryName(),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("export CSV: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export CSV: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("export CSV: %w", err)
	}
	return nil
}
