package storage

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// transactionRecord is the on-disk shape of a transaction. Monetary fields
// are decimal strings and dates are ISO strings so the file round-trips
// exactly and stays diffable by hand.
type (
	transactionRecord struct {
		ID          string          `json:"id"`
		Date        string          `json:"date"`
		Amount      string          `json:"amount"`
		Description string          `json:"description"`
		Type        string          `json:"transaction_type"`
		Category    *categoryRecord `json:"category,omitempty"`
		Account     string          `json:"account,omitempty"`
		Reference   string          `json:"reference,omitempty"`
		Balance     string          `json:"balance,omitempty"`
		Notes       string          `json:"notes,omitempty"`
		Recurring   bool            `json:"is_recurring,omitempty"`
		RecurringID string          `json:"recurring_id,omitempty"`
		ParentID    string          `json:"parent_transaction_id,omitempty"`
	}

	categoryRecord struct {
		Name        string `json:"name"`
		Parent      string `json:"parent,omitempty"`
		Description string `json:"description,omitempty"`
	}

	transactionsFile struct {
		Transactions []transactionRecord `json:"transactions"`
	}
)

const dateLayout = "2006-01-02"

func toRecord(t core.Transaction) transactionRecord {
	rec := transactionRecord{
		ID:          t.ID,
		Date:        t.Date.Format(dateLayout),
		Amount:      t.Amount.String(),
		Description: t.Description,
		Type:        string(t.Type),
		Account:     t.Account,
		Reference:   t.Reference,
		Notes:       t.Notes,
		Recurring:   t.Recurring,
		RecurringID: t.RecurringID,
		ParentID:    t.ParentID,
	}
	if t.Category != nil {
		rec.Category = &categoryRecord{
			Name:        t.Category.Name,
			Parent:      t.Category.Parent,
			Description: t.Category.Description,
		}
	}
	if t.Balance != nil {
		rec.Balance = t.Balance.String()
	}
	return rec
}

func fromRecord(rec transactionRecord) (core.Transaction, error) {
	date, err := time.ParseInLocation(dateLayout, rec.Date, time.UTC)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", rec.Date, err)
	}
	amount, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", rec.Amount, err)
	}

	t := core.Transaction{
		ID:          rec.ID,
		Date:        date,
		Amount:      amount,
		Description: rec.Description,
		Type:        core.TransactionType(rec.Type),
		Account:     rec.Account,
		Reference:   rec.Reference,
		Notes:       rec.Notes,
		Recurring:   rec.Recurring,
		RecurringID: rec.RecurringID,
		ParentID:    rec.ParentID,
	}
	if rec.Category != nil {
		t.Category = &core.Category{
			Name:        rec.Category.Name,
			Parent:      rec.Category.Parent,
			Description: rec.Category.Description,
		}
	}
	if rec.Balance != "" {
		balance, err := decimal.NewFromString(rec.Balance)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("parse stored balance %q: %w", rec.Balance, err)
		}
		t.Balance = &balance
	}
	return t, nil
}
