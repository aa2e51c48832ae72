package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Debit    TransactionType = "debit"
	Credit   TransactionType = "credit"
	Transfer TransactionType = "transfer"
)

type (
	// TransactionType distinguishes money going out, money coming in, and
	// internal transfers whose direction follows the amount sign.
	TransactionType string

	// Category is an immutable classification label. Two categories are the
	// same category when name and parent match.
	Category struct {
		Name        string
		Parent      string
		Description string
	}

	// Transaction is a single bank-statement entry. Amount is signed:
	// negative for debits, positive for credits. ID is assigned by the
	// repository on first save and is distinct from the content fingerprint,
	// so two genuinely identical charges can coexist after a forced save.
	Transaction struct {
		ID          string
		Date        time.Time
		Amount      decimal.Decimal
		Description string
		Category    *Category
		Type        TransactionType
		Account     string
		Reference   string
		Balance     *decimal.Decimal
		Notes       string
		Recurring   bool
		RecurringID string
		ParentID    string
	}
)

var (
	ErrZeroAmount       = errors.New("transaction amount cannot be zero")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidMonth     = errors.New("month must be between 1 and 12")

	ErrEmptyCategoryName   = errors.New("empty category name")
	ErrInvalidBudgetAmount = errors.New("budget amount cannot be negative")
	ErrInvalidThreshold    = errors.New("alert threshold must be in (0, 1]")
)

// Equal reports whether two categories denote the same classification.
func (c Category) Equal(other Category) bool {
	return c.Name == other.Name && c.Parent == other.Parent
}

func (t Transaction) Validate() error {
	if t.Amount.IsZero() {
		return ErrZeroAmount
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	switch t.Type {
	case Debit, Credit, Transfer:
	default:
		return ErrInvalidType
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// IsExpense reports money leaving the account. Transfers count as expenses
// only when their amount is negative.
func (t Transaction) IsExpense() bool {
	if t.Type == Debit {
		return true
	}
	return t.Type == Transfer && t.Amount.IsNegative()
}

// IsIncome reports money entering the account. Transfers count as income
// only when their amount is positive.
func (t Transaction) IsIncome() bool {
	if t.Type == Credit {
		return true
	}
	return t.Type == Transfer && t.Amount.IsPositive()
}

// AbsAmount returns the magnitude of the transaction amount.
func (t Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// CategoryName returns the assigned category name, or "" when uncategorized.
func (t Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Name
}

// NewDate builds a date-only timestamp in UTC. All transaction dates use
// this representation so date comparisons are exact.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// TypeFromAmount infers the transaction type from the amount sign.
func TypeFromAmount(amount decimal.Decimal) TransactionType {
	if amount.IsPositive() {
		return Credit
	}
	return Debit
}
