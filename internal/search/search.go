// Package search filters transaction collections by text, category,
// account, date range, amount range and type.
package search

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Query holds the active filters. Zero-valued fields are ignored, so the
// zero Query matches everything. Amount bounds compare against absolute
// amounts, so a -50.00 debit matches a 40-60 range.
type Query struct {
	Text          string
	Category      string
	Account       string
	DateFrom      time.Time
	DateTo        time.Time
	AmountMin     *decimal.Decimal
	AmountMax     *decimal.Decimal
	Type          core.TransactionType
	RecurringOnly bool
}

func matchesText(t core.Transaction, text string) bool {
	needle := strings.ToLower(text)
	return strings.Contains(strings.ToLower(t.Description), needle) ||
		strings.Contains(strings.ToLower(t.Notes), needle)
}

func matches(t core.Transaction, q Query) bool {
	if q.Text != "" && !matchesText(t, q.Text) {
		return false
	}
	if q.Category != "" && !strings.EqualFold(t.CategoryName(), q.Category) {
		return false
	}
	if q.Account != "" && !strings.EqualFold(t.Account, q.Account) {
		return false
	}
	if !q.DateFrom.IsZero() && t.Date.Before(q.DateFrom) {
		return false
	}
	if !q.DateTo.IsZero() && t.Date.After(q.DateTo) {
		return false
	}
	if q.AmountMin != nil && t.AbsAmount().LessThan(*q.AmountMin) {
		return false
	}
	if q.AmountMax != nil && t.AbsAmount().GreaterThan(*q.AmountMax) {
		return false
	}
	if q.Type != "" && t.Type != q.Type {
		return false
	}
	if q.RecurringOnly && !t.Recurring {
		return false
	}
	return true
}

// Filter returns the transactions matching every set field of the query,
// preserving input order.
func Filter(txns []core.Transaction, q Query) []core.Transaction {
	var out []core.Transaction
	for _, t := range txns {
		if matches(t, q) {
			out = append(out, t)
		}
	}
	return out
}

// Categories lists the distinct category names in use, sorted.
func Categories(txns []core.Transaction) []string {
	seen := make(map[string]bool)
	for _, t := range txns {
		if name := t.CategoryName(); name != "" {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Accounts lists the distinct account identifiers in use, sorted.
func Accounts(txns []core.Transaction) []string {
	seen := make(map[string]bool)
	for _, t := range txns {
		if t.Account != "" {
			seen[t.Account] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
