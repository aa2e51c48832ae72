// Package categorize applies a rule engine across transaction batches and
// reports what happened.
package categorize

import (
	"fintrack/internal/core"
	"fintrack/internal/rules"
)

// Stats summarizes one categorization run.
type Stats struct {
	Total              int
	Categorized        int
	Uncategorized      int
	AlreadyCategorized int
	NewlyCategorized   int
}

// Rate returns the share of transactions carrying a category after the run,
// as a percentage. Zero transactions yield zero.
func (s Stats) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Categorized) / float64(s.Total) * 100
}

// Run categorizes a batch against the engine. Input transactions are not
// modified; the returned slice carries the assignments. Transactions that
// already have a category keep it unless overwrite is set.
func Run(engine *rules.Engine, txns []core.Transaction, overwrite bool) ([]core.Transaction, Stats) {
	out := make([]core.Transaction, len(txns))
	stats := Stats{Total: len(txns)}

	for i, txn := range txns {
		if txn.Category != nil && !overwrite {
			stats.AlreadyCategorized++
			stats.Categorized++
			out[i] = txn
			continue
		}

		hadCategory := txn.Category != nil
		if category := engine.Categorize(txn.Description); category != nil {
			txn.Category = category
			stats.Categorized++
			if !hadCategory {
				stats.NewlyCategorized++
			}
		} else if txn.Category != nil {
			// Overwrite run with no rule match keeps the existing category.
			stats.Categorized++
		} else {
			stats.Uncategorized++
		}
		out[i] = txn
	}
	return out, stats
}

// Uncategorized returns the transactions still missing a category.
func Uncategorized(txns []core.Transaction) []core.Transaction {
	var out []core.Transaction
	for _, txn := range txns {
		if txn.Category == nil {
			out = append(out, txn)
		}
	}
	return out
}

// ByCategory groups transactions by category name. Uncategorized
// transactions group under the empty string.
func ByCategory(txns []core.Transaction) map[string][]core.Transaction {
	out := make(map[string][]core.Transaction)
	for _, txn := range txns {
		out[txn.CategoryName()] = append(out[txn.CategoryName()], txn)
	}
	return out
}
