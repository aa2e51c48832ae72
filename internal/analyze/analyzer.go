// Package analyze derives summaries, breakdowns and trends from a
// transaction collection. An Analyzer is a pure view over the slice it was
// built with; it never mutates transactions and holds no other state, so a
// fresh one is built per report.
package analyze

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// DefaultTrendThreshold is the relative change a category's spending must
// exceed before Trend reports movement instead of stable.
const DefaultTrendThreshold = 0.10

// Analyzer computes reports over one transaction collection.
type Analyzer struct {
	txns []core.Transaction

	// TrendThreshold overrides DefaultTrendThreshold when set by the caller.
	TrendThreshold float64
}

func New(txns []core.Transaction) *Analyzer {
	return &Analyzer{txns: txns, TrendThreshold: DefaultTrendThreshold}
}

// filter returns transactions matching year and month. Each is independent:
// a zero year keeps every year, a zero month keeps every month, so a month
// alone selects that month across all years.
func (a *Analyzer) filter(year, month int) []core.Transaction {
	if year == 0 && month == 0 {
		return a.txns
	}
	var out []core.Transaction
	for _, t := range a.txns {
		if year != 0 && t.Date.Year() != year {
			continue
		}
		if month != 0 && int(t.Date.Month()) != month {
			continue
		}
		out = append(out, t)
	}
	return out
}

// MonthlySummary aggregates one calendar month. Income and expenses are sums
// of absolute amounts; the breakdown covers categorized expenses only, so
// its sum equals total categorized expenses exactly.
func (a *Analyzer) MonthlySummary(year, month int) core.MonthlySummary {
	summary := core.MonthlySummary{
		Year:              year,
		Month:             month,
		CategoryBreakdown: make(map[string]decimal.Decimal),
	}

	for _, t := range a.filter(year, month) {
		summary.TransactionCount++
		switch {
		case t.IsIncome():
			summary.TotalIncome = summary.TotalIncome.Add(t.AbsAmount())
		case t.IsExpense():
			summary.TotalExpenses = summary.TotalExpenses.Add(t.AbsAmount())
			if t.Category != nil {
				name := t.Category.Name
				summary.CategoryBreakdown[name] = summary.CategoryBreakdown[name].Add(t.AbsAmount())
			}
		}
	}
	summary.NetAmount = summary.TotalIncome.Sub(summary.TotalExpenses)
	return summary
}

// AllMonthlySummaries returns a summary for every month that has at least
// one transaction, ordered chronologically.
func (a *Analyzer) AllMonthlySummaries() []core.MonthlySummary {
	type ym struct{ year, month int }
	seen := make(map[ym]bool)
	for _, t := range a.txns {
		seen[ym{t.Date.Year(), int(t.Date.Month())}] = true
	}

	months := make([]ym, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})

	summaries := make([]core.MonthlySummary, 0, len(months))
	for _, m := range months {
		summaries = append(summaries, a.MonthlySummary(m.year, m.month))
	}
	return summaries
}

// CategoryBreakdown sums absolute expense amounts per category name.
// Uncategorized expenses are excluded. A zero year or month leaves that
// dimension unfiltered.
func (a *Analyzer) CategoryBreakdown(year, month int) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, t := range a.filter(year, month) {
		if t.IsExpense() && t.Category != nil {
			totals[t.Category.Name] = totals[t.Category.Name].Add(t.AbsAmount())
		}
	}
	return totals
}

// SpendingPatterns returns per-category expense statistics. An empty
// category name returns patterns for every category. PercentOfTotal is nil
// when there is no categorized spending at all.
func (a *Analyzer) SpendingPatterns(category string) []core.SpendingPattern {
	grouped := make(map[string][]decimal.Decimal)
	totalSpending := decimal.Zero
	for _, t := range a.txns {
		if !t.IsExpense() || t.Category == nil {
			continue
		}
		totalSpending = totalSpending.Add(t.AbsAmount())
		name := t.Category.Name
		if category == "" || name == category {
			grouped[name] = append(grouped[name], t.AbsAmount())
		}
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	patterns := make([]core.SpendingPattern, 0, len(names))
	for _, name := range names {
		amounts := grouped[name]
		total := decimal.Zero
		minAmount, maxAmount := amounts[0], amounts[0]
		for _, amt := range amounts {
			total = total.Add(amt)
			if amt.LessThan(minAmount) {
				minAmount = amt
			}
			if amt.GreaterThan(maxAmount) {
				maxAmount = amt
			}
		}

		pattern := core.SpendingPattern{
			Category:         name,
			TotalAmount:      total,
			TransactionCount: len(amounts),
			Average:          total.Div(decimal.NewFromInt(int64(len(amounts)))),
			Min:              minAmount,
			Max:              maxAmount,
			Trend:            a.Trend(name, 3),
		}
		if totalSpending.IsPositive() {
			pct, _ := total.Div(totalSpending).Mul(decimal.NewFromInt(100)).Float64()
			pattern.PercentOfTotal = &pct
		}
		patterns = append(patterns, pattern)
	}
	return patterns
}

// TopCategories returns the heaviest spending categories, sorted by total
// descending.
func (a *Analyzer) TopCategories(limit int) []core.SpendingPattern {
	patterns := a.SpendingPatterns("")
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].TotalAmount.GreaterThan(patterns[j].TotalAmount)
	})
	if limit > 0 && limit < len(patterns) {
		patterns = patterns[:limit]
	}
	return patterns
}

// TotalIncome sums absolute amounts of income transactions. A zero year or
// month leaves that dimension unfiltered.
func (a *Analyzer) TotalIncome(year, month int) decimal.Decimal {
	total := decimal.Zero
	for _, t := range a.filter(year, month) {
		if t.IsIncome() {
			total = total.Add(t.AbsAmount())
		}
	}
	return total
}

// TotalExpenses sums absolute amounts of expense transactions.
func (a *Analyzer) TotalExpenses(year, month int) decimal.Decimal {
	total := decimal.Zero
	for _, t := range a.filter(year, month) {
		if t.IsExpense() {
			total = total.Add(t.AbsAmount())
		}
	}
	return total
}

// NetAmount is income minus expenses.
func (a *Analyzer) NetAmount(year, month int) decimal.Decimal {
	return a.TotalIncome(year, month).Sub(a.TotalExpenses(year, month))
}

// AverageMonthlySpending averages expenses over the months that have
// activity. With a category name it averages that category's monthly totals.
func (a *Analyzer) AverageMonthlySpending(category string) decimal.Decimal {
	summaries := a.AllMonthlySummaries()
	if len(summaries) == 0 {
		return decimal.Zero
	}

	total := decimal.Zero
	for _, s := range summaries {
		if category != "" {
			total = total.Add(s.CategoryBreakdown[category])
		} else {
			total = total.Add(s.TotalExpenses)
		}
	}
	return total.Div(decimal.NewFromInt(int64(len(summaries))))
}

// Trend compares the most recent month's category spending against the mean
// of the prior months in the window. Movement beyond the threshold in either
// direction reports increasing or decreasing; anything inside it is stable.
// Returns the empty Trend when fewer than two months of data exist.
func (a *Analyzer) Trend(category string, months int) core.Trend {
	summaries := a.AllMonthlySummaries()
	if len(summaries) < 2 {
		return ""
	}
	if months > 1 && months < len(summaries) {
		summaries = summaries[len(summaries)-months:]
	}

	amounts := make([]decimal.Decimal, len(summaries))
	for i, s := range summaries {
		amounts[i] = s.CategoryBreakdown[category]
	}

	recent := amounts[len(amounts)-1]
	prior := amounts[:len(amounts)-1]
	mean := decimal.Zero
	for _, amt := range prior {
		mean = mean.Add(amt)
	}
	mean = mean.Div(decimal.NewFromInt(int64(len(prior))))

	threshold := a.TrendThreshold
	if threshold <= 0 {
		threshold = DefaultTrendThreshold
	}
	t := decimal.NewFromFloat(threshold)

	if mean.IsZero() {
		if recent.IsPositive() {
			return core.TrendIncreasing
		}
		return core.TrendStable
	}
	switch {
	case recent.GreaterThan(mean.Mul(decimal.NewFromInt(1).Add(t))):
		return core.TrendIncreasing
	case recent.LessThan(mean.Mul(decimal.NewFromInt(1).Sub(t))):
		return core.TrendDecreasing
	default:
		return core.TrendStable
	}
}
