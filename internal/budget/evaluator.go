// Package budget evaluates monthly category budgets against actual
// spending. Evaluation is a pure read over budgets and transactions.
package budget

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/analyze"
	"fintrack/internal/core"
)

type (
	// Status describes one category's budget position for a month. When no
	// budget exists, HasBudget is false and the other fields are zero.
	Status struct {
		CategoryName string
		HasBudget    bool
		Budget       core.Budget
		Spent        decimal.Decimal
		Remaining    decimal.Decimal
		PercentSpent float64
		AlertAmount  decimal.Decimal
		ShouldAlert  bool
		OverBudget   bool
	}

	// Alert is a budget warning for one category. Categories over their
	// budget get an "Over budget" message; categories past their alert
	// threshold but still under budget get an "Approaching budget" one.
	Alert struct {
		Category string
		Message  string
		Spent    decimal.Decimal
		Budget   decimal.Decimal
	}

	// Evaluator checks budgets against the spending in one transaction
	// collection.
	Evaluator struct {
		budgets  []core.Budget
		analyzer *analyze.Analyzer
	}
)

func NewEvaluator(budgets []core.Budget, txns []core.Transaction) *Evaluator {
	return &Evaluator{budgets: budgets, analyzer: analyze.New(txns)}
}

func (e *Evaluator) findBudget(category string, year, month int) (core.Budget, bool) {
	for _, b := range e.budgets {
		if strings.EqualFold(b.CategoryName, category) && b.Year == year && b.Month == month {
			return b, true
		}
	}
	return core.Budget{}, false
}

// spent sums the month's expenses for the category, matching category names
// case-insensitively.
func (e *Evaluator) spent(category string, year, month int) decimal.Decimal {
	total := decimal.Zero
	for name, amount := range e.analyzer.CategoryBreakdown(year, month) {
		if strings.EqualFold(name, category) {
			total = total.Add(amount)
		}
	}
	return total
}

// Status reports the budget position for one category and month.
func (e *Evaluator) Status(category string, year, month int) Status {
	b, ok := e.findBudget(category, year, month)
	if !ok {
		return Status{CategoryName: category}
	}

	spent := e.spent(category, year, month)
	status := Status{
		CategoryName: b.CategoryName,
		HasBudget:    true,
		Budget:       b,
		Spent:        spent,
		Remaining:    b.Amount.Sub(spent),
		AlertAmount:  b.Amount.Mul(b.AlertThreshold),
	}
	if b.Amount.IsPositive() {
		status.PercentSpent, _ = spent.Div(b.Amount).Mul(decimal.NewFromInt(100)).Float64()
	}
	status.ShouldAlert = spent.GreaterThanOrEqual(status.AlertAmount) && b.Amount.IsPositive()
	status.OverBudget = spent.GreaterThan(b.Amount)
	return status
}

// AllStatuses reports every budget defined for the month.
func (e *Evaluator) AllStatuses(year, month int) []Status {
	var statuses []Status
	for _, b := range e.budgets {
		if b.Year == year && b.Month == month {
			statuses = append(statuses, e.Status(b.CategoryName, year, month))
		}
	}
	return statuses
}

// Alerts returns at most one alert per budgeted category for the month.
func (e *Evaluator) Alerts(year, month int) []Alert {
	var alerts []Alert
	for _, status := range e.AllStatuses(year, month) {
		if !status.ShouldAlert && !status.OverBudget {
			continue
		}

		var message string
		if status.PercentSpent >= 100 || status.OverBudget {
			message = fmt.Sprintf("Over budget by $%s (%.1f%% spent)",
				status.Remaining.Abs(), status.PercentSpent)
		} else {
			message = fmt.Sprintf("Approaching budget limit: %.1f%% spent", status.PercentSpent)
		}
		alerts = append(alerts, Alert{
			Category: status.CategoryName,
			Message:  message,
			Spent:    status.Spent,
			Budget:   status.Budget.Amount,
		})
	}
	return alerts
}
