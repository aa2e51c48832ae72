package budget

import (
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func spend(y, m, d int, amount, category string) core.Transaction {
	return core.Transaction{
		Date:        core.NewDate(y, m, d),
		Amount:      decimal.RequireFromString(amount).Neg(),
		Description: category,
		Category:    &core.Category{Name: category},
		Type:        core.Debit,
	}
}

func monthBudget(category, amount, threshold string) core.Budget {
	return core.Budget{
		CategoryName:   category,
		Year:           2024,
		Month:          6,
		Amount:         decimal.RequireFromString(amount),
		AlertThreshold: decimal.RequireFromString(threshold),
	}
}

func TestStatusOverBudget(t *testing.T) {
	e := NewEvaluator(
		[]core.Budget{monthBudget("Groceries", "200.00", "0.9")},
		[]core.Transaction{spend(2024, 6, 10, "250.00", "Groceries")},
	)

	status := e.Status("Groceries", 2024, 6)
	if !status.HasBudget {
		t.Fatal("HasBudget = false, want true")
	}
	if !status.Spent.Equal(decimal.RequireFromString("250.00")) {
		t.Fatalf("spent = %s, want 250.00", status.Spent)
	}
	if !status.Remaining.Equal(decimal.RequireFromString("-50.00")) {
		t.Fatalf("remaining = %s, want -50.00", status.Remaining)
	}
	if math.Abs(status.PercentSpent-125) > 0.001 {
		t.Fatalf("percent = %v, want 125", status.PercentSpent)
	}
	if !status.ShouldAlert || !status.OverBudget {
		t.Fatalf("flags = alert %v over %v, want both true", status.ShouldAlert, status.OverBudget)
	}
}

func TestStatusUnderThreshold(t *testing.T) {
	e := NewEvaluator(
		[]core.Budget{monthBudget("Groceries", "400.00", "0.8")},
		[]core.Transaction{spend(2024, 6, 10, "100.00", "Groceries")},
	)

	status := e.Status("Groceries", 2024, 6)
	if status.ShouldAlert || status.OverBudget {
		t.Fatalf("flags = alert %v over %v, want both false at 25%%", status.ShouldAlert, status.OverBudget)
	}
	if math.Abs(status.PercentSpent-25) > 0.001 {
		t.Fatalf("percent = %v, want 25", status.PercentSpent)
	}
}

func TestStatusNoBudget(t *testing.T) {
	e := NewEvaluator(nil, nil)
	status := e.Status("Groceries", 2024, 6)
	if status.HasBudget {
		t.Fatal("HasBudget = true with no budgets defined")
	}
}

func TestStatusMonthIsolation(t *testing.T) {
	e := NewEvaluator(
		[]core.Budget{monthBudget("Groceries", "200.00", "0.8")},
		[]core.Transaction{
			spend(2024, 6, 10, "100.00", "Groceries"),
			spend(2024, 7, 10, "500.00", "Groceries"), // next month, excluded
		},
	)
	status := e.Status("Groceries", 2024, 6)
	if !status.Spent.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("spent = %s, want only June's 100.00", status.Spent)
	}
}

func TestAlertWording(t *testing.T) {
	e := NewEvaluator(
		[]core.Budget{
			monthBudget("Groceries", "200.00", "0.9"),
			monthBudget("Gas & Fuel", "100.00", "0.8"),
			monthBudget("Fun", "300.00", "0.8"),
		},
		[]core.Transaction{
			spend(2024, 6, 10, "250.00", "Groceries"), // 125%, over
			spend(2024, 6, 11, "85.00", "Gas & Fuel"), // 85%, approaching
			spend(2024, 6, 12, "30.00", "Fun"),        // 10%, quiet
		},
	)

	alerts := e.Alerts(2024, 6)
	if len(alerts) != 2 {
		t.Fatalf("Alerts() = %d, want 2", len(alerts))
	}

	byCategory := make(map[string]Alert)
	for _, a := range alerts {
		byCategory[a.Category] = a
	}

	over, ok := byCategory["Groceries"]
	if !ok || !strings.Contains(over.Message, "Over budget") {
		t.Fatalf("groceries alert = %+v, want an Over budget message", over)
	}
	approaching, ok := byCategory["Gas & Fuel"]
	if !ok || !strings.Contains(approaching.Message, "Approaching budget") {
		t.Fatalf("gas alert = %+v, want an Approaching budget message", approaching)
	}
	if strings.Contains(approaching.Message, "Over budget") {
		t.Fatalf("approaching alert reads as over budget: %q", approaching.Message)
	}
}

func TestAlertAtExactlyFullBudget(t *testing.T) {
	e := NewEvaluator(
		[]core.Budget{monthBudget("Groceries", "200.00", "0.9")},
		[]core.Transaction{spend(2024, 6, 10, "200.00", "Groceries")},
	)

	alerts := e.Alerts(2024, 6)
	if len(alerts) != 1 || !strings.Contains(alerts[0].Message, "Over budget") {
		t.Fatalf("Alerts() = %+v, want Over budget wording at exactly 100%%", alerts)
	}
}

func TestOneAlertPerCategory(t *testing.T) {
	e := NewEvaluator(
		[]core.Budget{monthBudget("Groceries", "200.00", "0.5")},
		[]core.Transaction{spend(2024, 6, 10, "500.00", "Groceries")},
	)
	// Both threshold and limit are crossed; still a single alert.
	if alerts := e.Alerts(2024, 6); len(alerts) != 1 {
		t.Fatalf("Alerts() = %d, want 1", len(alerts))
	}
}

func TestCategoryMatchIsCaseInsensitive(t *testing.T) {
	e := NewEvaluator(
		[]core.Budget{monthBudget("groceries", "200.00", "0.8")},
		[]core.Transaction{spend(2024, 6, 10, "180.00", "Groceries")},
	)
	status := e.Status("GROCERIES", 2024, 6)
	if !status.HasBudget || !status.Spent.Equal(decimal.RequireFromString("180.00")) {
		t.Fatalf("status = %+v, want case-insensitive matches", status)
	}
}
