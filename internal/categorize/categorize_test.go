package categorize

import (
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/rules"
)

func txn(description string, category *core.Category) core.Transaction {
	return core.Transaction{
		Date:        core.NewDate(2024, 5, 1),
		Amount:      decimal.RequireFromString("-10.00"),
		Description: description,
		Category:    category,
		Type:        core.Debit,
	}
}

func TestRun(t *testing.T) {
	engine := rules.NewEngine()
	txns := []core.Transaction{
		txn("GROCERY STORE #1234", nil),
		txn("UNKNOWN MERCHANT XYZZY", nil),
		txn("STARBUCKS 0441", &core.Category{Name: "Manual"}),
	}

	out, stats := Run(engine, txns, false)

	if stats.Total != 3 || stats.Categorized != 2 || stats.Uncategorized != 1 {
		t.Fatalf("stats = %+v, want total 3, categorized 2, uncategorized 1", stats)
	}
	if stats.AlreadyCategorized != 1 || stats.NewlyCategorized != 1 {
		t.Fatalf("stats = %+v, want already 1, newly 1", stats)
	}

	if out[0].Category == nil || out[0].Category.Name != "Groceries" {
		t.Fatalf("grocery category = %v, want Groceries", out[0].Category)
	}
	if out[1].Category != nil {
		t.Fatalf("unknown merchant category = %v, want nil", out[1].Category)
	}
	if out[2].Category.Name != "Manual" {
		t.Fatalf("manual category = %v, want preserved", out[2].Category)
	}

	// Input must be untouched.
	if txns[0].Category != nil {
		t.Fatal("Run() modified its input slice")
	}
}

func TestRunOverwrite(t *testing.T) {
	engine := rules.NewEngine()
	txns := []core.Transaction{
		txn("STARBUCKS 0441", &core.Category{Name: "Manual"}),
		txn("XYZZY", &core.Category{Name: "Manual"}),
	}

	out, stats := Run(engine, txns, true)

	if out[0].Category.Name != "Coffee Shops" {
		t.Fatalf("overwrite category = %v, want Coffee Shops", out[0].Category)
	}
	if out[1].Category.Name != "Manual" {
		t.Fatalf("no-match overwrite category = %v, want Manual kept", out[1].Category)
	}
	if stats.Categorized != 2 || stats.NewlyCategorized != 0 {
		t.Fatalf("stats = %+v, want categorized 2, newly 0", stats)
	}
}

func TestRate(t *testing.T) {
	cases := []struct {
		stats Stats
		want  float64
	}{
		{Stats{Total: 4, Categorized: 3}, 75},
		{Stats{Total: 0}, 0},
		{Stats{Total: 2, Categorized: 2}, 100},
	}
	for _, tc := range cases {
		if got := tc.stats.Rate(); got != tc.want {
			t.Fatalf("Rate(%+v) = %v, want %v", tc.stats, got, tc.want)
		}
	}
}

func TestUncategorizedAndByCategory(t *testing.T) {
	txns := []core.Transaction{
		txn("A", &core.Category{Name: "Groceries"}),
		txn("B", nil),
		txn("C", &core.Category{Name: "Groceries"}),
	}

	if got := Uncategorized(txns); len(got) != 1 || got[0].Description != "B" {
		t.Fatalf("Uncategorized() = %v, want just B", got)
	}

	groups := ByCategory(txns)
	if len(groups["Groceries"]) != 2 || len(groups[""]) != 1 {
		t.Fatalf("ByCategory() = %v, want 2 Groceries and 1 uncategorized", groups)
	}
}
