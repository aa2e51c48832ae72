package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func budget(category string, amount string) core.Budget {
	return core.Budget{
		CategoryName:   category,
		Year:           2024,
		Month:          6,
		Amount:         decimal.RequireFromString(amount),
		AlertThreshold: decimal.RequireFromString("0.8"),
	}
}

func TestBudgetSetGetDelete(t *testing.T) {
	repo, err := NewBudgetRepository(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewBudgetRepository() error = %v", err)
	}
	ctx := context.Background()

	if err := repo.Set(ctx, budget("Groceries", "400.00")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := repo.Get(ctx, "Groceries", 2024, 6)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("400.00")) {
		t.Fatalf("budget amount = %s, want 400.00", got.Amount)
	}

	// Same key replaces, category lookup is case-insensitive.
	if err := repo.Set(ctx, budget("groceries", "450.00")); err != nil {
		t.Fatalf("Set() replace error = %v", err)
	}
	all, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("LoadAll() = %d budgets, want 1 after replace", len(all))
	}
	if !all[0].Amount.Equal(decimal.RequireFromString("450.00")) {
		t.Fatalf("replaced amount = %s, want 450.00", all[0].Amount)
	}

	if err := repo.Delete(ctx, "Groceries", 2024, 6); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, "Groceries", 2024, 6); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "Groceries", 2024, 6); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestBudgetSetValidates(t *testing.T) {
	repo, err := NewBudgetRepository(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewBudgetRepository() error = %v", err)
	}

	bad := budget("Groceries", "400.00")
	bad.Month = 13
	if err := repo.Set(context.Background(), bad); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("Set() error = %v, want ErrInvalidMonth", err)
	}

	negative := budget("Groceries", "-1.00")
	if err := repo.Set(context.Background(), negative); !errors.Is(err, core.ErrInvalidBudgetAmount) {
		t.Fatalf("Set() error = %v, want ErrInvalidBudgetAmount", err)
	}
}

func TestBudgetMonthsAreIndependent(t *testing.T) {
	repo, err := NewBudgetRepository(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewBudgetRepository() error = %v", err)
	}
	ctx := context.Background()

	june := budget("Groceries", "400.00")
	july := budget("Groceries", "500.00")
	july.Month = 7
	if err := repo.Set(ctx, june); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(ctx, july); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	all, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("LoadAll() = %d budgets, want 2", len(all))
	}
}
