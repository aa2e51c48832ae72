package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type (
	// BudgetRepository stores budgets in budgets.json, keyed by category
	// name, year and month. Setting an existing key replaces it.
	BudgetRepository struct {
		mu     sync.Mutex
		path   string
		logger *log.Logger
	}

	budgetRecord struct {
		CategoryName   string `json:"category_name"`
		Year           int    `json:"year"`
		Month          int    `json:"month"`
		Amount         string `json:"amount"`
		AlertThreshold string `json:"alert_threshold"`
		Notes          string `json:"notes,omitempty"`
	}

	budgetsFile struct {
		Budgets []budgetRecord `json:"budgets"`
	}
)

func NewBudgetRepository(dataDir string, logger *log.Logger) (*BudgetRepository, error) {
	if err := ensureDir(dataDir); err != nil {
		return nil, err
	}
	return &BudgetRepository{
		path:   filepath.Join(dataDir, "budgets.json"),
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

func budgetKey(category string, year, month int) string {
	return fmt.Sprintf("%s|%d|%d", strings.ToLower(category), year, month)
}

func (r *BudgetRepository) loadLocked() ([]core.Budget, error) {
	var file budgetsFile
	if err := readFileJSON(r.path, &file); err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	budgets := make([]core.Budget, 0, len(file.Budgets))
	for _, rec := range file.Budgets {
		amount, err := decimal.NewFromString(rec.Amount)
		if err != nil {
			return nil, fmt.Errorf("parse stored budget amount %q: %w", rec.Amount, err)
		}
		threshold, err := decimal.NewFromString(rec.AlertThreshold)
		if err != nil {
			return nil, fmt.Errorf("parse stored alert threshold %q: %w", rec.AlertThreshold, err)
		}
		budgets = append(budgets, core.Budget{
			CategoryName:   rec.CategoryName,
			Year:           rec.Year,
			Month:          rec.Month,
			Amount:         amount,
			AlertThreshold: threshold,
			Notes:          rec.Notes,
		})
	}
	return budgets, nil
}

func (r *BudgetRepository) saveLocked(budgets []core.Budget) error {
	file := budgetsFile{Budgets: make([]budgetRecord, 0, len(budgets))}
	for _, b := range budgets {
		file.Budgets = append(file.Budgets, budgetRecord{
			CategoryName:   b.CategoryName,
			Year:           b.Year,
			Month:          b.Month,
			Amount:         b.Amount.String(),
			AlertThreshold: b.AlertThreshold.String(),
			Notes:          b.Notes,
		})
	}
	if err := writeFileAtomic(r.path, file); err != nil {
		return fmt.Errorf("save budgets: %w", err)
	}
	return nil
}

// Set stores a budget, replacing any existing budget for the same category
// and month.
func (r *BudgetRepository) Set(ctx context.Context, budget core.Budget) error {
	if err := budget.Validate(); err != nil {
		return fmt.Errorf("set budget: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	budgets, err := r.loadLocked()
	if err != nil {
		return err
	}

	key := budgetKey(budget.CategoryName, budget.Year, budget.Month)
	replaced := false
	for i, b := range budgets {
		if budgetKey(b.CategoryName, b.Year, b.Month) == key {
			budgets[i] = budget
			replaced = true
			break
		}
	}
	if !replaced {
		budgets = append(budgets, budget)
	}

	if err := r.saveLocked(budgets); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Budget set",
		log.FieldCategory, budget.CategoryName,
		log.FieldYear, budget.Year,
		log.FieldMonth, budget.Month)
	return nil
}

// Get returns the budget for a category and month, or ErrNotFound.
func (r *BudgetRepository) Get(ctx context.Context, category string, year, month int) (core.Budget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	budgets, err := r.loadLocked()
	if err != nil {
		return core.Budget{}, err
	}
	key := budgetKey(category, year, month)
	for _, b := range budgets {
		if budgetKey(b.CategoryName, b.Year, b.Month) == key {
			return b, nil
		}
	}
	return core.Budget{}, fmt.Errorf("budget %s %d-%02d: %w", category, year, month, ErrNotFound)
}

// Delete removes the budget for a category and month.
func (r *BudgetRepository) Delete(ctx context.Context, category string, year, month int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	budgets, err := r.loadLocked()
	if err != nil {
		return err
	}
	key := budgetKey(category, year, month)
	for i, b := range budgets {
		if budgetKey(b.CategoryName, b.Year, b.Month) == key {
			budgets = append(budgets[:i], budgets[i+1:]...)
			if err := r.saveLocked(budgets); err != nil {
				return err
			}
			r.logger.InfoContext(ctx, "Budget deleted", log.FieldCategory, category,
				log.FieldYear, year, log.FieldMonth, month)
			return nil
		}
	}
	return fmt.Errorf("budget %s %d-%02d: %w", category, year, month, ErrNotFound)
}

// LoadAll returns every stored budget.
func (r *BudgetRepository) LoadAll(ctx context.Context) ([]core.Budget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}
