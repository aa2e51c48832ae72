// Package tracker wires the parser, rule engine, repositories and analysis
// engines into one service exposing the application's operations. Handlers
// and CLI commands talk to this package only.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/analyze"
	"fintrack/internal/budget"
	"fintrack/internal/categorize"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/csvparse"
	"fintrack/internal/log"
	"fintrack/internal/recurring"
	"fintrack/internal/rules"
	"fintrack/internal/search"
	"fintrack/internal/storage"
)

var (
	ErrSplitAmountMismatch = errors.New("split amounts must sum to the original amount")
	ErrSplitTooFew         = errors.New("a split needs at least two parts")
	ErrMergeTooFew         = errors.New("a merge needs at least two transactions")
	ErrUnknownFormat       = errors.New("unknown export format")
)

type (
	// Service is the application facade. All state lives in the flat-file
	// repositories; the service itself only holds wiring.
	Service struct {
		txRepo     *storage.TransactionRepository
		budgetRepo *storage.BudgetRepository
		rulesStore *storage.RulesStore
		engine     *rules.Engine
		detector   *recurring.Detector
		cfg        *config.Config
		logger     *log.Logger
	}

	// ImportOptions tunes one CSV import.
	ImportOptions struct {
		Account        string
		Force          bool // keep duplicates instead of skipping them
		SkipCategorize bool
	}

	// ImportResult reports what one import did, including the rows that
	// failed to parse. Row failures never abort an import.
	ImportResult struct {
		Format             csvparse.Format
		Parsed             int
		Imported           int
		DuplicatesSkipped  int
		RowFailures        []csvparse.RowError
		Categorized        int
		CategorizationRate float64
	}

	// EditRequest carries the editable fields of a transaction. Nil fields
	// are left untouched; ClearCategory removes the category outright.
	EditRequest struct {
		Description   *string
		Notes         *string
		Account       *string
		Amount        *decimal.Decimal
		Date          *time.Time
		Category      *core.Category
		ClearCategory bool
	}

	// BulkEditRequest carries the fields a bulk edit can assign across many
	// transactions at once. Notes are appended to existing notes rather than
	// replacing them.
	BulkEditRequest struct {
		Category      *core.Category
		ClearCategory bool
		Notes         *string
	}

	// SplitPart is one piece of a split: a positive amount plus its own
	// description and optional category.
	SplitPart struct {
		Amount      decimal.Decimal
		Description string
		Category    *core.Category
	}

	// SplitResult returns the removed original and its replacement parts.
	SplitResult struct {
		Original core.Transaction
		Parts    []core.Transaction
	}

	// Page is one page of the stored transactions in stable order: date
	// ascending, insertion order within a day.
	Page struct {
		Transactions []core.Transaction
		Page         int
		PageSize     int
		TotalCount   int
		TotalPages   int
	}
)

// NewService builds the service: repositories under cfg.DataDir and a rule
// engine holding the defaults plus every persisted custom rule.
func NewService(cfg *config.Config, logger *log.Logger) (*Service, error) {
	svcLogger := logger.WithComponent(log.ComponentTracker)

	txRepo, err := storage.NewTransactionRepository(cfg.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("init transaction repository: %w", err)
	}
	budgetRepo, err := storage.NewBudgetRepository(cfg.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("init budget repository: %w", err)
	}
	rulesStore, err := storage.NewRulesStore(cfg.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("init rules store: %w", err)
	}

	engine := rules.NewEngine()
	stored, err := rulesStore.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load custom rules: %w", err)
	}
	for _, r := range stored {
		if err := engine.Add(r.Pattern, r.CategoryName, r.ParentCategory, r.CaseSensitive); err != nil {
			svcLogger.Warn("Skipping stored rule that no longer compiles",
				"pattern", r.Pattern, log.FieldError, err.Error())
		}
	}

	detector := recurring.NewDetector()
	if cfg.RecurringMinOccurrence > 0 {
		detector.MinOccurrences = cfg.RecurringMinOccurrence
	}

	return &Service{
		txRepo:     txRepo,
		budgetRepo: budgetRepo,
		rulesStore: rulesStore,
		engine:     engine,
		detector:   detector,
		cfg:        cfg,
		logger:     svcLogger,
	}, nil
}

func (s *Service) analyzer(txns []core.Transaction) *analyze.Analyzer {
	a := analyze.New(txns)
	if s.cfg.TrendThreshold > 0 {
		a.TrendThreshold = s.cfg.TrendThreshold
	}
	return a
}

// ImportCSV parses a statement file, categorizes the clean rows and saves
// them. Duplicates are skipped unless opts.Force is set.
func (s *Service) ImportCSV(ctx context.Context, path string, opts ImportOptions) (ImportResult, error) {
	account := opts.Account
	if account == "" {
		account = s.cfg.DefaultAccount
	}

	parsed, err := csvparse.NewParser(account).ParseFile(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import %s: %w", filepath.Base(path), err)
	}

	result := ImportResult{
		Format:      parsed.Format,
		Parsed:      len(parsed.Transactions),
		RowFailures: parsed.RowErrors,
	}

	txns := parsed.Transactions
	if !opts.SkipCategorize {
		var stats categorize.Stats
		txns, stats = categorize.Run(s.engine, txns, false)
		result.Categorized = stats.Categorized
		result.CategorizationRate = stats.Rate()
	}

	saved, err := s.txRepo.Save(ctx, txns, !opts.Force)
	if err != nil {
		return ImportResult{}, err
	}
	result.Imported = saved.New
	result.DuplicatesSkipped = saved.Duplicates

	s.logger.InfoContext(ctx, "CSV imported",
		log.FieldOperation, log.OpImport,
		log.FieldFile, filepath.Base(path),
		log.FieldFormat, string(parsed.Format),
		log.FieldNew, result.Imported,
		log.FieldDuplicates, result.DuplicatesSkipped,
		log.FieldRowErrors, len(result.RowFailures))
	return result, nil
}

// Recategorize runs the rule engine over every stored transaction and
// persists the assignments. With overwrite set, existing categories are
// replaced when a rule matches.
func (s *Service) Recategorize(ctx context.Context, overwrite bool) (categorize.Stats, error) {
	txns, err := s.txRepo.LoadAll(ctx)
	if err != nil {
		return categorize.Stats{}, err
	}
	updated, stats := categorize.Run(s.engine, txns, overwrite)
	if _, err := s.txRepo.UpdateMany(ctx, updated); err != nil {
		return categorize.Stats{}, err
	}
	return stats, nil
}

// CheckDuplicates reports which of the given transactions already exist in
// the store.
func (s *Service) CheckDuplicates(ctx context.Context, txns []core.Transaction) ([]core.Transaction, error) {
	return s.txRepo.CheckDuplicates(ctx, txns)
}

// SaveTransactions stores a batch directly, bypassing the parser.
func (s *Service) SaveTransactions(ctx context.Context, txns []core.Transaction, skipDuplicates bool) (storage.SaveResult, error) {
	for _, t := range txns {
		if err := t.Validate(); err != nil {
			return storage.SaveResult{}, fmt.Errorf("validate transaction %q: %w", t.Description, err)
		}
	}
	return s.txRepo.Save(ctx, txns, skipDuplicates)
}

func sortStable(txns []core.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.Before(txns[j].Date)
	})
}

// ListTransactions returns one page of the store in stable order. Page
// numbers start at 1; a page past the end comes back empty.
func (s *Service) ListTransactions(ctx context.Context, page, pageSize int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	txns, err := s.txRepo.LoadAll(ctx)
	if err != nil {
		return Page{}, err
	}
	sortStable(txns)

	total := len(txns)
	totalPages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return Page{
		Transactions: txns[start:end],
		Page:         page,
		PageSize:     pageSize,
		TotalCount:   total,
		TotalPages:   totalPages,
	}, nil
}

// Search filters the store with the given query, in stable order.
func (s *Service) Search(ctx context.Context, q search.Query) ([]core.Transaction, error) {
	txns, err := s.txRepo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	sortStable(txns)
	return search.Filter(txns, q), nil
}

// GetTransaction returns one stored transaction by ID.
func (s *Service) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return s.txRepo.GetByID(ctx, id)
}

// EditTransaction applies the set fields of the request and persists the
// result.
func (s *Service) EditTransaction(ctx context.Context, id string, edit EditRequest) (core.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	if edit.Description != nil {
		txn.Description = *edit.Description
	}
	if edit.Notes != nil {
		txn.Notes = *edit.Notes
	}
	if edit.Account != nil {
		txn.Account = *edit.Account
	}
	if edit.Amount != nil {
		txn.Amount = *edit.Amount
	}
	if edit.Date != nil {
		txn.Date = *edit.Date
	}
	if edit.ClearCategory {
		txn.Category = nil
	} else if edit.Category != nil {
		txn.Category = edit.Category
	}

	if err := txn.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("edit transaction: %w", err)
	}
	if err := s.txRepo.Update(ctx, txn); err != nil {
		return core.Transaction{}, err
	}
	return txn, nil
}

// MergeTransactions collapses two or more transactions into one. The merged
// transaction keeps the first transaction's date, account, type and category,
// sums every amount and replaces the originals in a single rewrite.
func (s *Service) MergeTransactions(ctx context.Context, ids []string) (core.Transaction, error) {
	if len(ids) < 2 {
		return core.Transaction{}, ErrMergeTooFew
	}

	txns := make([]core.Transaction, 0, len(ids))
	for _, id := range ids {
		txn, err := s.txRepo.GetByID(ctx, id)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("merge transaction %s: %w", id, err)
		}
		txns = append(txns, txn)
	}

	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Amount)
	}

	merged := txns[0]
	merged.ID = ""
	merged.Amount = total
	merged.Description = merged.Description + " (merged)"
	merged.Notes = fmt.Sprintf("Merged %d transactions", len(txns))
	merged.Type = core.TypeFromAmount(total)

	if err := merged.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("merge transactions: %w", err)
	}
	if err := s.txRepo.Replace(ctx, ids, []core.Transaction{merged}); err != nil {
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transactions merged", log.FieldCount, len(txns))
	return merged, nil
}

// BulkEdit applies the set fields of the request to every listed transaction.
// Missing IDs are skipped; it returns how many transactions were updated.
func (s *Service) BulkEdit(ctx context.Context, ids []string, edit BulkEditRequest) (int, error) {
	updated := make([]core.Transaction, 0, len(ids))
	for _, id := range ids {
		txn, err := s.txRepo.GetByID(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}

		if edit.ClearCategory {
			txn.Category = nil
		} else if edit.Category != nil {
			txn.Category = edit.Category
		}
		if edit.Notes != nil {
			if txn.Notes != "" {
				txn.Notes = txn.Notes + "\n" + *edit.Notes
			} else {
				txn.Notes = *edit.Notes
			}
		}
		updated = append(updated, txn)
	}

	if len(updated) == 0 {
		return 0, nil
	}
	n, err := s.txRepo.UpdateMany(ctx, updated)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "Transactions bulk edited", log.FieldCount, n)
	return n, nil
}

// DeleteTransaction removes one transaction.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	return s.txRepo.Delete(ctx, id)
}

// DeleteTransactions removes a batch and returns how many existed.
func (s *Service) DeleteTransactions(ctx context.Context, ids []string) (int, error) {
	return s.txRepo.DeleteMany(ctx, ids)
}

// SplitTransaction replaces one transaction with two or more parts. The
// part amounts must sum exactly to the original's absolute amount; each
// part keeps the original's date, account, type and sign, and carries the
// original's ID as its parent.
func (s *Service) SplitTransaction(ctx context.Context, id string, parts []SplitPart) (SplitResult, error) {
	if len(parts) < 2 {
		return SplitResult{}, ErrSplitTooFew
	}

	original, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return SplitResult{}, err
	}

	sum := decimal.Zero
	for _, p := range parts {
		if !p.Amount.IsPositive() {
			return SplitResult{}, fmt.Errorf("split part %q: amount must be positive", p.Description)
		}
		sum = sum.Add(p.Amount)
	}
	if !sum.Equal(original.AbsAmount()) {
		return SplitResult{}, fmt.Errorf("split of %s into %s: %w",
			original.AbsAmount(), sum, ErrSplitAmountMismatch)
	}

	negative := original.Amount.IsNegative()
	children := make([]core.Transaction, 0, len(parts))
	for _, p := range parts {
		amount := p.Amount
		if negative {
			amount = amount.Neg()
		}
		description := p.Description
		if description == "" {
			description = original.Description
		}
		children = append(children, core.Transaction{
			Date:        original.Date,
			Amount:      amount,
			Description: description,
			Category:    p.Category,
			Type:        original.Type,
			Account:     original.Account,
			ParentID:    original.ID,
		})
	}

	if err := s.txRepo.Replace(ctx, []string{original.ID}, children); err != nil {
		return SplitResult{}, err
	}

	s.logger.InfoContext(ctx, "Transaction split", "id", original.ID, "parts", len(children))
	return SplitResult{Original: original, Parts: children}, nil
}

// MonthlySummary aggregates one month of the store.
func (s *Service) MonthlySummary(ctx context.Context, year, month int) (core.MonthlySummary, error) {
	if month < 1 || month > 12 {
		return core.MonthlySummary{}, core.ErrInvalidMonth
	}
	txns, err := s.txRepo.LoadAll(ctx)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	return s.analyzer(txns).MonthlySummary(year, month), nil
}

// AllMonthlySummaries aggregates every month with activity, in order.
func (s *Service) AllMonthlySummaries(ctx context.Context) ([]core.MonthlySummary, error) {
	txns, err := s.txRepo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.analyzer(txns).AllMonthlySummaries(), nil
}

// CategoryBreakdown sums categorized expenses. A zero year or month leaves
// that dimension unfiltered, so a month alone spans all years.
func (s *Service) CategoryBreakdown(ctx context.Context, year, month int) (map[string]decimal.Decimal, error) {
	txns, err := s.txRepo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.analyzer(txns).CategoryBreakdown(year, month), nil
}

// SpendingPatterns returns per-category statistics; empty category means
// all categories.
func (s *Service) SpendingPatterns(ctx context.Context, category string) ([]core.SpendingPattern, error) {
	txns, err := s.txRepo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.analyzer(txns).SpendingPatterns(category), nil
}

// TopCategories returns the heaviest spending categories.
func (s *Service) TopCategories(ctx context.Context, limit int) ([]core.SpendingPattern, error) {
	txns, err := s.txRepo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.analyzer(txns).TopCategories(limit), nil
}

// DetectRecurring finds recurring charge patterns in the store.
func (s *Service) DetectRecurring(ctx context.Context) ([]core.RecurringPattern, error) {
	txns, err := s.txRepo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.detector.Detect(txns), nil
}

// MarkRecurring detects recurring patterns and persists the recurring flag
// on every matching transaction. It returns the patterns and the number of
// transactions marked.
func (s *Service) MarkRecurring(ctx context.Context) ([]core.RecurringPattern, int, error) {
	txns, err := s.txRepo.LoadAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	patterns := s.detector.Detect(txns)
	marked, n := s.detector.Mark(txns, patterns)
	if n > 0 {
		if _, err := s.txRepo.UpdateMany(ctx, marked); err != nil {
			return nil, 0, err
		}
	}
	return patterns, n, nil
}

// SetBudget stores a monthly category budget, replacing any existing one
// for the same category and month.
func (s *Service) SetBudget(ctx context.Context, b core.Budget) error {
	return s.budgetRepo.Set(ctx, b)
}

// DeleteBudget removes a budget.
func (s *Service) DeleteBudget(ctx context.Context, category string, year, month int) error {
	return s.budgetRepo.Delete(ctx, category, year, month)
}

func (s *Service) evaluator(ctx context.Context) (*budget.Evaluator, error) {
	budgets, err := s.budgetRepo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := s.txRepo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return budget.NewEvaluator(budgets, txns), nil
}

// BudgetStatus reports one category's budget position for a month.
func (s *Service) BudgetStatus(ctx context.Context, category string, year, month int) (budget.Status, error) {
	e, err := s.evaluator(ctx)
	if err != nil {
		return budget.Status{}, err
	}
	return e.Status(category, year, month), nil
}

// AllBudgetStatuses reports every budget defined for a month.
func (s *Service) AllBudgetStatuses(ctx context.Context, year, month int) ([]budget.Status, error) {
	e, err := s.evaluator(ctx)
	if err != nil {
		return nil, err
	}
	return e.AllStatuses(year, month), nil
}

// BudgetAlerts returns the month's budget warnings, at most one per
// category.
func (s *Service) BudgetAlerts(ctx context.Context, year, month int) ([]budget.Alert, error) {
	e, err := s.evaluator(ctx)
	if err != nil {
		return nil, err
	}
	return e.Alerts(year, month), nil
}

// AddCategoryRule compiles, registers and persists a custom rule. Custom
// rules run after the defaults, so they only fire when no default matches.
func (s *Service) AddCategoryRule(ctx context.Context, pattern, category, parent string, caseSensitive bool) error {
	if err := s.engine.Add(pattern, category, parent, caseSensitive); err != nil {
		return err
	}
	return s.rulesStore.Add(ctx, storage.StoredRule{
		Pattern:        pattern,
		CategoryName:   category,
		ParentCategory: parent,
		CaseSensitive:  caseSensitive,
	})
}

// RemoveCategoryRule drops a rule from the engine and the store. It reports
// whether anything was removed.
func (s *Service) RemoveCategoryRule(ctx context.Context, pattern, category string) (bool, error) {
	removedEngine := s.engine.Remove(pattern, category)
	removedStore, err := s.rulesStore.Remove(ctx, pattern, category)
	if err != nil {
		return false, err
	}
	return removedEngine || removedStore, nil
}

// TestCategoryRule dry-runs a candidate pattern against sample strings.
func (s *Service) TestCategoryRule(pattern string, caseSensitive bool, samples []string) rules.TestResult {
	return rules.TestPattern(pattern, caseSensitive, samples)
}

// ListCategoryRules returns the active rules in priority order.
func (s *Service) ListCategoryRules() []rules.Rule {
	return s.engine.Rules()
}

// ListCategories returns every known category grouped by parent.
func (s *Service) ListCategories() map[string][]string {
	return s.engine.Categories()
}

// ListAccounts returns the distinct accounts present in the store.
func (s *Service) ListAccounts(ctx context.Context) ([]string, error) {
	txns, err := s.txRepo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return search.Accounts(txns), nil
}

// ExportTransactions writes the store to path in the given format ("json"
// or "csv") and returns the path written.
func (s *Service) ExportTransactions(ctx context.Context, format, path string) (string, error) {
	txns, err := s.txRepo.LoadAll(ctx)
	if err != nil {
		return "", err
	}
	sortStable(txns)

	switch format {
	case "json":
		err = storage.ExportJSON(path, txns)
	case "csv":
		err = storage.ExportCSV(path, txns)
	default:
		return "", fmt.Errorf("export format %q: %w", format, ErrUnknownFormat)
	}
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "Transactions exported",
		log.FieldOperation, log.OpExport,
		log.FieldFormat, format,
		log.FieldFile, path,
		log.FieldCount, len(txns))
	return path, nil
}
