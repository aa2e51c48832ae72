package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/search"
)

type (
	apiTransaction struct {
		ID          string `json:"id"`
		Date        string `json:"date"`
		Amount      string `json:"amount"`
		Description string `json:"description"`
		Category    string `json:"category,omitempty"`
		Parent      string `json:"parent_category,omitempty"`
		Type        string `json:"transaction_type"`
		Account     string `json:"account,omitempty"`
		Notes       string `json:"notes,omitempty"`
		Recurring   bool   `json:"is_recurring,omitempty"`
		RecurringID string `json:"recurring_id,omitempty"`
		ParentID    string `json:"parent_transaction_id,omitempty"`
	}

	transactionsResponse struct {
		Transactions []apiTransaction `json:"transactions"`
		Page         int              `json:"page,omitempty"`
		PageSize     int              `json:"page_size,omitempty"`
		TotalCount   int              `json:"total_count"`
		TotalPages   int              `json:"total_pages,omitempty"`
	}

	apiRule struct {
		Pattern        string `json:"pattern"`
		CategoryName   string `json:"category_name"`
		ParentCategory string `json:"parent_category,omitempty"`
		CaseSensitive  bool   `json:"case_sensitive,omitempty"`
	}

	apiSummary struct {
		Year              int                        `json:"year"`
		Month             int                        `json:"month"`
		TotalIncome       decimal.Decimal            `json:"total_income"`
		TotalExpenses     decimal.Decimal            `json:"total_expenses"`
		NetAmount         decimal.Decimal            `json:"net_amount"`
		TransactionCount  int                        `json:"transaction_count"`
		CategoryBreakdown map[string]decimal.Decimal `json:"category_breakdown"`
	}

	apiSpendingPattern struct {
		Category         string          `json:"category"`
		TotalAmount      decimal.Decimal `json:"total_amount"`
		TransactionCount int             `json:"transaction_count"`
		Average          decimal.Decimal `json:"average_amount"`
		Min              decimal.Decimal `json:"min_amount"`
		Max              decimal.Decimal `json:"max_amount"`
		PercentOfTotal   *float64        `json:"percent_of_total,omitempty"`
		Trend            string          `json:"trend,omitempty"`
	}

	apiRecurringPattern struct {
		ID                 string           `json:"id"`
		DescriptionPattern string           `json:"description_pattern"`
		Amount             decimal.Decimal  `json:"amount"`
		Frequency          string           `json:"frequency"`
		Confidence         float64          `json:"confidence"`
		Category           string           `json:"category,omitempty"`
		Account            string           `json:"account,omitempty"`
		LastSeen           string           `json:"last_seen"`
		NextExpected       string           `json:"next_expected,omitempty"`
		TransactionCount   int              `json:"transaction_count"`
		AmountVariance     *decimal.Decimal `json:"amount_variance,omitempty"`
	}

	apiBudgetStatus struct {
		CategoryName string          `json:"category_name"`
		HasBudget    bool            `json:"has_budget"`
		BudgetAmount decimal.Decimal `json:"budget_amount"`
		Spent        decimal.Decimal `json:"spent"`
		Remaining    decimal.Decimal `json:"remaining"`
		PercentSpent float64         `json:"percent_spent"`
		ShouldAlert  bool            `json:"should_alert"`
		OverBudget   bool            `json:"over_budget"`
	}

	apiBudgetAlert struct {
		Category string          `json:"category"`
		Message  string          `json:"message"`
		Spent    decimal.Decimal `json:"spent"`
		Budget   decimal.Decimal `json:"budget"`
	}

	dashboardPayload struct {
		Year          int                        `json:"year"`
		Month         int                        `json:"month"`
		Summary       apiSummary                 `json:"summary"`
		Breakdown     map[string]decimal.Decimal `json:"breakdown"`
		TopCategories []apiSpendingPattern       `json:"top_categories"`
		Recurring     []apiRecurringPattern      `json:"recurring"`
		Alerts        []apiBudgetAlert           `json:"alerts"`
	}
)

func toAPITransaction(t core.Transaction) apiTransaction {
	out := apiTransaction{
		ID:          t.ID,
		Date:        t.Date.Format("2006-01-02"),
		Amount:      t.Amount.String(),
		Description: t.Description,
		Type:        string(t.Type),
		Account:     t.Account,
		Notes:       t.Notes,
		Recurring:   t.Recurring,
		RecurringID: t.RecurringID,
		ParentID:    t.ParentID,
	}
	if t.Category != nil {
		out.Category = t.Category.Name
		out.Parent = t.Category.Parent
	}
	return out
}

func toAPISummary(s core.MonthlySummary) apiSummary {
	return apiSummary{
		Year:              s.Year,
		Month:             s.Month,
		TotalIncome:       s.TotalIncome,
		TotalExpenses:     s.TotalExpenses,
		NetAmount:         s.NetAmount,
		TransactionCount:  s.TransactionCount,
		CategoryBreakdown: s.CategoryBreakdown,
	}
}

func toAPISpendingPatterns(patterns []core.SpendingPattern) []apiSpendingPattern {
	out := make([]apiSpendingPattern, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, apiSpendingPattern{
			Category:         p.Category,
			TotalAmount:      p.TotalAmount,
			TransactionCount: p.TransactionCount,
			Average:          p.Average,
			Min:              p.Min,
			Max:              p.Max,
			PercentOfTotal:   p.PercentOfTotal,
			Trend:            string(p.Trend),
		})
	}
	return out
}

func toAPIRecurringPatterns(patterns []core.RecurringPattern) []apiRecurringPattern {
	out := make([]apiRecurringPattern, 0, len(patterns))
	for _, p := range patterns {
		entry := apiRecurringPattern{
			ID:                 p.ID,
			DescriptionPattern: p.DescriptionPattern,
			Amount:             p.Amount,
			Frequency:          string(p.Frequency),
			Confidence:         p.Confidence,
			Account:            p.Account,
			LastSeen:           p.LastSeen.Format("2006-01-02"),
			TransactionCount:   p.TransactionCount,
			AmountVariance:     p.AmountVariance,
		}
		if p.Category != nil {
			entry.Category = p.Category.Name
		}
		if p.NextExpected != nil {
			entry.NextExpected = p.NextExpected.Format("2006-01-02")
		}
		out = append(out, entry)
	}
	return out
}

func toAPIBudgetStatuses(statuses []budget.Status) []apiBudgetStatus {
	out := make([]apiBudgetStatus, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, apiBudgetStatus{
			CategoryName: st.CategoryName,
			HasBudget:    st.HasBudget,
			BudgetAmount: st.Budget.Amount,
			Spent:        st.Spent,
			Remaining:    st.Remaining,
			PercentSpent: st.PercentSpent,
			ShouldAlert:  st.ShouldAlert,
			OverBudget:   st.OverBudget,
		})
	}
	return out
}

func toAPIBudgetAlerts(alerts []budget.Alert) []apiBudgetAlert {
	out := make([]apiBudgetAlert, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, apiBudgetAlert{
			Category: a.Category,
			Message:  a.Message,
			Spent:    a.Spent,
			Budget:   a.Budget,
		})
	}
	return out
}

func searchQueryFromRequest(r *http.Request) (search.Query, bool) {
	q := r.URL.Query()
	var query search.Query
	present := false

	if v := strings.TrimSpace(q.Get("text")); v != "" {
		query.Text = v
		present = true
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		query.Category = v
		present = true
	}
	if v := strings.TrimSpace(q.Get("account")); v != "" {
		query.Account = v
		present = true
	}
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			query.DateFrom = d.UTC()
			present = true
		}
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			query.DateTo = d.UTC()
			present = true
		}
	}
	if v := strings.TrimSpace(q.Get("min")); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			query.AmountMin = &d
			present = true
		}
	}
	if v := strings.TrimSpace(q.Get("max")); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			query.AmountMax = &d
			present = true
		}
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		query.Type = core.TransactionType(v)
		present = true
	}
	if v := strings.TrimSpace(q.Get("recurring")); v == "true" || v == "1" {
		query.RecurringOnly = true
		present = true
	}

	return query, present
}

// handleTransactions lists the store one page at a time, or filters it when
// any search parameter is present.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	if query, ok := searchQueryFromRequest(r); ok {
		txns, err := s.svc.Search(r.Context(), query)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Search failed", log.FieldError, err)
			writeError(w, http.StatusInternalServerError, "search failed")
			return
		}
		out := make([]apiTransaction, 0, len(txns))
		for _, t := range txns {
			out = append(out, toAPITransaction(t))
		}
		writeJSON(w, http.StatusOK, transactionsResponse{Transactions: out, TotalCount: len(out)})
		return
	}

	page, err := s.svc.ListTransactions(r.Context(), queryInt(r, "page", "1"), queryInt(r, "page_size", "50"))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List transactions failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}

	out := make([]apiTransaction, 0, len(page.Transactions))
	for _, t := range page.Transactions {
		out = append(out, toAPITransaction(t))
	}
	writeJSON(w, http.StatusOK, transactionsResponse{
		Transactions: out,
		Page:         page.Page,
		PageSize:     page.PageSize,
		TotalCount:   page.TotalCount,
		TotalPages:   page.TotalPages,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	year, month := parseYearMonth(r)

	key := s.cacheKey(year, month)
	if cached, found := s.summaryCache.Get(key); found {
		writeJSON(w, http.StatusOK, toAPISummary(cached))
		return
	}

	summary, err := s.svc.MonthlySummary(r.Context(), year, month)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Monthly summary failed", log.FieldError, err,
			log.FieldYear, year, log.FieldMonth, month)
		writeError(w, http.StatusInternalServerError, "summary failed")
		return
	}
	s.summaryCache.Set(key, summary)
	writeJSON(w, http.StatusOK, toAPISummary(summary))
}

func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	summaries, err := s.svc.AllMonthlySummaries(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Monthly summaries failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "summaries failed")
		return
	}
	out := make([]apiSummary, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, toAPISummary(summary))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	year, month := parseYearMonth(r)
	breakdown, err := s.svc.CategoryBreakdown(r.Context(), year, month)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Category breakdown failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "breakdown failed")
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	patterns, err := s.svc.SpendingPatterns(r.Context(), strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Spending patterns failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "patterns failed")
		return
	}
	writeJSON(w, http.StatusOK, toAPISpendingPatterns(patterns))
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	patterns, err := s.svc.DetectRecurring(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Recurring detection failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "recurring detection failed")
		return
	}
	writeJSON(w, http.StatusOK, toAPIRecurringPatterns(patterns))
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	year, month := parseYearMonth(r)
	statuses, err := s.svc.AllBudgetStatuses(r.Context(), year, month)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Budget statuses failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "budget statuses failed")
		return
	}
	writeJSON(w, http.StatusOK, toAPIBudgetStatuses(statuses))
}

func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	year, month := parseYearMonth(r)
	alerts, err := s.svc.BudgetAlerts(r.Context(), year, month)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Budget alerts failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "budget alerts failed")
		return
	}
	writeJSON(w, http.StatusOK, toAPIBudgetAlerts(alerts))
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	active := s.svc.ListCategoryRules()
	out := make([]apiRule, 0, len(active))
	for _, rule := range active {
		out = append(out, apiRule{
			Pattern:        rule.Raw,
			CategoryName:   rule.CategoryName,
			ParentCategory: rule.ParentCategory,
			CaseSensitive:  rule.CaseSensitive,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.ListCategories())
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	accounts, err := s.svc.ListAccounts(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List accounts failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "accounts failed")
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// handleDashboard assembles the combined dashboard payload. The five
// sections are independent reads, so they run concurrently.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	year, month := parseYearMonth(r)

	key := s.cacheKey(year, month)
	if cached, found := s.dashboardCache.Get(key); found {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	payload := dashboardPayload{Year: year, Month: month}
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		summary, err := s.svc.MonthlySummary(ctx, year, month)
		payload.Summary = toAPISummary(summary)
		return err
	})
	g.Go(func() error {
		breakdown, err := s.svc.CategoryBreakdown(ctx, year, month)
		payload.Breakdown = breakdown
		return err
	})
	g.Go(func() error {
		top, err := s.svc.TopCategories(ctx, 5)
		payload.TopCategories = toAPISpendingPatterns(top)
		return err
	})
	g.Go(func() error {
		patterns, err := s.svc.DetectRecurring(ctx)
		payload.Recurring = toAPIRecurringPatterns(patterns)
		return err
	})
	g.Go(func() error {
		alerts, err := s.svc.BudgetAlerts(ctx, year, month)
		payload.Alerts = toAPIBudgetAlerts(alerts)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard assembly failed", log.FieldError, err,
			log.FieldYear, year, log.FieldMonth, month)
		writeError(w, http.StatusInternalServerError, "dashboard failed")
		return
	}

	s.dashboardCache.Set(key, payload)
	writeJSON(w, http.StatusOK, payload)
}
