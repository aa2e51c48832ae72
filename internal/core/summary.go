package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"

	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyIrregular Frequency = "irregular"
)

type (
	// Trend classifies how spending in a category has moved recently.
	Trend string

	// Frequency classifies the cadence of a recurring charge.
	Frequency string

	// MonthlySummary aggregates one calendar month. It is derived on demand
	// and never persisted as a source of truth.
	MonthlySummary struct {
		Year              int
		Month             int // 1-12
		TotalIncome       decimal.Decimal
		TotalExpenses     decimal.Decimal
		NetAmount         decimal.Decimal
		TransactionCount  int
		CategoryBreakdown map[string]decimal.Decimal
	}

	// SpendingPattern summarizes expense activity for one category.
	SpendingPattern struct {
		Category         string
		TotalAmount      decimal.Decimal
		TransactionCount int
		Average          decimal.Decimal
		Min              decimal.Decimal
		Max              decimal.Decimal
		PercentOfTotal   *float64
		Trend            Trend
	}

	// RecurringPattern is a detected group of transactions sharing a
	// normalized description and a regular interval. Purely derived.
	RecurringPattern struct {
		ID                 string
		DescriptionPattern string
		Amount             decimal.Decimal
		Frequency          Frequency
		Confidence         float64
		Category           *Category
		Account            string
		LastSeen           time.Time
		NextExpected       *time.Time
		TransactionCount   int
		AmountVariance     *decimal.Decimal
	}

	// Budget is a monthly spending limit for one category, keyed by
	// (category name, year, month). AlertThreshold is the fraction of the
	// budget at which the status starts alerting.
	Budget struct {
		CategoryName   string
		Year           int
		Month          int
		Amount         decimal.Decimal
		AlertThreshold decimal.Decimal
		Notes          string
	}
)

// SavingsRate returns net amount as a percentage of income. The second
// return is false when the month has no income and the rate is undefined.
func (s MonthlySummary) SavingsRate() (float64, bool) {
	if s.TotalIncome.IsZero() {
		return 0, false
	}
	rate, _ := s.NetAmount.Div(s.TotalIncome).Mul(decimal.NewFromInt(100)).Float64()
	return rate, true
}

func (b Budget) Validate() error {
	if b.CategoryName == "" {
		return ErrEmptyCategoryName
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Amount.IsNegative() {
		return ErrInvalidBudgetAmount
	}
	one := decimal.NewFromInt(1)
	if !b.AlertThreshold.IsPositive() || b.AlertThreshold.GreaterThan(one) {
		return ErrInvalidThreshold
	}
	return nil
}
