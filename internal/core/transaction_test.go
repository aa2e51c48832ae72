package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		txn     Transaction
		wantErr error
	}{
		{
			name: "valid debit",
			txn: Transaction{
				Date:        NewDate(2024, 1, 15),
				Amount:      decimal.RequireFromString("-50.00"),
				Description: "Grocery Store",
				Type:        Debit,
			},
		},
		{
			name: "zero amount",
			txn: Transaction{
				Date:        NewDate(2024, 1, 15),
				Description: "Grocery Store",
				Type:        Debit,
			},
			wantErr: ErrZeroAmount,
		},
		{
			name: "empty description",
			txn: Transaction{
				Date:   NewDate(2024, 1, 15),
				Amount: decimal.RequireFromString("-50.00"),
				Type:   Debit,
			},
			wantErr: ErrEmptyDescription,
		},
		{
			name: "bad type",
			txn: Transaction{
				Date:        NewDate(2024, 1, 15),
				Amount:      decimal.RequireFromString("-50.00"),
				Description: "Grocery Store",
				Type:        TransactionType("withdrawal"),
			},
			wantErr: ErrInvalidType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.txn.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestExpenseAndIncomeDirections(t *testing.T) {
	cases := []struct {
		name        string
		amount      string
		txnType     TransactionType
		wantExpense bool
		wantIncome  bool
	}{
		{name: "debit", amount: "-50", txnType: Debit, wantExpense: true},
		{name: "credit", amount: "2500", txnType: Credit, wantIncome: true},
		{name: "negative transfer", amount: "-100", txnType: Transfer, wantExpense: true},
		{name: "positive transfer", amount: "100", txnType: Transfer, wantIncome: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			txn := Transaction{Amount: decimal.RequireFromString(tc.amount), Type: tc.txnType}
			if got := txn.IsExpense(); got != tc.wantExpense {
				t.Fatalf("IsExpense() = %v, want %v", got, tc.wantExpense)
			}
			if got := txn.IsIncome(); got != tc.wantIncome {
				t.Fatalf("IsIncome() = %v, want %v", got, tc.wantIncome)
			}
		})
	}
}

func TestAbsAmount(t *testing.T) {
	txn := Transaction{Amount: decimal.RequireFromString("-52.40")}
	if !txn.AbsAmount().Equal(decimal.RequireFromString("52.40")) {
		t.Fatalf("AbsAmount() = %s, want 52.40", txn.AbsAmount())
	}
}

func TestCategoryEqual(t *testing.T) {
	a := Category{Name: "Groceries", Parent: "Food & Dining", Description: "supermarkets"}
	b := Category{Name: "Groceries", Parent: "Food & Dining"}
	c := Category{Name: "Groceries", Parent: "Shopping"}

	if !a.Equal(b) {
		t.Fatal("categories differing only in description should be equal")
	}
	if a.Equal(c) {
		t.Fatal("categories with different parents should not be equal")
	}
}

func TestSavingsRate(t *testing.T) {
	s := MonthlySummary{
		TotalIncome:   decimal.RequireFromString("3000"),
		TotalExpenses: decimal.RequireFromString("1800"),
		NetAmount:     decimal.RequireFromString("1200"),
	}
	rate, ok := s.SavingsRate()
	if !ok || rate != 40 {
		t.Fatalf("SavingsRate() = %v %v, want 40 true", rate, ok)
	}

	empty := MonthlySummary{}
	if _, ok := empty.SavingsRate(); ok {
		t.Fatal("SavingsRate() defined with zero income")
	}
}

func TestBudgetValidate(t *testing.T) {
	valid := Budget{
		CategoryName:   "Groceries",
		Year:           2024,
		Month:          6,
		Amount:         decimal.RequireFromString("400"),
		AlertThreshold: decimal.RequireFromString("0.8"),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}

	cases := []struct {
		name    string
		mutate  func(*Budget)
		wantErr error
	}{
		{name: "empty category", mutate: func(b *Budget) { b.CategoryName = "" }, wantErr: ErrEmptyCategoryName},
		{name: "month 13", mutate: func(b *Budget) { b.Month = 13 }, wantErr: ErrInvalidMonth},
		{name: "negative amount", mutate: func(b *Budget) { b.Amount = decimal.RequireFromString("-1") }, wantErr: ErrInvalidBudgetAmount},
		{name: "threshold above one", mutate: func(b *Budget) { b.AlertThreshold = decimal.RequireFromString("1.5") }, wantErr: ErrInvalidThreshold},
		{name: "threshold zero", mutate: func(b *Budget) { b.AlertThreshold = decimal.Zero }, wantErr: ErrInvalidThreshold},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := valid
			tc.mutate(&b)
			if err := b.Validate(); !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
