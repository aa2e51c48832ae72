package csvparse

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name    string
		headers []string
		want    Format
		wantErr error
	}{
		{
			name:    "standard",
			headers: []string{"Date", "Description", "Amount", "Balance"},
			want:    FormatStandard,
		},
		{
			name:    "alternative",
			headers: []string{"Transaction Date", "Post Date", "Description", "Category", "Type", "Amount"},
			want:    FormatAlternative,
		},
		{
			name:    "debit credit",
			headers: []string{"Date", "Description", "Debit", "Credit", "Balance"},
			want:    FormatDebitCredit,
		},
		{
			name:    "alternative wins over standard",
			headers: []string{"Transaction Date", "Type", "Date", "Amount", "Description"},
			want:    FormatAlternative,
		},
		{
			name:    "case and spacing insensitive",
			headers: []string{" DATE ", "description", "AMOUNT"},
			want:    FormatStandard,
		},
		{
			name:    "unknown headers",
			headers: []string{"Foo", "Bar"},
			wantErr: ErrUnsupportedFormat,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Detect(tc.headers)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Detect() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("Detect() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseStandard(t *testing.T) {
	input := strings.Join([]string{
		"Date,Description,Amount,Balance",
		"2024-01-15,COFFEE SHOP,-4.50,995.50",
		"01/20/2024,PAYCHECK,\"$2,500.00\",3495.50",
		",,,",
		"2024-01-22,FEE REVERSAL,0.00,3495.50",
	}, "\n")

	p := NewParser("checking")
	result, err := p.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.RowErrors) != 0 {
		t.Fatalf("Parse() row errors = %v, want none", result.RowErrors)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("Parse() transactions = %d, want 2 (blank and zero rows skipped)", len(result.Transactions))
	}

	coffee := result.Transactions[0]
	if !coffee.Amount.Equal(decimal.RequireFromString("-4.50")) {
		t.Fatalf("coffee amount = %s, want -4.50", coffee.Amount)
	}
	if coffee.Type != core.Debit {
		t.Fatalf("coffee type = %q, want debit", coffee.Type)
	}
	if coffee.Account != "checking" {
		t.Fatalf("coffee account = %q, want checking", coffee.Account)
	}
	if coffee.Balance == nil || !coffee.Balance.Equal(decimal.RequireFromString("995.50")) {
		t.Fatalf("coffee balance = %v, want 995.50", coffee.Balance)
	}

	pay := result.Transactions[1]
	if !pay.Amount.Equal(decimal.RequireFromString("2500.00")) {
		t.Fatalf("paycheck amount = %s, want 2500.00", pay.Amount)
	}
	if pay.Type != core.Credit {
		t.Fatalf("paycheck type = %q, want credit", pay.Type)
	}
	if pay.Date != core.NewDate(2024, 1, 20) {
		t.Fatalf("paycheck date = %v, want 2024-01-20", pay.Date)
	}
}

func TestParseAlternative(t *testing.T) {
	input := strings.Join([]string{
		"Transaction Date,Post Date,Description,Category,Type,Amount",
		"2024-02-01,2024-02-02,NETFLIX.COM,Entertainment,debit,-15.99",
		",2024-02-03,INTEREST PAYMENT,,credit,1.25",
		"2024-02-05,2024-02-05,SAVINGS MOVE,,transfer,-200.00",
		"2024-02-06,2024-02-06,MYSTERY,,bogus,42.00",
	}, "\n")

	p := NewParser("")
	result, err := p.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.Transactions) != 4 {
		t.Fatalf("Parse() transactions = %d, want 4", len(result.Transactions))
	}

	netflix := result.Transactions[0]
	if netflix.Category == nil || netflix.Category.Name != "Entertainment" {
		t.Fatalf("netflix category = %v, want Entertainment", netflix.Category)
	}

	interest := result.Transactions[1]
	if interest.Date != core.NewDate(2024, 2, 3) {
		t.Fatalf("interest date = %v, want post date fallback 2024-02-03", interest.Date)
	}

	move := result.Transactions[2]
	if move.Type != core.Transfer {
		t.Fatalf("transfer type = %q, want transfer", move.Type)
	}
	if !move.IsExpense() || move.IsIncome() {
		t.Fatalf("negative transfer should count as expense only")
	}

	mystery := result.Transactions[3]
	if mystery.Type != core.Credit {
		t.Fatalf("unknown type with positive amount = %q, want inferred credit", mystery.Type)
	}
}

func TestParseDebitCredit(t *testing.T) {
	input := strings.Join([]string{
		"Date,Description,Debit,Credit,Balance",
		"2024-03-01,GAS STATION,45.00,,955.00",
		"2024-03-02,REFUND,,12.50,967.50",
		"2024-03-03,BROKEN ROW,10.00,10.00,",
		"2024-03-04,NO AMOUNTS,,,967.50",
	}, "\n")

	p := NewParser("card")
	result, err := p.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("Parse() transactions = %d, want 2", len(result.Transactions))
	}

	gas := result.Transactions[0]
	if !gas.Amount.Equal(decimal.RequireFromString("-45.00")) {
		t.Fatalf("debit amount = %s, want -45.00", gas.Amount)
	}
	refund := result.Transactions[1]
	if !refund.Amount.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("credit amount = %s, want 12.50", refund.Amount)
	}

	if len(result.RowErrors) != 1 {
		t.Fatalf("Parse() row errors = %v, want exactly the both-set row", result.RowErrors)
	}
	if result.RowErrors[0].Row != 4 {
		t.Fatalf("row error row = %d, want 4", result.RowErrors[0].Row)
	}
}

func TestParseRowIsolation(t *testing.T) {
	input := strings.Join([]string{
		"Date,Description,Amount",
		"2024-04-01,GOOD ROW,-10.00",
		"2024-04-02,,-5.00",
		"not-a-date,BAD DATE,-5.00",
		"2024-04-03,ALSO GOOD,-7.25",
	}, "\n")

	p := NewParser("")
	result, err := p.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("Parse() transactions = %d, want 2", len(result.Transactions))
	}
	if len(result.RowErrors) != 2 {
		t.Fatalf("Parse() row errors = %d, want 2", len(result.RowErrors))
	}
	if result.RowErrors[0].Row != 3 || result.RowErrors[1].Row != 4 {
		t.Fatalf("row error rows = %d, %d, want 3 and 4", result.RowErrors[0].Row, result.RowErrors[1].Row)
	}
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := NewParser("").Parse(strings.NewReader("Foo,Bar\n1,2\n"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Parse() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParseEmptyFile(t *testing.T) {
	_, err := NewParser("").Parse(strings.NewReader(""))
	if !errors.Is(err, ErrNoHeaders) {
		t.Fatalf("Parse() error = %v, want ErrNoHeaders", err)
	}
}

func TestParseDateFormats(t *testing.T) {
	cases := []struct {
		in      string
		want    [3]int
		wantErr bool
	}{
		{in: "2024-06-15", want: [3]int{2024, 6, 15}},
		{in: "06/15/2024", want: [3]int{2024, 6, 15}},
		{in: "25/06/2024", want: [3]int{2024, 6, 25}},
		{in: "06/07/2024", want: [3]int{2024, 6, 7}}, // ambiguous, month-first wins
		{in: "June 15 2024", wantErr: true},
	}

	for _, tc := range cases {
		got, err := parseDate(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseDate(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseDate(%q) error = %v", tc.in, err)
		}
		if got != core.NewDate(tc.want[0], tc.want[1], tc.want[2]) {
			t.Fatalf("parseDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseAmountFormats(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "-4.50", want: "-4.50"},
		{in: "$1,234.56", want: "1234.56"},
		{in: "€ 99,00", wantErr: false, want: "9900"},
		{in: "£20", want: "20"},
		{in: "", want: "0"},
		{in: "abc", wantErr: true},
	}

	for _, tc := range cases {
		got, err := parseAmount(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseAmount(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseAmount(%q) error = %v", tc.in, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("parseAmount(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
