// Package csvparse reads bank-statement CSV exports. It detects which of the
// three supported layouts a file uses from its header row and converts rows
// into domain transactions, collecting per-row failures instead of aborting
// the whole file.
package csvparse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	// FormatStandard is Date, Description, Amount and an optional Balance.
	FormatStandard Format = "standard"
	// FormatAlternative is Transaction Date, Post Date, Description,
	// Category, Type, Amount.
	FormatAlternative Format = "alternative"
	// FormatDebitCredit is Date, Description, Debit, Credit and an optional
	// Balance, with amounts split across the debit and credit columns.
	FormatDebitCredit Format = "debit_credit"
)

type (
	// Format identifies one of the supported CSV layouts.
	Format string

	// RowError records a single row that could not be converted. Row is the
	// 1-based line number in the file, counting the header as row 1.
	RowError struct {
		Row    int
		Reason string
	}

	// Result is the outcome of parsing one file. Transactions holds every
	// row that converted cleanly, RowErrors every row that did not.
	Result struct {
		Format       Format
		Transactions []core.Transaction
		RowErrors    []RowError
	}

	// Parser converts statement CSVs into transactions. The zero value is
	// usable; Account is attached to every parsed transaction.
	Parser struct {
		Account string
	}
)

var (
	ErrUnsupportedFormat = errors.New("unsupported CSV format")
	ErrNoHeaders         = errors.New("CSV file has no headers")
)

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

func NewParser(account string) *Parser {
	return &Parser{Account: account}
}

// Detect determines the layout from a header row. Detection is ordered:
// alternative first, then debit/credit, then standard, so files carrying
// both a type column and an amount column resolve to the richer layout.
func Detect(headers []string) (Format, error) {
	set := make(map[string]bool, len(headers))
	for _, h := range headers {
		set[strings.ToLower(strings.TrimSpace(h))] = true
	}
	switch {
	case set["transaction date"] && set["type"]:
		return FormatAlternative, nil
	case set["debit"] && set["credit"]:
		return FormatDebitCredit, nil
	case set["date"] && set["amount"] && set["description"]:
		return FormatStandard, nil
	}
	return "", ErrUnsupportedFormat
}

// ParseFile opens and parses a statement file.
func (p *Parser) ParseFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open CSV file: %w", err)
	}
	defer f.Close()
	return p.Parse(f)
}

// Parse reads the header, detects the layout and converts every data row.
// A malformed or unsupported header fails the whole call; individual bad
// rows are reported in Result.RowErrors and do not stop parsing.
func (p *Parser) Parse(r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	headers, err := cr.Read()
	if err == io.EOF {
		return Result{}, ErrNoHeaders
	}
	if err != nil {
		return Result{}, fmt.Errorf("read CSV headers: %w", err)
	}

	format, err := Detect(headers)
	if err != nil {
		return Result{}, err
	}

	cols := make(map[string]int, len(headers))
	for i, h := range headers {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	result := Result{Format: format}
	for rowNum := 2; ; rowNum++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.RowErrors = append(result.RowErrors, RowError{Row: rowNum, Reason: err.Error()})
			continue
		}

		row := rowReader{cols: cols, record: record}
		if row.blank() {
			continue
		}

		var (
			txn core.Transaction
			ok  bool
		)
		switch format {
		case FormatStandard:
			txn, ok, err = p.standardRow(row)
		case FormatAlternative:
			txn, ok, err = p.alternativeRow(row)
		case FormatDebitCredit:
			txn, ok, err = p.debitCreditRow(row)
		}
		if err != nil {
			result.RowErrors = append(result.RowErrors, RowError{Row: rowNum, Reason: err.Error()})
			continue
		}
		if ok {
			result.Transactions = append(result.Transactions, txn)
		}
	}
	return result, nil
}

func (p *Parser) standardRow(row rowReader) (core.Transaction, bool, error) {
	dateStr := row.get("date")
	if dateStr == "" {
		return core.Transaction{}, false, nil
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return core.Transaction{}, false, err
	}

	description := row.get("description")
	if description == "" {
		return core.Transaction{}, false, errors.New("missing description")
	}

	amount, err := parseAmount(row.get("amount"))
	if err != nil {
		return core.Transaction{}, false, err
	}
	if amount.IsZero() {
		return core.Transaction{}, false, nil
	}

	balance, err := optionalAmount(row.get("balance"))
	if err != nil {
		return core.Transaction{}, false, err
	}

	return core.Transaction{
		Date:        date,
		Amount:      amount,
		Description: description,
		Type:        core.TypeFromAmount(amount),
		Account:     p.Account,
		Balance:     balance,
	}, true, nil
}

func (p *Parser) alternativeRow(row rowReader) (core.Transaction, bool, error) {
	dateStr := row.get("transaction date")
	if dateStr == "" {
		dateStr = row.get("post date")
	}
	if dateStr == "" {
		return core.Transaction{}, false, nil
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return core.Transaction{}, false, err
	}

	description := row.get("description")
	if description == "" {
		return core.Transaction{}, false, errors.New("missing description")
	}

	amount, err := parseAmount(row.get("amount"))
	if err != nil {
		return core.Transaction{}, false, err
	}
	if amount.IsZero() {
		return core.Transaction{}, false, nil
	}

	var txnType core.TransactionType
	switch strings.ToLower(row.get("type")) {
	case "credit":
		txnType = core.Credit
	case "debit":
		txnType = core.Debit
	case "transfer":
		txnType = core.Transfer
	default:
		txnType = core.TypeFromAmount(amount)
	}

	var category *core.Category
	if name := row.get("category"); name != "" {
		category = &core.Category{Name: name}
	}

	return core.Transaction{
		Date:        date,
		Amount:      amount,
		Description: description,
		Category:    category,
		Type:        txnType,
		Account:     p.Account,
	}, true, nil
}

func (p *Parser) debitCreditRow(row rowReader) (core.Transaction, bool, error) {
	dateStr := row.get("date")
	if dateStr == "" {
		return core.Transaction{}, false, nil
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return core.Transaction{}, false, err
	}

	description := row.get("description")
	if description == "" {
		return core.Transaction{}, false, errors.New("missing description")
	}

	debit, err := parseAmount(row.get("debit"))
	if err != nil {
		return core.Transaction{}, false, err
	}
	credit, err := parseAmount(row.get("credit"))
	if err != nil {
		return core.Transaction{}, false, err
	}

	var (
		amount  decimal.Decimal
		txnType core.TransactionType
	)
	switch {
	case debit.IsPositive() && credit.IsPositive():
		return core.Transaction{}, false, errors.New("both debit and credit are set")
	case debit.IsPositive():
		amount = debit.Neg()
		txnType = core.Debit
	case credit.IsPositive():
		amount = credit
		txnType = core.Credit
	default:
		return core.Transaction{}, false, nil
	}

	balance, err := optionalAmount(row.get("balance"))
	if err != nil {
		return core.Transaction{}, false, err
	}

	return core.Transaction{
		Date:        date,
		Amount:      amount,
		Description: description,
		Type:        txnType,
		Account:     p.Account,
		Balance:     balance,
	}, true, nil
}

type rowReader struct {
	cols   map[string]int
	record []string
}

func (r rowReader) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r rowReader) blank() bool {
	for _, field := range r.record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

var dateLayouts = []string{"2006-01-02", "01/02/2006", "02/01/2006"}

// parseDate accepts ISO dates, then US month-first, then European day-first.
// The result is a date-only UTC timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q", s)
}

// parseAmount strips currency symbols, grouping commas and spaces before
// parsing. An empty string parses as zero.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	replacer := strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "")
	cleaned := replacer.Replace(s)
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unable to parse amount %q", s)
	}
	return amount, nil
}

func optionalAmount(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	amount, err := parseAmount(s)
	if err != nil {
		return nil, err
	}
	return &amount, nil
}
