// Command fintrack is the command-line surface of the tracker: imports,
// edits, reports and budget management over the flat-file store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/search"
	"fintrack/internal/tracker"
)

const usage = `Usage: fintrack <command> [options]

Commands:
  import        import transactions from a CSV statement
  list          list stored transactions
  search        search stored transactions
  edit          edit one transaction
  bulk-edit     assign a category or notes across many transactions
  delete        delete transactions by ID
  split         split one transaction into parts
  merge         merge transactions into one
  summary       monthly or all-time summary
  breakdown     category breakdown for a month
  categories    top spending categories
  uncategorized list transactions without a category
  recategorize  re-run categorization rules over the store
  recurring     detect (and optionally mark) recurring charges
  budget        manage budgets (set, delete, status, alerts)
  rules         manage categorization rules (list, add, remove, test)
  accounts      list known accounts
  export        export the store to JSON or CSV
  stats         overall store statistics

Run 'fintrack <command> -h' for command options.`

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)
	svc := cli.InitService(cfg, logger)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "import":
		err = runImport(ctx, svc, args)
	case "list":
		err = runList(ctx, svc, args)
	case "search":
		err = runSearch(ctx, svc, args)
	case "edit":
		err = runEdit(ctx, svc, args)
	case "bulk-edit":
		err = runBulkEdit(ctx, svc, args)
	case "delete":
		err = runDelete(ctx, svc, args)
	case "split":
		err = runSplit(ctx, svc, args)
	case "merge":
		err = runMerge(ctx, svc, args)
	case "summary":
		err = runSummary(ctx, svc, args)
	case "breakdown":
		err = runBreakdown(ctx, svc, args)
	case "categories":
		err = runCategories(ctx, svc, args)
	case "uncategorized":
		err = runUncategorized(ctx, svc)
	case "recategorize":
		err = runRecategorize(ctx, svc, args)
	case "recurring":
		err = runRecurring(ctx, svc, args)
	case "budget":
		err = runBudget(ctx, svc, args)
	case "rules":
		err = runRules(ctx, svc, args)
	case "accounts":
		err = runAccounts(ctx, svc)
	case "export":
		err = runExport(ctx, svc, args)
	case "stats":
		err = runStats(ctx, svc)
	case "-h", "--help", "help":
		fmt.Println(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runImport(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	account := fs.String("account", "", "account identifier for imported transactions")
	force := fs.Bool("force", false, "keep duplicates instead of skipping them")
	noCategorize := fs.Bool("no-categorize", false, "skip automatic categorization")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: fintrack import [options] <file.csv>")
	}

	result, err := svc.ImportCSV(ctx, fs.Arg(0), tracker.ImportOptions{
		Account:        *account,
		Force:          *force,
		SkipCategorize: *noCategorize,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Detected format: %s\n", result.Format)
	fmt.Printf("Imported %d of %d transactions", result.Imported, result.Parsed)
	if result.DuplicatesSkipped > 0 {
		fmt.Printf(" (%d duplicates skipped)", result.DuplicatesSkipped)
	}
	fmt.Println()
	if !*noCategorize {
		fmt.Printf("Categorized %d transactions (%.1f%%)\n", result.Categorized, result.CategorizationRate)
	}
	for _, re := range result.RowFailures {
		fmt.Printf("  row %d skipped: %s\n", re.Row, re.Reason)
	}
	return nil
}

func runList(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", 25, "transactions per page")
	_ = fs.Parse(args)

	p, err := svc.ListTransactions(ctx, *page, *size)
	if err != nil {
		return err
	}
	printTransactions(p.Transactions)
	fmt.Printf("Page %d/%d (%d transactions total)\n", p.Page, p.TotalPages, p.TotalCount)
	return nil
}

func runSearch(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	text := fs.String("text", "", "match description or notes")
	category := fs.String("category", "", "category name")
	account := fs.String("account", "", "account")
	from := fs.String("from", "", "start date (YYYY-MM-DD)")
	to := fs.String("to", "", "end date (YYYY-MM-DD)")
	minAmount := fs.String("min", "", "minimum absolute amount")
	maxAmount := fs.String("max", "", "maximum absolute amount")
	txnType := fs.String("type", "", "transaction type (debit, credit, transfer)")
	recurringOnly := fs.Bool("recurring", false, "recurring transactions only")
	_ = fs.Parse(args)

	query := search.Query{
		Text:          *text,
		Category:      *category,
		Account:       *account,
		Type:          core.TransactionType(*txnType),
		RecurringOnly: *recurringOnly,
	}
	if *from != "" {
		d, err := time.Parse("2006-01-02", *from)
		if err != nil {
			return fmt.Errorf("parse -from: %w", err)
		}
		query.DateFrom = d.UTC()
	}
	if *to != "" {
		d, err := time.Parse("2006-01-02", *to)
		if err != nil {
			return fmt.Errorf("parse -to: %w", err)
		}
		query.DateTo = d.UTC()
	}
	if *minAmount != "" {
		d, err := decimal.NewFromString(*minAmount)
		if err != nil {
			return fmt.Errorf("parse -min: %w", err)
		}
		query.AmountMin = &d
	}
	if *maxAmount != "" {
		d, err := decimal.NewFromString(*maxAmount)
		if err != nil {
			return fmt.Errorf("parse -max: %w", err)
		}
		query.AmountMax = &d
	}

	txns, err := svc.Search(ctx, query)
	if err != nil {
		return err
	}
	printTransactions(txns)
	fmt.Printf("%d matching transactions\n", len(txns))
	return nil
}

func runEdit(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	description := fs.String("description", "", "new description")
	notes := fs.String("notes", "", "new notes")
	account := fs.String("account", "", "new account")
	amount := fs.String("amount", "", "new amount (negative for expenses)")
	date := fs.String("date", "", "new date (YYYY-MM-DD)")
	category := fs.String("category", "", "new category name")
	parent := fs.String("parent", "", "parent category for -category")
	clearCategory := fs.Bool("clear-category", false, "remove the category")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: fintrack edit [options] <transaction-id>")
	}

	var edit tracker.EditRequest
	if *description != "" {
		edit.Description = description
	}
	if *notes != "" {
		edit.Notes = notes
	}
	if *account != "" {
		edit.Account = account
	}
	if *amount != "" {
		amt, err := decimal.NewFromString(*amount)
		if err != nil {
			return fmt.Errorf("parse -amount: %w", err)
		}
		edit.Amount = &amt
	}
	if *date != "" {
		d, err := time.Parse("2006-01-02", *date)
		if err != nil {
			return fmt.Errorf("parse -date: %w", err)
		}
		d = d.UTC()
		edit.Date = &d
	}
	if *clearCategory {
		edit.ClearCategory = true
	} else if *category != "" {
		edit.Category = &core.Category{Name: *category, Parent: *parent}
	}

	txn, err := svc.EditTransaction(ctx, fs.Arg(0), edit)
	if err != nil {
		return err
	}
	fmt.Println("Updated:")
	printTransactions([]core.Transaction{txn})
	return nil
}

func runBulkEdit(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("bulk-edit", flag.ExitOnError)
	category := fs.String("category", "", "category to assign")
	parent := fs.String("parent", "", "parent category for -category")
	clearCategory := fs.Bool("clear-category", false, "remove the category")
	notes := fs.String("notes", "", "notes to append")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: fintrack bulk-edit [options] <transaction-id> [more-ids...]")
	}

	var edit tracker.BulkEditRequest
	if *clearCategory {
		edit.ClearCategory = true
	} else if *category != "" {
		edit.Category = &core.Category{Name: *category, Parent: *parent}
	}
	if *notes != "" {
		edit.Notes = notes
	}

	n, err := svc.BulkEdit(ctx, fs.Args(), edit)
	if err != nil {
		return err
	}
	fmt.Printf("Updated %d transactions\n", n)
	return nil
}

func runDelete(ctx context.Context, svc *tracker.Service, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fintrack delete <transaction-id> [more-ids...]")
	}
	n, err := svc.DeleteTransactions(ctx, args)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d transactions\n", n)
	return nil
}

// runSplit parses each part as AMOUNT:DESCRIPTION[:CATEGORY].
func runSplit(ctx context.Context, svc *tracker.Service, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: fintrack split <transaction-id> <amount:description[:category]> <amount:description[:category]> ...")
	}

	id := args[0]
	var parts []tracker.SplitPart
	for _, raw := range args[1:] {
		fields := strings.SplitN(raw, ":", 3)
		if len(fields) < 2 {
			return fmt.Errorf("part %q: want amount:description[:category]", raw)
		}
		amount, err := decimal.NewFromString(fields[0])
		if err != nil {
			return fmt.Errorf("part %q: %w", raw, err)
		}
		part := tracker.SplitPart{Amount: amount, Description: fields[1]}
		if len(fields) == 3 && fields[2] != "" {
			part.Category = &core.Category{Name: fields[2]}
		}
		parts = append(parts, part)
	}

	result, err := svc.SplitTransaction(ctx, id, parts)
	if err != nil {
		return err
	}
	fmt.Printf("Split %s (%s) into %d parts:\n", result.Original.Description,
		result.Original.Amount, len(result.Parts))
	printTransactions(result.Parts)
	return nil
}

func runMerge(ctx context.Context, svc *tracker.Service, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: fintrack merge <transaction-id> <transaction-id> [more-ids...]")
	}
	merged, err := svc.MergeTransactions(ctx, args)
	if err != nil {
		return err
	}
	fmt.Printf("Merged %d transactions:\n", len(args))
	printTransactions([]core.Transaction{merged})
	return nil
}

func runSummary(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	year := fs.Int("year", 0, "year (default all months)")
	month := fs.Int("month", 0, "month 1-12")
	_ = fs.Parse(args)

	if *year == 0 || *month == 0 {
		summaries, err := svc.AllMonthlySummaries(ctx)
		if err != nil {
			return err
		}
		for _, s := range summaries {
			fmt.Printf("%d-%02d  income %12s  expenses %12s  net %12s  (%d transactions)\n",
				s.Year, s.Month, s.TotalIncome.StringFixed(2), s.TotalExpenses.StringFixed(2),
				s.NetAmount.StringFixed(2), s.TransactionCount)
		}
		return nil
	}

	s, err := svc.MonthlySummary(ctx, *year, *month)
	if err != nil {
		return err
	}
	fmt.Printf("Summary for %d-%02d\n", s.Year, s.Month)
	fmt.Printf("Total Income:    $%s\n", s.TotalIncome.StringFixed(2))
	fmt.Printf("Total Expenses:  $%s\n", s.TotalExpenses.StringFixed(2))
	fmt.Printf("Net Amount:      $%s\n", s.NetAmount.StringFixed(2))
	if rate, ok := s.SavingsRate(); ok {
		fmt.Printf("Savings Rate:    %.1f%%\n", rate)
	}
	fmt.Printf("Transactions:    %d\n", s.TransactionCount)
	printBreakdown(s.CategoryBreakdown)
	return nil
}

func runBreakdown(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("breakdown", flag.ExitOnError)
	year := fs.Int("year", 0, "year (default all time)")
	month := fs.Int("month", 0, "month 1-12")
	_ = fs.Parse(args)

	breakdown, err := svc.CategoryBreakdown(ctx, *year, *month)
	if err != nil {
		return err
	}
	printBreakdown(breakdown)
	return nil
}

func runCategories(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	limit := fs.Int("limit", 10, "number of categories to show")
	_ = fs.Parse(args)

	top, err := svc.TopCategories(ctx, *limit)
	if err != nil {
		return err
	}
	for i, p := range top {
		fmt.Printf("%2d. %-25s $%12s  (%d transactions", i+1, p.Category,
			p.TotalAmount.StringFixed(2), p.TransactionCount)
		if p.PercentOfTotal != nil {
			fmt.Printf(", %.1f%% of spending", *p.PercentOfTotal)
		}
		if p.Trend != "" {
			fmt.Printf(", %s", p.Trend)
		}
		fmt.Println(")")
	}
	return nil
}

func runUncategorized(ctx context.Context, svc *tracker.Service) error {
	txns, err := svc.Search(ctx, search.Query{})
	if err != nil {
		return err
	}
	var uncategorized []core.Transaction
	for _, t := range txns {
		if t.Category == nil {
			uncategorized = append(uncategorized, t)
		}
	}
	printTransactions(uncategorized)
	fmt.Printf("%d uncategorized transactions\n", len(uncategorized))
	return nil
}

func runRecategorize(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("recategorize", flag.ExitOnError)
	overwrite := fs.Bool("overwrite", false, "replace existing categories when a rule matches")
	_ = fs.Parse(args)

	stats, err := svc.Recategorize(ctx, *overwrite)
	if err != nil {
		return err
	}
	fmt.Printf("Categorized %d of %d transactions (%.1f%%), %d newly assigned\n",
		stats.Categorized, stats.Total, stats.Rate(), stats.NewlyCategorized)
	return nil
}

func runRecurring(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("recurring", flag.ExitOnError)
	mark := fs.Bool("mark", false, "persist the recurring flag on matching transactions")
	_ = fs.Parse(args)

	var (
		patterns []core.RecurringPattern
		marked   int
		err      error
	)
	if *mark {
		patterns, marked, err = svc.MarkRecurring(ctx)
	} else {
		patterns, err = svc.DetectRecurring(ctx)
	}
	if err != nil {
		return err
	}

	for _, p := range patterns {
		fmt.Printf("%-30s %-10s $%10s  confidence %.2f  seen %d times, last %s",
			p.DescriptionPattern, p.Frequency, p.Amount.StringFixed(2),
			p.Confidence, p.TransactionCount, p.LastSeen.Format("2006-01-02"))
		if p.NextExpected != nil {
			fmt.Printf(", next ~%s", p.NextExpected.Format("2006-01-02"))
		}
		fmt.Println()
	}
	if *mark {
		fmt.Printf("Marked %d transactions as recurring\n", marked)
	}
	return nil
}

func runBudget(ctx context.Context, svc *tracker.Service, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fintrack budget <set|delete|status|alerts> [options]")
	}
	sub, rest := args[0], args[1:]

	fs := flag.NewFlagSet("budget "+sub, flag.ExitOnError)
	category := fs.String("category", "", "category name")
	year := fs.Int("year", time.Now().Year(), "year")
	month := fs.Int("month", int(time.Now().Month()), "month 1-12")
	amount := fs.String("amount", "", "budget amount (set only)")
	threshold := fs.String("threshold", "0.8", "alert threshold in (0,1] (set only)")
	notes := fs.String("notes", "", "budget notes (set only)")
	_ = fs.Parse(rest)

	switch sub {
	case "set":
		amt, err := decimal.NewFromString(*amount)
		if err != nil {
			return fmt.Errorf("parse -amount: %w", err)
		}
		thr, err := decimal.NewFromString(*threshold)
		if err != nil {
			return fmt.Errorf("parse -threshold: %w", err)
		}
		if err := svc.SetBudget(ctx, core.Budget{
			CategoryName:   *category,
			Year:           *year,
			Month:          *month,
			Amount:         amt,
			AlertThreshold: thr,
			Notes:          *notes,
		}); err != nil {
			return err
		}
		fmt.Printf("Budget set: %s %d-%02d $%s\n", *category, *year, *month, amt.StringFixed(2))
		return nil

	case "delete":
		if err := svc.DeleteBudget(ctx, *category, *year, *month); err != nil {
			return err
		}
		fmt.Printf("Budget deleted: %s %d-%02d\n", *category, *year, *month)
		return nil

	case "status":
		if *category != "" {
			status, err := svc.BudgetStatus(ctx, *category, *year, *month)
			if err != nil {
				return err
			}
			printBudgetStatus(status.CategoryName, status.HasBudget, status.Spent,
				status.Budget.Amount, status.PercentSpent, status.OverBudget)
			return nil
		}
		statuses, err := svc.AllBudgetStatuses(ctx, *year, *month)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			printBudgetStatus(s.CategoryName, s.HasBudget, s.Spent, s.Budget.Amount,
				s.PercentSpent, s.OverBudget)
		}
		return nil

	case "alerts":
		alerts, err := svc.BudgetAlerts(ctx, *year, *month)
		if err != nil {
			return err
		}
		if len(alerts) == 0 {
			fmt.Println("No budget alerts")
			return nil
		}
		for _, a := range alerts {
			fmt.Printf("%s: %s\n", a.Category, a.Message)
		}
		return nil

	default:
		return fmt.Errorf("unknown budget subcommand %q", sub)
	}
}

func runRules(ctx context.Context, svc *tracker.Service, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fintrack rules <list|add|remove|test> [options]")
	}
	sub, rest := args[0], args[1:]

	fs := flag.NewFlagSet("rules "+sub, flag.ExitOnError)
	pattern := fs.String("pattern", "", "regular expression")
	category := fs.String("category", "", "category name")
	parent := fs.String("parent", "", "parent category")
	caseSensitive := fs.Bool("case-sensitive", false, "match case sensitively")
	_ = fs.Parse(rest)

	switch sub {
	case "list":
		for i, r := range svc.ListCategoryRules() {
			fmt.Printf("%3d. %-40s -> %s", i+1, r.Raw, r.CategoryName)
			if r.ParentCategory != "" {
				fmt.Printf(" (%s)", r.ParentCategory)
			}
			fmt.Println()
		}
		return nil

	case "add":
		if *pattern == "" || *category == "" {
			return fmt.Errorf("rules add needs -pattern and -category")
		}
		if err := svc.AddCategoryRule(ctx, *pattern, *category, *parent, *caseSensitive); err != nil {
			return err
		}
		fmt.Printf("Rule added: %s -> %s\n", *pattern, *category)
		return nil

	case "remove":
		removed, err := svc.RemoveCategoryRule(ctx, *pattern, *category)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("no rule matching %q -> %q", *pattern, *category)
		}
		fmt.Println("Rule removed")
		return nil

	case "test":
		if *pattern == "" {
			return fmt.Errorf("rules test needs -pattern plus sample strings")
		}
		result := svc.TestCategoryRule(*pattern, *caseSensitive, fs.Args())
		if !result.Valid {
			return fmt.Errorf("invalid pattern: %s", result.Error)
		}
		for _, m := range result.Results {
			if m.Matched {
				fmt.Printf("MATCH    %q (matched %q)\n", m.Input, m.MatchedText)
			} else {
				fmt.Printf("no match %q\n", m.Input)
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown rules subcommand %q", sub)
	}
}

func runAccounts(ctx context.Context, svc *tracker.Service) error {
	accounts, err := svc.ListAccounts(ctx)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		fmt.Println(a)
	}
	return nil
}

func runExport(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "json", "export format: json or csv")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: fintrack export [-format json|csv] <output-file>")
	}

	path, err := svc.ExportTransactions(ctx, *format, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

func runStats(ctx context.Context, svc *tracker.Service) error {
	txns, err := svc.Search(ctx, search.Query{})
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		fmt.Println("No transactions stored")
		return nil
	}

	categorized := 0
	recurring := 0
	for _, t := range txns {
		if t.Category != nil {
			categorized++
		}
		if t.Recurring {
			recurring++
		}
	}
	fmt.Printf("Transactions:  %d\n", len(txns))
	fmt.Printf("Date range:    %s to %s\n",
		txns[0].Date.Format("2006-01-02"), txns[len(txns)-1].Date.Format("2006-01-02"))
	fmt.Printf("Categorized:   %d (%.1f%%)\n", categorized,
		100*float64(categorized)/float64(len(txns)))
	fmt.Printf("Recurring:     %d\n", recurring)
	fmt.Printf("Accounts:      %s\n", strings.Join(search.Accounts(txns), ", "))
	return nil
}

func printTransactions(txns []core.Transaction) {
	for _, t := range txns {
		category := t.CategoryName()
		if category == "" {
			category = "-"
		}
		fmt.Printf("%s  %s  %12s  %-25s  %s\n",
			t.ID, t.Date.Format("2006-01-02"), t.Amount.StringFixed(2), category, t.Description)
	}
}

func printBreakdown(breakdown map[string]decimal.Decimal) {
	if len(breakdown) == 0 {
		return
	}
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return breakdown[names[i]].GreaterThan(breakdown[names[j]])
	})
	fmt.Println("By category:")
	for _, name := range names {
		fmt.Printf("  %-25s $%12s\n", name, breakdown[name].StringFixed(2))
	}
}

func printBudgetStatus(category string, hasBudget bool, spent, budget decimal.Decimal, percent float64, over bool) {
	if !hasBudget {
		fmt.Printf("%-25s no budget (spent $%s)\n", category, spent.StringFixed(2))
		return
	}
	marker := ""
	if over {
		marker = "  OVER"
	}
	fmt.Printf("%-25s $%s / $%s (%.1f%%)%s\n", category,
		spent.StringFixed(2), budget.StringFixed(2), percent, marker)
}
