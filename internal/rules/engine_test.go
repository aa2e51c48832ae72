package rules

import "testing"

func TestCategorizeDefaults(t *testing.T) {
	e := NewEngine()

	cases := []struct {
		description string
		wantName    string
		wantParent  string
	}{
		{"GROCERY STORE #1234", "Groceries", "Food & Dining"},
		{"WHOLE FOODS MKT 10293", "Groceries", "Food & Dining"},
		{"STARBUCKS STORE 0441", "Coffee Shops", "Food & Dining"},
		{"UBER TRIP HELP.UBER.COM", "Rideshare", "Transportation"},
		{"SHELL OIL 57442", "Gas & Fuel", "Transportation"},
		{"NETFLIX.COM", "Streaming Services", "Entertainment"},
		{"DIRECT DEPOSIT ACME CORP", "Salary", "Income"},
		{"TRANSFER TO SAVINGS", "Transfers", "Transfers"},
		{"ATM WITHDRAWAL FEE", "Banking Fees", "Banking"},
		{"MARRIOTT DOWNTOWN", "Lodging", "Travel"},
	}

	for _, tc := range cases {
		got := e.Categorize(tc.description)
		if got == nil {
			t.Fatalf("Categorize(%q) = nil, want %s", tc.description, tc.wantName)
		}
		if got.Name != tc.wantName || got.Parent != tc.wantParent {
			t.Fatalf("Categorize(%q) = %s/%s, want %s/%s",
				tc.description, got.Parent, got.Name, tc.wantParent, tc.wantName)
		}
	}
}

func TestCategorizeNoMatch(t *testing.T) {
	e := NewEngine()
	if got := e.Categorize("XYZZY UNKNOWN MERCHANT"); got != nil {
		t.Fatalf("Categorize() = %v, want nil", got)
	}
}

func TestFirstMatchWins(t *testing.T) {
	e := NewEmptyEngine()
	if err := e.Add(`\bstore\b`, "First", "", false); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := e.Add(`\bgrocery\b`, "Second", "", false); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got := e.Categorize("GROCERY STORE")
	if got == nil || got.Name != "First" {
		t.Fatalf("Categorize() = %v, want First (rule order decides)", got)
	}
}

func TestInsertTakesPriority(t *testing.T) {
	e := NewEngine()
	if err := e.Insert(0, `\bgrocery\b`, "Bulk Food", "Food & Dining", false); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	got := e.Categorize("GROCERY STORE #1234")
	if got == nil || got.Name != "Bulk Food" {
		t.Fatalf("Categorize() after Insert(0) = %v, want Bulk Food", got)
	}
}

func TestCaseSensitivity(t *testing.T) {
	e := NewEmptyEngine()
	if err := e.Add(`ACME`, "Exact", "", true); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if got := e.Categorize("acme corp"); got != nil {
		t.Fatalf("case-sensitive rule matched %v on lowercase input", got)
	}
	if got := e.Categorize("ACME CORP"); got == nil || got.Name != "Exact" {
		t.Fatalf("case-sensitive rule missed uppercase input, got %v", got)
	}
}

func TestAddInvalidPattern(t *testing.T) {
	e := NewEmptyEngine()
	if err := e.Add(`(unclosed`, "Broken", "", false); err == nil {
		t.Fatal("Add() with invalid pattern expected error")
	}
	if e.Len() != 0 {
		t.Fatalf("engine length = %d after failed Add, want 0", e.Len())
	}
}

func TestRemove(t *testing.T) {
	e := NewEmptyEngine()
	if err := e.Add(`\bfoo\b`, "Foo", "", false); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !e.Remove(`\bfoo\b`, "Foo") {
		t.Fatal("Remove() = false, want true")
	}
	if e.Remove(`\bfoo\b`, "Foo") {
		t.Fatal("second Remove() = true, want false")
	}
	if got := e.Categorize("foo"); got != nil {
		t.Fatalf("Categorize() after Remove = %v, want nil", got)
	}
}

func TestDefaultRuleCount(t *testing.T) {
	if n := NewEngine().Len(); n < 50 {
		t.Fatalf("default rule count = %d, want at least 50", n)
	}
}

func TestEnginesAreIndependent(t *testing.T) {
	a := NewEngine()
	b := NewEngine()
	if err := a.Add(`\bzzz\b`, "Zzz", "", false); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if a.Len() == b.Len() {
		t.Fatal("mutating one engine changed another")
	}
}

func TestTestPattern(t *testing.T) {
	result := TestPattern(`\b(grocery|supermarket)\b`, false, []string{"GROCERY STORE", "gas station"})
	if !result.Valid {
		t.Fatalf("TestPattern() invalid: %s", result.Error)
	}
	if len(result.Results) != 2 {
		t.Fatalf("TestPattern() results = %d, want 2", len(result.Results))
	}
	if !result.Results[0].Matched || result.Results[0].MatchedText != "GROCERY" {
		t.Fatalf("first sample = %+v, want match on GROCERY", result.Results[0])
	}
	if result.Results[1].Matched {
		t.Fatalf("second sample matched, want no match")
	}

	bad := TestPattern(`(unclosed`, false, nil)
	if bad.Valid {
		t.Fatal("TestPattern() with invalid pattern reported valid")
	}
	if bad.Error == "" {
		t.Fatal("TestPattern() with invalid pattern has empty Error")
	}
}

func TestCategoriesGrouping(t *testing.T) {
	cats := NewEngine().Categories()
	food, ok := cats["Food & Dining"]
	if !ok {
		t.Fatal("Categories() missing Food & Dining group")
	}
	found := false
	for _, name := range food {
		if name == "Groceries" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Food & Dining group = %v, want to contain Groceries", food)
	}
}
