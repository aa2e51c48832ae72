// Package rules implements ordered, regex-based transaction categorization.
// Rules are checked in order and the first match wins, so earlier rules take
// priority over later ones. Custom rules appended after the defaults only
// fire when no default rule matches.
package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"fintrack/internal/core"
)

type (
	// Rule matches transaction descriptions against a compiled pattern and
	// assigns a category on match. Raw keeps the pattern as written so rules
	// can be persisted and re-compiled.
	Rule struct {
		Pattern        *regexp.Regexp
		Raw            string
		CategoryName   string
		ParentCategory string
		CaseSensitive  bool
	}

	// Engine holds an ordered rule list. It is not safe for concurrent
	// mutation; callers that share an engine guard it themselves.
	Engine struct {
		rules []Rule
	}

	// PatternMatch is the outcome of testing one sample string.
	PatternMatch struct {
		Input       string
		Matched     bool
		MatchedText string
	}

	// TestResult reports whether a candidate pattern compiles and how it
	// behaves against sample strings.
	TestResult struct {
		Valid   bool
		Error   string
		Results []PatternMatch
	}
)

// NewEngine returns an engine preloaded with the default rule set. Each call
// builds fresh state so mutations on one engine never leak into another.
func NewEngine() *Engine {
	e := &Engine{rules: make([]Rule, 0, len(defaultRules))}
	for _, d := range defaultRules {
		e.rules = append(e.rules, Rule{
			Pattern:        regexp.MustCompile(d.pattern),
			Raw:            d.pattern,
			CategoryName:   d.category,
			ParentCategory: d.parent,
		})
	}
	return e
}

// NewEmptyEngine returns an engine with no rules.
func NewEmptyEngine() *Engine {
	return &Engine{}
}

func compile(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	src := pattern
	if !caseSensitive && !strings.HasPrefix(src, "(?i)") {
		src = "(?i)" + src
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile rule pattern: %w", err)
	}
	return re, nil
}

// Add compiles and appends a rule. Case-insensitive rules are compiled with
// an (?i) prefix.
func (e *Engine) Add(pattern, categoryName, parentCategory string, caseSensitive bool) error {
	re, err := compile(pattern, caseSensitive)
	if err != nil {
		return err
	}
	e.rules = append(e.rules, Rule{
		Pattern:        re,
		Raw:            pattern,
		CategoryName:   categoryName,
		ParentCategory: parentCategory,
		CaseSensitive:  caseSensitive,
	})
	return nil
}

// Insert compiles a rule and places it at index, shifting later rules down.
// An index past the end appends.
func (e *Engine) Insert(index int, pattern, categoryName, parentCategory string, caseSensitive bool) error {
	re, err := compile(pattern, caseSensitive)
	if err != nil {
		return err
	}
	if index < 0 {
		index = 0
	}
	if index > len(e.rules) {
		index = len(e.rules)
	}
	rule := Rule{
		Pattern:        re,
		Raw:            pattern,
		CategoryName:   categoryName,
		ParentCategory: parentCategory,
		CaseSensitive:  caseSensitive,
	}
	e.rules = append(e.rules[:index], append([]Rule{rule}, e.rules[index:]...)...)
	return nil
}

// Remove deletes the first rule whose raw pattern and category both match.
// It reports whether a rule was removed.
func (e *Engine) Remove(pattern, categoryName string) bool {
	for i, r := range e.rules {
		if r.Raw == pattern && r.CategoryName == categoryName {
			e.rules = append(e.rules[:i], e.rules[i+1:]...)
			return true
		}
	}
	return false
}

// Categorize returns the category of the first matching rule, or nil when no
// rule matches.
func (e *Engine) Categorize(description string) *core.Category {
	description = strings.TrimSpace(description)
	for _, r := range e.rules {
		if r.Pattern.MatchString(description) {
			return &core.Category{Name: r.CategoryName, Parent: r.ParentCategory}
		}
	}
	return nil
}

// Rules returns a copy of the rule list in priority order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Len reports the number of rules.
func (e *Engine) Len() int {
	return len(e.rules)
}

// Categories returns every known category name grouped by parent, each group
// sorted. Rules without a parent group under "Other".
func (e *Engine) Categories() map[string][]string {
	grouped := make(map[string]map[string]bool)
	for _, r := range e.rules {
		parent := r.ParentCategory
		if parent == "" {
			parent = "Other"
		}
		if grouped[parent] == nil {
			grouped[parent] = make(map[string]bool)
		}
		grouped[parent][r.CategoryName] = true
	}

	out := make(map[string][]string, len(grouped))
	for parent, names := range grouped {
		list := make([]string, 0, len(names))
		for name := range names {
			list = append(list, name)
		}
		sort.Strings(list)
		out[parent] = list
	}
	return out
}

// TestPattern compiles a candidate pattern and runs it against sample
// strings without touching the engine's rule list.
func TestPattern(pattern string, caseSensitive bool, samples []string) TestResult {
	re, err := compile(pattern, caseSensitive)
	if err != nil {
		return TestResult{Valid: false, Error: err.Error()}
	}

	result := TestResult{Valid: true, Results: make([]PatternMatch, 0, len(samples))}
	for _, s := range samples {
		match := PatternMatch{Input: s}
		if re.MatchString(s) {
			match.Matched = true
			match.MatchedText = re.FindString(s)
		}
		result.Results = append(result.Results, match)
	}
	return result
}
