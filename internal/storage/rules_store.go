package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"fintrack/internal/log"
)

type (
	// StoredRule is a custom categorization rule as persisted: the raw
	// pattern text, not the compiled form, so the file stays editable.
	StoredRule struct {
		Pattern        string `json:"pattern"`
		CategoryName   string `json:"category_name"`
		ParentCategory string `json:"parent_category,omitempty"`
		CaseSensitive  bool   `json:"case_sensitive,omitempty"`
	}

	// RulesStore persists user-added rules in custom_rules.json. Defaults
	// never land here; the file holds only what the user added.
	RulesStore struct {
		mu     sync.Mutex
		path   string
		logger *log.Logger
	}

	rulesFile struct {
		Rules []StoredRule `json:"rules"`
	}
)

func NewRulesStore(dataDir string, logger *log.Logger) (*RulesStore, error) {
	if err := ensureDir(dataDir); err != nil {
		return nil, err
	}
	return &RulesStore{
		path:   filepath.Join(dataDir, "custom_rules.json"),
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

// Load returns the stored custom rules in the order they were added.
func (s *RulesStore) Load(ctx context.Context) ([]StoredRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var file rulesFile
	if err := readFileJSON(s.path, &file); err != nil {
		return nil, fmt.Errorf("load custom rules: %w", err)
	}
	return file.Rules, nil
}

// Add appends a rule to the store.
func (s *RulesStore) Add(ctx context.Context, rule StoredRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var file rulesFile
	if err := readFileJSON(s.path, &file); err != nil {
		return fmt.Errorf("load custom rules: %w", err)
	}
	file.Rules = append(file.Rules, rule)
	if err := writeFileAtomic(s.path, file); err != nil {
		return fmt.Errorf("save custom rules: %w", err)
	}
	s.logger.InfoContext(ctx, "Custom rule added", log.FieldCategory, rule.CategoryName)
	return nil
}

// Remove deletes the first stored rule matching pattern and category. It
// reports whether a rule was removed.
func (s *RulesStore) Remove(ctx context.Context, pattern, categoryName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var file rulesFile
	if err := readFileJSON(s.path, &file); err != nil {
		return false, fmt.Errorf("load custom rules: %w", err)
	}
	for i, r := range file.Rules {
		if r.Pattern == pattern && r.CategoryName == categoryName {
			file.Rules = append(file.Rules[:i], file.Rules[i+1:]...)
			if err := writeFileAtomic(s.path, file); err != nil {
				return false, fmt.Errorf("save custom rules: %w", err)
			}
			s.logger.InfoContext(ctx, "Custom rule removed", log.FieldCategory, categoryName)
			return true, nil
		}
	}
	return false, nil
}
