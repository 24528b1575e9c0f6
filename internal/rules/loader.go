package rules

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Pack is the YAML rule-pack document shape.
type Pack struct {
	Rules []PackRule `yaml:"rules"`
}

// PackRule is one rule in a pack. Enabled defaults to true when omitted;
// Type defaults to security and Priority to 1.
type PackRule struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Type        Type    `yaml:"rule_type"`
	Priority    *int    `yaml:"priority"`
	Enabled     *bool   `yaml:"enabled"`
	Conditions  Node    `yaml:"conditions"`
	Actions     Actions `yaml:"actions"`
}

// ImportResult reports a pack import: rules written and per-rule failures
// that did not abort the rest of the pack.
type ImportResult struct {
	Imported int      `json:"imported_count"`
	Errors   []string `json:"errors,omitempty"`
}

// Loader reads YAML rule packs, validates them, and writes them to a rule
// store. Pack files are the operator-facing rule format; the database
// remains the source of truth for evaluation.
type Loader struct {
	store  Store
	logger *slog.Logger
}

// NewLoader creates a rule-pack loader.
func NewLoader(store Store, logger *slog.Logger) *Loader {
	return &Loader{
		store:  store,
		logger: logger.With("system", "rules"),
	}
}

// LoadFile parses and validates a rule-pack file without touching the
// store. Duplicate names within one pack are an error: the pack is the
// unit of review, and a silently shadowed rule is worse than a rejected
// file.
func (l *Loader) LoadFile(path string) ([]*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule pack: %w", err)
	}

	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse rule pack %s: %w", path, err)
	}
	if len(pack.Rules) == 0 {
		return nil, fmt.Errorf("rule pack %s contains no rules", path)
	}

	seen := make(map[string]bool, len(pack.Rules))
	rules := make([]*Rule, 0, len(pack.Rules))
	var errs []error

	for i, pr := range pack.Rules {
		if pr.Name == "" {
			errs = append(errs, fmt.Errorf("rule %d: missing name", i+1))
			continue
		}
		if seen[pr.Name] {
			errs = append(errs, fmt.Errorf("duplicate rule name %q", pr.Name))
			continue
		}
		seen[pr.Name] = true

		rule := pr.rule()
		if err := ValidateRule(rule); err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, rule)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("rule pack %s: %w", path, errors.Join(errs...))
	}
	return rules, nil
}

// Import loads a pack file and upserts its rules by name. Per-rule store
// failures are collected so one bad write does not discard the rest of
// the pack.
func (l *Loader) Import(ctx context.Context, path string) (ImportResult, error) {
	rules, err := l.LoadFile(path)
	if err != nil {
		return ImportResult{}, err
	}

	var result ImportResult
	for _, rule := range rules {
		if _, err := l.store.Upsert(ctx, rule); err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Imported++
	}

	l.logger.Info("rule pack imported",
		"path", path, "imported", result.Imported, "errors", len(result.Errors))
	return result, nil
}

// Export writes the enabled rules of one type (or all, when ruleType is
// empty) as a YAML pack.
func (l *Loader) Export(ctx context.Context, w io.Writer, ruleType Type) error {
	rules, err := l.store.List(ctx, ruleType)
	if err != nil {
		return fmt.Errorf("export rules: %w", err)
	}

	pack := Pack{Rules: make([]PackRule, 0, len(rules))}
	for _, r := range rules {
		priority := r.Priority
		enabled := r.Enabled
		pack.Rules = append(pack.Rules, PackRule{
			Name:        r.Name,
			Description: r.Description,
			Type:        r.Type,
			Priority:    &priority,
			Enabled:     &enabled,
			Conditions:  r.Conditions,
			Actions:     r.Actions,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(pack); err != nil {
		return fmt.Errorf("encode rule pack: %w", err)
	}
	return enc.Close()
}

func (pr PackRule) rule() *Rule {
	rule := &Rule{
		Name:        pr.Name,
		Description: pr.Description,
		Type:        pr.Type,
		Priority:    1,
		Enabled:     true,
		Conditions:  pr.Conditions,
		Actions:     pr.Actions,
	}
	if rule.Type == "" {
		rule.Type = TypeSecurity
	}
	if pr.Priority != nil {
		rule.Priority = *pr.Priority
	}
	if pr.Enabled != nil {
		rule.Enabled = *pr.Enabled
	}
	return rule
}
