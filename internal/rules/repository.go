package rules

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/egresswatch/egresswatch/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a rule repository implementing the Store interface.
func New(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "rules"),
	}
}

const ruleColumns = `
	id, name, description, rule_type, priority, enabled,
	conditions, actions, created_at, updated_at`

func (r *repo) Active(ctx context.Context) ([]*Rule, error) {
	return r.List(ctx, "")
}

func (r *repo) List(ctx context.Context, ruleType Type) ([]*Rule, error) {
	q := "SELECT" + ruleColumns + `
		FROM rules
		WHERE enabled
			AND ($1 = '' OR rule_type = $1)
		ORDER BY priority DESC, name`

	rules, err := repository.QueryMany(ctx, r.db, q, []any{string(ruleType)}, scanRule)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	return rules, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Rule, error) {
	q := "SELECT" + ruleColumns + `
		FROM rules
		WHERE id = $1`

	rule, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanRule)
	if err != nil {
		return nil, repository.MapError(
			fmt.Errorf("find rule %d: %w", id, err),
			ErrNotFound, ErrDuplicate,
		)
	}
	return rule, nil
}

func (r *repo) Create(ctx context.Context, rule *Rule) (*Rule, error) {
	q := `
		INSERT INTO rules(name, description, rule_type, priority, enabled, conditions, actions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING` + ruleColumns

	created, err := r.write(ctx, q, rule)
	if err != nil {
		return nil, fmt.Errorf("create rule %q: %w", rule.Name, err)
	}

	r.logger.Info("rule created", "rule", created.Name, "type", created.Type)
	return created, nil
}

func (r *repo) Upsert(ctx context.Context, rule *Rule) (*Rule, error) {
	q := `
		INSERT INTO rules(name, description, rule_type, priority, enabled, conditions, actions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			rule_type = EXCLUDED.rule_type,
			priority = EXCLUDED.priority,
			enabled = EXCLUDED.enabled,
			conditions = EXCLUDED.conditions,
			actions = EXCLUDED.actions,
			updated_at = now()
		RETURNING` + ruleColumns

	saved, err := r.write(ctx, q, rule)
	if err != nil {
		return nil, fmt.Errorf("upsert rule %q: %w", rule.Name, err)
	}

	r.logger.Info("rule saved", "rule", saved.Name, "type", saved.Type)
	return saved, nil
}

func (r *repo) write(ctx context.Context, query string, rule *Rule) (*Rule, error) {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return nil, fmt.Errorf("encode conditions: %w", err)
	}
	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		return nil, fmt.Errorf("encode actions: %w", err)
	}

	args := []any{
		rule.Name, rule.Description, string(rule.Type),
		rule.Priority, rule.Enabled, conditions, actions,
	}

	saved, err := repository.QueryOne(ctx, r.db, query, args, scanRule)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return saved, nil
}

func scanRule(s repository.Scanner) (*Rule, error) {
	var (
		rule           Rule
		ruleType       string
		conditionsJSON []byte
		actionsJSON    []byte
	)

	err := s.Scan(
		&rule.ID, &rule.Name, &rule.Description, &ruleType, &rule.Priority, &rule.Enabled,
		&conditionsJSON, &actionsJSON, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Type = Type(ruleType)
	if len(conditionsJSON) > 0 {
		if err := json.Unmarshal(conditionsJSON, &rule.Conditions); err != nil {
			return nil, fmt.Errorf("decode conditions: %w", err)
		}
	}
	if len(actionsJSON) > 0 {
		if err := json.Unmarshal(actionsJSON, &rule.Actions); err != nil {
			return nil, fmt.Errorf("decode actions: %w", err)
		}
	}

	return &rule, nil
}
