package rules

import "context"

// Store defines the public contract for rule persistence.
type Store interface {
	// Active returns every enabled rule.
	Active(ctx context.Context) ([]*Rule, error)

	// List returns enabled rules of one type, or all enabled rules when
	// ruleType is empty.
	List(ctx context.Context, ruleType Type) ([]*Rule, error)

	Find(ctx context.Context, id int64) (*Rule, error)
	Create(ctx context.Context, r *Rule) (*Rule, error)

	// Upsert creates the rule or, when a rule with the same name exists,
	// replaces its definition. Used by rule-pack reloads.
	Upsert(ctx context.Context, r *Rule) (*Rule, error)
}
