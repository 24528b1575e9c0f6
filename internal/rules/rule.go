// Package rules implements the classification rule domain: the condition
// tree model, the evaluator, the exclusion and security engines, load-time
// validation, YAML rule-pack import/export with hot reload, and Postgres
// persistence.
package rules

import (
	"time"
)

// Type distinguishes the two rule families. Exclusion rules remove records
// from analysis entirely; security rules accumulate matches and drive
// case-management actions.
type Type string

const (
	TypeExclusion Type = "exclusion"
	TypeSecurity  Type = "security"
)

// Actions is the side-effect document attached to a security rule. All
// fields are optional; zero values mean the action is not taken.
type Actions struct {
	Escalate      bool    `json:"escalate,omitempty" yaml:"escalate,omitempty"`
	Flag          bool    `json:"flag,omitempty" yaml:"flag,omitempty"`
	FlagMessage   string  `json:"flag_message,omitempty" yaml:"flag_message,omitempty"`
	Tag           string  `json:"tag,omitempty" yaml:"tag,omitempty"`
	ScoreModifier float64 `json:"score_modifier,omitempty" yaml:"score_modifier,omitempty"`
	AssignTo      string  `json:"assign_to,omitempty" yaml:"assign_to,omitempty"`
}

// Rule is one classification rule. Rules with an empty Type are evaluated
// as security rules for backward compatibility with older rule documents.
type Rule struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description,omitempty"`
	Type        Type      `json:"rule_type" validate:"omitempty,oneof=exclusion security"`
	Priority    int       `json:"priority" validate:"gte=0"`
	Enabled     bool      `json:"enabled"`
	Conditions  Node      `json:"conditions"`
	Actions     Actions   `json:"actions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Security reports whether the rule participates in the security stage.
func (r *Rule) Security() bool {
	return r.Type == TypeSecurity || r.Type == ""
}
