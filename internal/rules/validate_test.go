package rules_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/egresswatch/egresswatch/internal/rules"
)

func validRule() *rules.Rule {
	return &rules.Rule{
		Name:       "leaver to public domain",
		Type:       rules.TypeSecurity,
		Priority:   5,
		Enabled:    true,
		Conditions: leaf("leaver", "equals", "yes"),
	}
}

func TestValidateRule(t *testing.T) {
	if err := rules.ValidateRule(validRule()); err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}
}

func TestValidateRuleIssues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *rules.Rule)
		want   string
	}{
		{
			"missing name",
			func(r *rules.Rule) { r.Name = "" },
			`fails "required"`,
		},
		{
			"bad type",
			func(r *rules.Rule) { r.Type = "quarantine" },
			`fails "oneof"`,
		},
		{
			"negative priority",
			func(r *rules.Rule) { r.Priority = -1 },
			`fails "gte"`,
		},
		{
			"empty conditions",
			func(r *rules.Rule) { r.Conditions = rules.Node{} },
			"conditions cannot be empty",
		},
		{
			"empty group",
			func(r *rules.Rule) { r.Conditions = rules.All() },
			"group has no conditions",
		},
		{
			"unknown field",
			func(r *rules.Rule) { r.Conditions = leaf("sender_email", "equals", "x") },
			`unsupported field "sender_email"`,
		},
		{
			"unknown operator",
			func(r *rules.Rule) { r.Conditions = leaf("sender", "matches", "x") },
			`unsupported operator "matches"`,
		},
		{
			"missing value",
			func(r *rules.Rule) { r.Conditions = leaf("sender", "equals", "") },
			"missing value",
		},
		{
			"invalid regex",
			func(r *rules.Rule) { r.Conditions = leaf("sender", "regex", "[unclosed") },
			"invalid regex pattern",
		},
		{
			"bad group logic",
			func(r *rules.Rule) {
				r.Conditions = rules.Node{Group: &rules.Group{
					Logic:    "XOR",
					Children: []rules.Node{leaf("sender", "is_empty", "")},
				}}
			},
			"logic must be AND or OR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			tt.mutate(r)

			err := rules.ValidateRule(r)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestValidateRuleNoValueOperators(t *testing.T) {
	for _, op := range []string{"is_empty", "is_not_empty"} {
		r := validRule()
		r.Conditions = leaf("termination_date", op, "")
		if err := rules.ValidateRule(r); err != nil {
			t.Errorf("%s should not require a value: %v", op, err)
		}
	}
}

func TestValidateRuleCollectsAllIssues(t *testing.T) {
	r := validRule()
	r.Name = ""
	r.Conditions = rules.All(
		leaf("sender_email", "equals", "x"),
		leaf("sender", "matches", "x"),
	)

	err := rules.ValidateRule(r)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr *rules.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T", err)
	}
	if len(verr.Issues) != 3 {
		t.Errorf("issues = %d (%v), want 3", len(verr.Issues), verr.Issues)
	}
}
