package rules_test

import (
	"log/slog"
	"testing"

	"github.com/egresswatch/egresswatch/internal/records"
	"github.com/egresswatch/egresswatch/internal/rules"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func leaf(field, operator, value string) rules.Node {
	return rules.Leaf(rules.Condition{Field: field, Operator: operator, Value: value})
}

func TestEvaluateOperators(t *testing.T) {
	rec := &records.Record{
		Sender:          "Alice.Smith@corp.example",
		Subject:         "Quarterly Payroll Export",
		RecipientDomain: "gmail.com",
		Leaver:          "YES",
		Department:      "Finance",
		TerminationDate: "None",
		Attachments:     "payroll_q3.xlsx",
	}

	tests := []struct {
		name string
		cond rules.Condition
		want bool
	}{
		{"equals case insensitive", rules.Condition{Field: "leaver", Operator: "equals", Value: "yes"}, true},
		{"equals case sensitive miss", rules.Condition{Field: "leaver", Operator: "equals", Value: "yes", CaseSensitive: true}, false},
		{"not_equals", rules.Condition{Field: "department", Operator: "not_equals", Value: "HR"}, true},
		{"contains", rules.Condition{Field: "subject", Operator: "contains", Value: "payroll"}, true},
		{"not_contains", rules.Condition{Field: "subject", Operator: "not_contains", Value: "invoice"}, true},
		{"starts_with", rules.Condition{Field: "sender", Operator: "starts_with", Value: "alice"}, true},
		{"ends_with", rules.Condition{Field: "recipients_email_domain", Operator: "ends_with", Value: ".com"}, true},
		{"in_list values", rules.Condition{Field: "recipients_email_domain", Operator: "in_list", Values: []string{"yahoo.com", "gmail.com"}}, true},
		{"in_list comma value", rules.Condition{Field: "recipients_email_domain", Operator: "in_list", Value: "yahoo.com, gmail.com"}, true},
		{"in_list miss", rules.Condition{Field: "recipients_email_domain", Operator: "in_list", Value: "corp.example"}, false},
		{"regex", rules.Condition{Field: "attachments", Operator: "regex", Value: `\.xlsx$`}, true},
		{"regex case insensitive", rules.Condition{Field: "subject", Operator: "regex", Value: "^quarterly"}, true},
		{"is_empty on none spelling", rules.Condition{Field: "termination_date", Operator: "is_empty"}, true},
		{"is_not_empty", rules.Condition{Field: "sender", Operator: "is_not_empty"}, true},
		{"unknown operator fails closed", rules.Condition{Field: "sender", Operator: "matches"}, false},
		{"unknown field fails closed", rules.Condition{Field: "sender_email", Operator: "is_not_empty"}, false},
		{"missing operator fails closed", rules.Condition{Field: "sender"}, false},
	}

	eval := rules.NewEvaluator(discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eval.Evaluate(rec, rules.Leaf(tt.cond)); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateEmptyNormalization(t *testing.T) {
	eval := rules.NewEvaluator(discard())

	// Every spelling of an absent value satisfies is_empty, regardless of
	// the case_sensitive flag.
	for _, raw := range []string{"", "None", "NULL", "n/a", "NA", "nil", "  none  "} {
		rec := &records.Record{TerminationDate: raw}

		insensitive := rules.Condition{Field: "termination_date", Operator: "is_empty"}
		if !eval.Evaluate(rec, rules.Leaf(insensitive)) {
			t.Errorf("is_empty(%q) = false, want true", raw)
		}

		sensitive := insensitive
		sensitive.CaseSensitive = true
		if !eval.Evaluate(rec, rules.Leaf(sensitive)) {
			t.Errorf("is_empty(%q) case sensitive = false, want true", raw)
		}
	}

	rec := &records.Record{TerminationDate: "2026-01-15"}
	cond := rules.Condition{Field: "termination_date", Operator: "is_empty"}
	if eval.Evaluate(rec, rules.Leaf(cond)) {
		t.Error("is_empty on real date = true, want false")
	}
}

func TestEvaluateNumericOperators(t *testing.T) {
	eval := rules.NewEvaluator(discard())

	tests := []struct {
		name     string
		raw      string
		operator string
		value    string
		want     bool
	}{
		{"greater_than", "15", "greater_than", "10", true},
		{"greater_than equal", "10", "greater_than", "10", false},
		{"less_than", "3.5", "less_than", "4", true},
		{"non numeric record fails closed", "many", "greater_than", "10", false},
		{"non numeric operand fails closed", "15", "greater_than", "few", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &records.Record{Subject: tt.raw}
			cond := rules.Condition{Field: "subject", Operator: tt.operator, Value: tt.value}
			if got := eval.Evaluate(rec, rules.Leaf(cond)); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateInvalidRegexFailsClosed(t *testing.T) {
	eval := rules.NewEvaluator(discard())
	rec := &records.Record{Subject: "anything"}
	cond := rules.Condition{Field: "subject", Operator: "regex", Value: "[unclosed"}

	if eval.Evaluate(rec, rules.Leaf(cond)) {
		t.Error("invalid regex should never match")
	}
}

func TestEvaluateGroups(t *testing.T) {
	rec := &records.Record{
		Leaver:          "yes",
		RecipientDomain: "gmail.com",
		Department:      "Finance",
	}

	tests := []struct {
		name string
		node rules.Node
		want bool
	}{
		{"empty and group", rules.All(), false},
		{"empty or group", rules.Any(), false},
		{"zero node", rules.Node{}, false},
		{
			"and all match",
			rules.All(
				leaf("leaver", "equals", "yes"),
				leaf("recipients_email_domain", "equals", "gmail.com"),
			),
			true,
		},
		{
			"and one miss",
			rules.All(
				leaf("leaver", "equals", "yes"),
				leaf("recipients_email_domain", "equals", "corp.example"),
			),
			false,
		},
		{
			"or one match",
			rules.Any(
				leaf("leaver", "equals", "no"),
				leaf("recipients_email_domain", "equals", "gmail.com"),
			),
			true,
		},
		{
			"nested group",
			rules.All(
				leaf("department", "equals", "finance"),
				rules.Any(
					leaf("leaver", "equals", "yes"),
					leaf("recipients_email_domain", "ends_with", ".ru"),
				),
			),
			true,
		},
	}

	eval := rules.NewEvaluator(discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eval.Evaluate(rec, tt.node); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}
