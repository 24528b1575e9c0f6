package rules

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/egresswatch/egresswatch/internal/records"
)

// emptyForms are the ingestion-source spellings of an absent value. They
// normalize to the empty string before any comparison, regardless of the
// condition's case sensitivity.
var emptyForms = map[string]bool{
	"":     true,
	"none": true,
	"null": true,
	"n/a":  true,
	"na":   true,
	"nil":  true,
}

// Evaluator evaluates condition trees against records. Evaluation is pure
// with respect to the record and fails closed: an unknown field, an unknown
// operator, an invalid regex, or an unparsable numeric operand all yield a
// non-match rather than an error.
type Evaluator struct {
	logger *slog.Logger
}

// NewEvaluator creates a condition evaluator.
func NewEvaluator(logger *slog.Logger) *Evaluator {
	return &Evaluator{logger: logger.With("system", "rules")}
}

// Evaluate reports whether the record satisfies the condition tree.
// An empty group is false under both AND and OR; a zero node is false.
func (e *Evaluator) Evaluate(rec *records.Record, n Node) bool {
	switch {
	case n.Group != nil:
		return e.group(rec, n.Group)
	case n.Leaf != nil:
		return e.leaf(rec, n.Leaf)
	default:
		return false
	}
}

func (e *Evaluator) group(rec *records.Record, g *Group) bool {
	if len(g.Children) == 0 {
		return false
	}

	if g.Logic == LogicOr {
		for _, child := range g.Children {
			if e.Evaluate(rec, child) {
				return true
			}
		}
		return false
	}

	for _, child := range g.Children {
		if !e.Evaluate(rec, child) {
			return false
		}
	}
	return true
}

func (e *Evaluator) leaf(rec *records.Record, c *Condition) bool {
	if c.Field == "" || c.Operator == "" {
		return false
	}

	field, ok := records.ResolveField(c.Field)
	if !ok {
		e.logger.Warn("condition references unknown field", "field", c.Field)
		return false
	}

	raw := rec.Value(field)
	recordStr := c.normalize(raw)
	conditionStr := c.normalize(c.Value)

	switch c.Operator {
	case OpEquals:
		return recordStr == conditionStr
	case OpNotEquals:
		return recordStr != conditionStr
	case OpContains:
		return strings.Contains(recordStr, conditionStr)
	case OpNotContains:
		return !strings.Contains(recordStr, conditionStr)
	case OpStartsWith:
		return strings.HasPrefix(recordStr, conditionStr)
	case OpEndsWith:
		return strings.HasSuffix(recordStr, conditionStr)
	case OpInList:
		for _, v := range c.operands() {
			if recordStr == c.normalize(v) {
				return true
			}
		}
		return false
	case OpGreaterThan, OpLessThan:
		lhs, err1 := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		rhs, err2 := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
		if err1 != nil || err2 != nil {
			return false
		}
		if c.Operator == OpGreaterThan {
			return lhs > rhs
		}
		return lhs < rhs
	case OpRegex:
		// Patterns match case-insensitively across lines against the raw
		// field value.
		re, err := regexp.Compile("(?im)" + c.Value)
		if err != nil {
			e.logger.Warn("invalid regex pattern", "pattern", c.Value, "error", err)
			return false
		}
		return re.MatchString(raw)
	case OpIsEmpty:
		return recordStr == ""
	case OpIsNotEmpty:
		return recordStr != ""
	default:
		e.logger.Warn("unknown condition operator", "operator", c.Operator)
		return false
	}
}

// normalize trims the value, collapses known empty spellings to "", and
// lowercases unless the condition is case sensitive.
func (c *Condition) normalize(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if emptyForms[lower] {
		return ""
	}
	if c.CaseSensitive {
		return s
	}
	return lower
}

// operands returns the in_list candidates: the Values list when present,
// otherwise Value split on commas.
func (c *Condition) operands() []string {
	if len(c.Values) > 0 {
		return c.Values
	}
	parts := strings.Split(c.Value, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
