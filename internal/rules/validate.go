package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/egresswatch/egresswatch/internal/records"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError collects every problem found in a single rule so an
// operator can fix the whole document in one pass.
type ValidationError struct {
	Rule   string
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rule %q invalid: %s", e.Rule, strings.Join(e.Issues, "; "))
}

// ValidateRule checks a rule's shape and its condition tree. Rules are
// validated once at load time; the evaluator assumes validated input and
// fails closed on anything that slips through.
func ValidateRule(r *Rule) error {
	var issues []string

	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				issues = append(issues, fmt.Sprintf("%s fails %q", fe.Field(), fe.Tag()))
			}
		} else {
			issues = append(issues, err.Error())
		}
	}

	if r.Conditions.Leaf == nil && r.Conditions.Group == nil {
		issues = append(issues, "conditions cannot be empty")
	} else {
		issues = append(issues, validateNode(r.Conditions, "conditions")...)
	}

	if len(issues) > 0 {
		return &ValidationError{Rule: r.Name, Issues: issues}
	}
	return nil
}

func validateNode(n Node, path string) []string {
	switch {
	case n.Group != nil:
		return validateGroup(n.Group, path)
	case n.Leaf != nil:
		return validateLeaf(n.Leaf, path)
	default:
		return []string{path + ": empty condition node"}
	}
}

func validateGroup(g *Group, path string) []string {
	var issues []string

	if g.Logic != LogicAnd && g.Logic != LogicOr {
		issues = append(issues, fmt.Sprintf("%s: logic must be AND or OR, got %q", path, g.Logic))
	}
	if len(g.Children) == 0 {
		issues = append(issues, path+": group has no conditions")
	}
	for i, child := range g.Children {
		issues = append(issues, validateNode(child, fmt.Sprintf("%s[%d]", path, i))...)
	}

	return issues
}

func validateLeaf(c *Condition, path string) []string {
	var issues []string

	if c.Field == "" {
		issues = append(issues, path+": missing field")
	} else if _, ok := records.ResolveField(c.Field); !ok {
		issues = append(issues, fmt.Sprintf("%s: unsupported field %q", path, c.Field))
	}

	switch {
	case c.Operator == "":
		issues = append(issues, path+": missing operator")
	case !supportedOperators[c.Operator]:
		issues = append(issues, fmt.Sprintf("%s: unsupported operator %q", path, c.Operator))
	case c.Operator == OpIsEmpty || c.Operator == OpIsNotEmpty:
		// No operand required.
	case c.Operator == OpRegex:
		if _, err := regexp.Compile("(?im)" + c.Value); err != nil {
			issues = append(issues, fmt.Sprintf("%s: invalid regex pattern: %v", path, err))
		}
	case c.Value == "" && len(c.Values) == 0:
		issues = append(issues, path+": missing value")
	}

	return issues
}
