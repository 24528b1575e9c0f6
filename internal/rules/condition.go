package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported condition operators.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpStartsWith  = "starts_with"
	OpEndsWith    = "ends_with"
	OpInList      = "in_list"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpRegex       = "regex"
	OpIsEmpty     = "is_empty"
	OpIsNotEmpty  = "is_not_empty"
)

var supportedOperators = map[string]bool{
	OpEquals:      true,
	OpNotEquals:   true,
	OpContains:    true,
	OpNotContains: true,
	OpStartsWith:  true,
	OpEndsWith:    true,
	OpInList:      true,
	OpGreaterThan: true,
	OpLessThan:    true,
	OpRegex:       true,
	OpIsEmpty:     true,
	OpIsNotEmpty:  true,
}

// Group logic connectives.
const (
	LogicAnd = "AND"
	LogicOr  = "OR"
)

// Condition is a single field comparison. Value holds a scalar operand;
// Values holds the operand list for in_list. Rule documents may also supply
// a scalar comma-separated list in Value.
type Condition struct {
	Field         string   `yaml:"field"`
	Operator      string   `yaml:"operator"`
	Value         string   `yaml:"value,omitempty"`
	Values        []string `yaml:"values,omitempty"`
	CaseSensitive bool     `yaml:"case_sensitive,omitempty"`
}

// Group combines child nodes under AND or OR logic. An empty child list
// evaluates to false under both connectives.
type Group struct {
	Logic    string
	Children []Node
}

// Node is one node of a condition tree: exactly one of Leaf or Group is
// set. A zero Node evaluates to false.
type Node struct {
	Leaf  *Condition
	Group *Group
}

// Leaf constructs a leaf node. Test helper friendly.
func Leaf(c Condition) Node {
	return Node{Leaf: &c}
}

// All constructs an AND group over the given children.
func All(children ...Node) Node {
	return Node{Group: &Group{Logic: LogicAnd, Children: children}}
}

// Any constructs an OR group over the given children.
func Any(children ...Node) Node {
	return Node{Group: &Group{Logic: LogicOr, Children: children}}
}

// UnmarshalJSON accepts the three document shapes rule conditions appear
// in: an object with logic/conditions keys (explicit group), a bare array
// (implicit AND group), and an object with field/operator keys (leaf).
func (n *Node) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '[' {
		var children []Node
		if err := json.Unmarshal(data, &children); err != nil {
			return err
		}
		n.Group = &Group{Logic: LogicAnd, Children: children}
		return nil
	}

	var probe struct {
		Logic      string          `json:"logic"`
		Conditions json.RawMessage `json:"conditions"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	if probe.Conditions != nil {
		var children []Node
		if err := json.Unmarshal(probe.Conditions, &children); err != nil {
			return err
		}
		n.Group = &Group{Logic: normalizeLogic(probe.Logic), Children: children}
		return nil
	}

	var leaf condition
	if err := json.Unmarshal(data, &leaf); err != nil {
		return err
	}
	n.Leaf = leaf.condition()
	return nil
}

// MarshalJSON writes groups in the explicit logic/conditions shape and
// leaves as plain condition objects.
func (n Node) MarshalJSON() ([]byte, error) {
	switch {
	case n.Group != nil:
		return json.Marshal(struct {
			Logic      string `json:"logic"`
			Conditions []Node `json:"conditions"`
		}{n.Group.Logic, n.Group.Children})
	case n.Leaf != nil:
		return json.Marshal(struct {
			Field         string   `json:"field"`
			Operator      string   `json:"operator"`
			Value         string   `json:"value,omitempty"`
			Values        []string `json:"values,omitempty"`
			CaseSensitive bool     `json:"case_sensitive,omitempty"`
		}(*n.Leaf))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML rule packs.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var children []Node
		if err := value.Decode(&children); err != nil {
			return err
		}
		n.Group = &Group{Logic: LogicAnd, Children: children}
		return nil

	case yaml.MappingNode:
		if hasKey(value, "conditions") {
			var probe struct {
				Logic      string `yaml:"logic"`
				Conditions []Node `yaml:"conditions"`
			}
			if err := value.Decode(&probe); err != nil {
				return err
			}
			n.Group = &Group{Logic: normalizeLogic(probe.Logic), Children: probe.Conditions}
			return nil
		}

		var leaf Condition
		if err := value.Decode(&leaf); err != nil {
			return err
		}
		n.Leaf = &leaf
		return nil

	default:
		return fmt.Errorf("condition node must be a mapping or sequence, got %v", value.Kind)
	}
}

// MarshalYAML mirrors MarshalJSON for rule-pack export.
func (n Node) MarshalYAML() (any, error) {
	switch {
	case n.Group != nil:
		return struct {
			Logic      string `yaml:"logic"`
			Conditions []Node `yaml:"conditions"`
		}{n.Group.Logic, n.Group.Children}, nil
	case n.Leaf != nil:
		return *n.Leaf, nil
	default:
		return nil, nil
	}
}

// condition is the permissive JSON shape: value may be a string, number,
// boolean, or array in stored rule documents.
type condition struct {
	Field         string `json:"field"`
	Operator      string `json:"operator"`
	Value         any    `json:"value"`
	Values        []any  `json:"values"`
	CaseSensitive bool   `json:"case_sensitive"`
}

func (c condition) condition() *Condition {
	out := Condition{
		Field:         c.Field,
		Operator:      c.Operator,
		CaseSensitive: c.CaseSensitive,
	}

	switch v := c.Value.(type) {
	case nil:
	case string:
		out.Value = v
	case []any:
		for _, item := range v {
			out.Values = append(out.Values, stringify(item))
		}
	default:
		out.Value = stringify(v)
	}

	for _, item := range c.Values {
		out.Values = append(out.Values, stringify(item))
	}

	return &out
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers: render integers without a trailing fraction.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

func normalizeLogic(logic string) string {
	if strings.EqualFold(logic, LogicOr) {
		return LogicOr
	}
	return LogicAnd
}

func hasKey(mapping *yaml.Node, key string) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return true
		}
	}
	return false
}
