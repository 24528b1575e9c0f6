package rules_test

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/egresswatch/egresswatch/internal/rules"
)

func TestNodeUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want func(t *testing.T, n rules.Node)
	}{
		{
			"leaf object",
			`{"field": "sender", "operator": "contains", "value": "newsletter"}`,
			func(t *testing.T, n rules.Node) {
				if n.Leaf == nil {
					t.Fatal("expected leaf node")
				}
				if n.Leaf.Field != "sender" || n.Leaf.Operator != "contains" || n.Leaf.Value != "newsletter" {
					t.Errorf("leaf = %+v", n.Leaf)
				}
			},
		},
		{
			"explicit group",
			`{"logic": "or", "conditions": [
				{"field": "leaver", "operator": "equals", "value": "yes"},
				{"field": "sender", "operator": "is_empty"}
			]}`,
			func(t *testing.T, n rules.Node) {
				if n.Group == nil {
					t.Fatal("expected group node")
				}
				if n.Group.Logic != rules.LogicOr {
					t.Errorf("logic = %q, want OR", n.Group.Logic)
				}
				if len(n.Group.Children) != 2 {
					t.Errorf("children = %d, want 2", len(n.Group.Children))
				}
			},
		},
		{
			"bare array is implicit and",
			`[{"field": "leaver", "operator": "equals", "value": "yes"}]`,
			func(t *testing.T, n rules.Node) {
				if n.Group == nil {
					t.Fatal("expected group node")
				}
				if n.Group.Logic != rules.LogicAnd {
					t.Errorf("logic = %q, want AND", n.Group.Logic)
				}
			},
		},
		{
			"numeric value stringified",
			`{"field": "subject", "operator": "greater_than", "value": 10}`,
			func(t *testing.T, n rules.Node) {
				if n.Leaf == nil || n.Leaf.Value != "10" {
					t.Errorf("leaf = %+v, want value \"10\"", n.Leaf)
				}
			},
		},
		{
			"array value becomes values",
			`{"field": "recipients_email_domain", "operator": "in_list", "value": ["gmail.com", "yahoo.com"]}`,
			func(t *testing.T, n rules.Node) {
				if n.Leaf == nil || len(n.Leaf.Values) != 2 {
					t.Fatalf("leaf = %+v, want 2 values", n.Leaf)
				}
				if n.Leaf.Values[0] != "gmail.com" {
					t.Errorf("values[0] = %q", n.Leaf.Values[0])
				}
			},
		},
		{
			"null is zero node",
			`null`,
			func(t *testing.T, n rules.Node) {
				if n.Leaf != nil || n.Group != nil {
					t.Errorf("node = %+v, want zero", n)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n rules.Node
			if err := json.Unmarshal([]byte(tt.doc), &n); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			tt.want(t, n)
		})
	}
}

func TestNodeJSONRoundTrip(t *testing.T) {
	node := rules.All(
		leaf("leaver", "equals", "yes"),
		rules.Any(
			leaf("recipients_email_domain", "ends_with", ".ru"),
			leaf("termination_date", "is_not_empty", ""),
		),
	)

	data, err := json.Marshal(node)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded rules.Node
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Group == nil || decoded.Group.Logic != rules.LogicAnd {
		t.Fatalf("decoded root = %+v", decoded)
	}
	if len(decoded.Group.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(decoded.Group.Children))
	}
	inner := decoded.Group.Children[1]
	if inner.Group == nil || inner.Group.Logic != rules.LogicOr {
		t.Errorf("inner = %+v, want OR group", inner)
	}
}

func TestNodeUnmarshalYAML(t *testing.T) {
	doc := `
logic: OR
conditions:
  - field: leaver
    operator: equals
    value: "yes"
  - - field: recipients_email_domain
      operator: ends_with
      value: .ru
    - field: termination_date
      operator: is_not_empty
`
	var n rules.Node
	if err := yaml.Unmarshal([]byte(doc), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if n.Group == nil || n.Group.Logic != rules.LogicOr {
		t.Fatalf("root = %+v, want OR group", n)
	}
	if len(n.Group.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(n.Group.Children))
	}
	if n.Group.Children[0].Leaf == nil {
		t.Error("first child should be a leaf")
	}
	nested := n.Group.Children[1]
	if nested.Group == nil || nested.Group.Logic != rules.LogicAnd {
		t.Errorf("nested sequence = %+v, want implicit AND group", nested)
	}
}

func TestNodeUnmarshalYAMLScalarRejected(t *testing.T) {
	var n rules.Node
	if err := yaml.Unmarshal([]byte(`"just a string"`), &n); err == nil {
		t.Error("expected error for scalar condition node")
	}
}
