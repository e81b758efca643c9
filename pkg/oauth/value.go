package oauth

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Value is a setting value: either a single scalar or an ordered list of scalars.
type Value struct {
	items []string
	list  bool
}

// String returns a scalar Value.
func String(s string) Value {
	return Value{items: []string{s}}
}

// List returns a list Value.
func List(items ...string) Value {
	return Value{items: append([]string(nil), items...), list: true}
}

// IsList reports whether v was declared as a list.
func (v Value) IsList() bool { return v.list }

// Items returns a copy of the scalar items.
func (v Value) Items() []string { return append([]string(nil), v.items...) }

// IsZero reports whether v holds no non-empty item.
func (v Value) IsZero() bool {
	for _, s := range v.items {
		if s != "" {
			return false
		}
	}
	return true
}

// Join concatenates the items with sep. A scalar is returned unchanged.
func (v Value) Join(sep string) string {
	return strings.Join(v.items, sep)
}

// String implements fmt.Stringer. Lists are joined with a comma.
func (v Value) String() string {
	return v.Join(",")
}

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*v = String(node.Value)
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(node.Content))
		for _, n := range node.Content {
			if n.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: list items must be scalars", n.Line)
			}
			items = append(items, n.Value)
		}
		*v = List(items...)
		return nil
	}
	return fmt.Errorf("line %d: expected scalar or list", node.Line)
}

// FieldSelector renders a field-list value for a profile URL:
// lists become "(a,b,c)", scalars are used as-is.
func FieldSelector(v Value) string {
	if v.list {
		return "(" + v.Join(",") + ")"
	}
	return v.Join("")
}

// Settings is the resolved configuration of a single authorization attempt.
type Settings map[string]Value

// Get returns the value stored under key.
func (s Settings) Get(key string) (Value, bool) {
	v, ok := s[key]
	return v, ok
}

// Lookup returns the scalar form of key, or "" when absent.
func (s Settings) Lookup(key string) string {
	return s[key].String()
}

// Clone returns a shallow copy of s.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// With returns a copy of s with key set to v.
func (s Settings) With(key string, v Value) Settings {
	out := s.Clone()
	out[key] = v
	return out
}
