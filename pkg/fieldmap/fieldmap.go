package fieldmap

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mapping associates a canonical destination path with a provider source path.
type Mapping struct {
	To   string // canonical dotted path, e.g. "info.urls.linkedin"
	From string // provider dotted path, e.g. "public-profile-url"
}

// Table is an ordered list of mappings. Order matters: later mappings
// overwrite earlier ones writing to the same destination.
type Table []Mapping

// Validate checks that every mapping has non-empty paths.
func (t Table) Validate() error {
	for i, m := range t {
		if strings.TrimSpace(m.To) == "" || strings.TrimSpace(m.From) == "" {
			return errors.Join(ErrEmptyPath, fmt.Errorf("mapping #%d: to=%q from=%q", i, m.To, m.From))
		}
	}
	return nil
}

// UnmarshalYAML decodes a YAML mapping node preserving key order.
func (t *Table) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Join(ErrInvalidTable, fmt.Errorf("line %d: expected a mapping", node.Line))
	}

	out := make(Table, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || val.Kind != yaml.ScalarNode {
			return errors.Join(ErrInvalidTable, fmt.Errorf("line %d: keys and values must be scalars", key.Line))
		}
		out = append(out, Mapping{To: key.Value, From: val.Value})
	}

	*t = out
	return nil
}

// Resolve walks path through nested maps and returns the value found there.
// The second result is false when any segment is missing or a non-map value
// is reached before the last segment.
func Resolve(tree map[string]any, path string) (any, bool) {
	if tree == nil || path == "" {
		return nil, false
	}

	var cur any = tree
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}

	if cur == nil {
		return nil, false
	}
	return cur, true
}

// Set writes v at the dotted path in dst, creating intermediate maps as needed.
// An intermediate value that is not a map is replaced.
func Set(dst map[string]any, path string, v any) {
	segs := strings.Split(path, ".")
	cur := dst
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = v
}

// Project resolves every mapping of table against tree and assembles the
// results into a new nested map. Unresolvable sources are skipped.
func Project(tree map[string]any, table Table) map[string]any {
	out := make(map[string]any, len(table))
	for _, m := range table {
		if m.To == "" {
			continue
		}
		if v, ok := Resolve(tree, m.From); ok {
			Set(out, m.To, v)
		}
	}
	return out
}
