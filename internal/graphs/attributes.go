package graphs

import (
	"maps"
	"slices"

	"github.com/evolbioinfo/gotree/tree"
)

// Optional side table of named values attached to tree nodes. Names keep
// their insertion order. Not safe for concurrent use.
type Attributes struct {
	byNode map[*tree.Node]*attributeMap
}

type attributeMap struct {
	names  []string
	values map[string]any
}

func NewAttributes() *Attributes {
	return &Attributes{byNode: make(map[*tree.Node]*attributeMap)}
}

func (a *Attributes) Set(n *tree.Node, name string, value any) {
	m, ok := a.byNode[n]
	if !ok {
		m = &attributeMap{values: make(map[string]any)}
		a.byNode[n] = m
	}
	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}
	m.values[name] = value
}

func (a *Attributes) Get(n *tree.Node, name string) (any, bool) {
	m, ok := a.byNode[n]
	if !ok {
		return nil, false
	}
	v, ok := m.values[name]
	return v, ok
}

// Float returns a numeric attribute as float64
func (a *Attributes) Float(n *tree.Node, name string) (float64, bool) {
	v, ok := a.Get(n, name)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func (a *Attributes) Remove(n *tree.Node, name string) {
	m, ok := a.byNode[n]
	if !ok {
		return
	}
	if _, ok := m.values[name]; !ok {
		return
	}
	delete(m.values, name)
	m.names = slices.DeleteFunc(m.names, func(s string) bool { return s == name })
	if len(m.names) == 0 {
		delete(a.byNode, n)
	}
}

// Attribute names of node in insertion order
func (a *Attributes) Names(n *tree.Node) []string {
	if m, ok := a.byNode[n]; ok {
		return slices.Clone(m.names)
	}
	return nil
}

// Copy of the attributes of node
func (a *Attributes) Map(n *tree.Node) map[string]any {
	if m, ok := a.byNode[n]; ok {
		return maps.Clone(m.values)
	}
	return map[string]any{}
}
