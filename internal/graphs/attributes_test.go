package graphs

import (
	"errors"
	"slices"
	"testing"

	"github.com/evolbioinfo/gotree/tree"
)

func TestAttributes(t *testing.T) {
	tre := tree.NewTree()
	a, b := tre.NewNode(), tre.NewNode()
	attrs := NewAttributes()
	attrs.Set(a, "height", 2.5)
	attrs.Set(a, "count", 3)
	attrs.Set(a, "height", 4.0)
	if names := attrs.Names(a); !slices.Equal(names, []string{"height", "count"}) {
		t.Errorf("names %v != [height count]", names)
	}
	if h, ok := attrs.Float(a, "height"); !ok || h != 4 {
		t.Errorf("height %f (%t), expected 4", h, ok)
	}
	if c, ok := attrs.Float(a, "count"); !ok || c != 3 {
		t.Errorf("count %f (%t), expected 3", c, ok)
	}
	if _, ok := attrs.Get(b, "height"); ok {
		t.Error("unset node should have no attributes")
	}
	m := attrs.Map(a)
	m["height"] = -1.0
	if h, _ := attrs.Float(a, "height"); h != 4 {
		t.Error("changing the copied map should not change the attributes")
	}
	attrs.Remove(a, "height")
	if names := attrs.Names(a); !slices.Equal(names, []string{"count"}) {
		t.Errorf("names after remove %v != [count]", names)
	}
	attrs.Remove(a, "count")
	if names := attrs.Names(a); len(names) != 0 || len(attrs.Map(a)) != 0 {
		t.Errorf("expected no attributes left, got %v", names)
	}
}

func TestAssembleTree(t *testing.T) {
	taxa, err := NewTaxonSet([]string{"A", "B", "C", "D", "E"})
	if err != nil {
		t.Fatal(err)
	}
	clade := func(names ...string) Clade {
		c := NewClade(taxa.Len())
		for _, name := range names {
			i, _ := taxa.Index(name)
			c.Add(i)
		}
		return c
	}
	t.Run("nested", func(t *testing.T) {
		attrs := NewAttributes()
		tre, err := AssembleTree(taxa, []SupportedClade{
			{Clade: clade("A", "B"), Support: 1, Count: 4},
			{Clade: clade("A", "B", "C"), Support: 0.5, Count: 2},
			{Clade: clade("D", "E"), Support: 0.75, Count: 3},
		}, attrs)
		if err != nil {
			t.Fatalf("unexpected error %s", err)
		}
		td, err := MakeTreeData(tre, taxa)
		if err != nil {
			t.Fatal(err)
		}
		result := formatClades(td.Clades(), taxa)
		if exp := []string{"{A,B,C}", "{A,B}", "{D,E}"}; !slices.Equal(result, exp) {
			t.Errorf("clades %v != %v", result, exp)
		}
		tre.PreOrder(func(cur, prev *tree.Node, e *tree.Edge) (keep bool) {
			if e == nil || cur.Tip() {
				return true
			}
			count, _ := attrs.Float(cur, CountAttribute)
			switch td.LeafsetAsString(cur) {
			case "{A,B}":
				if e.Support() != 1 || count != 4 {
					t.Errorf("{A,B} support %f count %f", e.Support(), count)
				}
			case "{D,E}":
				if e.Support() != 0.75 || count != 3 {
					t.Errorf("{D,E} support %f count %f", e.Support(), count)
				}
			}
			return true
		})
	})
	t.Run("conflicting", func(t *testing.T) {
		_, err := AssembleTree(taxa, []SupportedClade{
			{Clade: clade("A", "B")},
			{Clade: clade("B", "C")},
		}, nil)
		if !errors.Is(err, ErrInternalInconsistency) {
			t.Errorf("expected ErrInternalInconsistency, got %v", err)
		}
	})
	t.Run("star", func(t *testing.T) {
		tre, err := AssembleTree(taxa, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error %s", err)
		}
		if n := len(tre.Root().Neigh()); n != 5 {
			t.Errorf("star root should have 5 children, got %d", n)
		}
	})
}
