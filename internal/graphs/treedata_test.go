package graphs

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/evolbioinfo/gotree/io/newick"
	"github.com/evolbioinfo/gotree/tree"
)

func parseTree(t *testing.T, nwk string) *tree.Tree {
	t.Helper()
	tre, err := newick.NewParser(strings.NewReader(nwk)).Parse()
	if err != nil {
		t.Fatalf("cannot parse %s as newick; test is written wrong: %s", nwk, err)
	}
	return tre
}

func makeTreeData(t *testing.T, nwk string) *TreeData {
	t.Helper()
	tre := parseTree(t, nwk)
	taxa, err := TreeTaxa(tre)
	if err != nil {
		t.Fatalf("invalid taxa; test is written wrong: %s", err)
	}
	td, err := MakeTreeData(tre, taxa)
	if err != nil {
		t.Fatalf("MakeTreeData failed: %s", err)
	}
	return td
}

func formatClades(clades []Clade, taxa *TaxonSet) []string {
	result := make([]string, len(clades))
	for i, c := range clades {
		result[i] = c.Format(taxa)
	}
	slices.Sort(result)
	return result
}

func TestMakeTreeData(t *testing.T) {
	testCases := []struct {
		name    string
		tre     string
		leafset map[string]string
	}{
		{
			name: "basic",
			tre:  "((((A,B)a,C)b,D)c,F)r;",
			leafset: map[string]string{
				"a": "{A,B}",
				"b": "{A,B,C}",
				"c": "{A,B,C,D}",
				"r": "{A,B,C,D,F}",
			},
		},
		{
			name: "multifurcating",
			tre:  "((A,B,C)a,(D,E)b,F)r;",
			leafset: map[string]string{
				"a": "{A,B,C}",
				"b": "{D,E}",
				"r": "{A,B,C,D,E,F}",
			},
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			td := makeTreeData(t, test.tre)
			if root := td.IdToNodes[td.RootID()]; root != td.Root() {
				t.Errorf("root id maps to %s, not the root", root.Name())
			}
			for label, exp := range test.leafset {
				nodes, err := td.SelectNodes(label)
				if err != nil || len(nodes) != 1 {
					t.Fatalf("cannot find node %s; test is written wrong", label)
				}
				if ls := td.LeafsetAsString(nodes[0]); ls != exp {
					t.Errorf("leafset of %s is %s, expected %s", label, ls, exp)
				}
			}
			for id, p := range td.Parents {
				if p >= 0 && p <= id {
					t.Errorf("parent %d of node %d is not later in post order", p, id)
				}
			}
		})
	}
}

func TestMakeTreeDataErrors(t *testing.T) {
	testCases := []struct {
		name  string
		tre   string
		taxa  []string
		error error
	}{
		{
			name:  "unknown leaf",
			tre:   "((A,B),(C,X));",
			taxa:  []string{"A", "B", "C", "D"},
			error: ErrInvalidArgument,
		},
		{
			name:  "missing leaf",
			tre:   "((A,B),C);",
			taxa:  []string{"A", "B", "C", "D"},
			error: ErrInvalidArgument,
		},
		{
			name:  "duplicate leaf",
			tre:   "((A,B),(C,A));",
			taxa:  []string{"A", "B", "C"},
			error: ErrInvalidArgument,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			taxa, err := NewTaxonSet(test.taxa)
			if err != nil {
				t.Fatalf("invalid taxa; test is written wrong: %s", err)
			}
			_, err = MakeTreeData(parseTree(t, test.tre), taxa)
			if !errors.Is(err, test.error) {
				t.Errorf("expected %v, got %v", test.error, err)
			}
		})
	}
}

func TestClades(t *testing.T) {
	testCases := []struct {
		name   string
		tre    string
		clades []string
	}{
		{
			name:   "caterpillar",
			tre:    "((((A,B),C),D),E);",
			clades: []string{"{A,B,C,D}", "{A,B,C}", "{A,B}"},
		},
		{
			name:   "unifurcation",
			tre:    "(((A,B)),(C,D));",
			clades: []string{"{A,B}", "{C,D}"},
		},
		{
			name:   "star",
			tre:    "(A,B,C,D);",
			clades: []string{},
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			td := makeTreeData(t, test.tre)
			result := formatClades(td.Clades(), td.Taxa)
			if !slices.Equal(result, test.clades) {
				t.Errorf("clades %v != expected %v", result, test.clades)
			}
		})
	}
}

func TestBipartitions(t *testing.T) {
	testCases := []struct {
		name      string
		tre       string
		reference string
		splits    []string
	}{
		{
			name:      "rooted binary",
			tre:       "((A,B),(C,D));",
			reference: "A",
			splits:    []string{"{C,D}"},
		},
		{
			name:      "unrooted",
			tre:       "(A,B,((C,D),E));",
			reference: "A",
			splits:    []string{"{C,D,E}", "{C,D}"},
		},
		{
			name:      "outgroup reference",
			tre:       "(A,B,((C,D),E));",
			reference: "E",
			splits:    []string{"{A,B}", "{C,D}"},
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			td := makeTreeData(t, test.tre)
			ref, ok := td.Taxa.Index(test.reference)
			if !ok {
				t.Fatalf("no taxon %s; test is written wrong", test.reference)
			}
			result := formatClades(td.Bipartitions(ref), td.Taxa)
			if !slices.Equal(result, test.splits) {
				t.Errorf("bipartitions %v != expected %v", result, test.splits)
			}
		})
	}
}

func TestMRCA(t *testing.T) {
	td := makeTreeData(t, "((((A,B)a,C)b,D)c,(E,F)d)r;")
	testCases := []struct {
		taxa []string
		mrca string
	}{
		{taxa: []string{"A", "B"}, mrca: "a"},
		{taxa: []string{"A", "C"}, mrca: "b"},
		{taxa: []string{"B", "C", "D"}, mrca: "c"},
		{taxa: []string{"E", "F"}, mrca: "d"},
		{taxa: []string{"A", "F"}, mrca: "r"},
		{taxa: []string{"D"}, mrca: "D"},
	}
	for _, test := range testCases {
		t.Run(strings.Join(test.taxa, ""), func(t *testing.T) {
			c := NewClade(td.Taxa.Len())
			for _, name := range test.taxa {
				i, _ := td.Taxa.Index(name)
				c.Add(i)
			}
			if mrca := td.IdToNodes[td.MRCA(c)].Name(); mrca != test.mrca {
				t.Errorf("MRCA of %v is %s, expected %s", test.taxa, mrca, test.mrca)
			}
		})
	}
}

func TestCommonTaxa(t *testing.T) {
	testCases := []struct {
		name  string
		trees []string
		error error
	}{
		{
			name:  "same taxa",
			trees: []string{"((A,B),(C,D));", "((A,C),(B,D));"},
		},
		{
			name:  "different taxa",
			trees: []string{"((A,B),(C,D));", "((A,C),(B,E));"},
			error: ErrInvalidArgument,
		},
		{
			name:  "missing taxon",
			trees: []string{"((A,B),(C,D));", "((A,C),B);"},
			error: ErrInvalidArgument,
		},
		{
			name:  "duplicate label",
			trees: []string{"((A,B),(C,D));", "((A,A),(C,D));"},
			error: ErrInvalidArgument,
		},
		{
			name:  "no trees",
			trees: []string{},
			error: ErrInvalidArgument,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			trees := make([]*tree.Tree, len(test.trees))
			for i, nwk := range test.trees {
				trees[i] = parseTree(t, nwk)
			}
			taxa, err := CommonTaxa(trees)
			if !errors.Is(err, test.error) {
				t.Fatalf("expected %v, got %v", test.error, err)
			}
			if err == nil && !slices.Equal(taxa.Names(), []string{"A", "B", "C", "D"}) {
				t.Errorf("unexpected taxa %v", taxa.Names())
			}
		})
	}
}
