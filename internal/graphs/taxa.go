package graphs

import (
	"fmt"
	"slices"

	"github.com/evolbioinfo/gotree/tree"
)

// Fixed taxon set; taxon indices follow name order
type TaxonSet struct {
	names []string
	index map[string]int
}

// Makes taxon set from names. Returns ErrInvalidArgument if a name repeats.
func NewTaxonSet(names []string) (*TaxonSet, error) {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	index := make(map[string]int, len(sorted))
	for i, name := range sorted {
		if _, ok := index[name]; ok {
			return nil, fmt.Errorf("%w, duplicate taxon %q", ErrInvalidArgument, name)
		}
		index[name] = i
	}
	return &TaxonSet{names: sorted, index: index}, nil
}

func (ts *TaxonSet) Len() int {
	return len(ts.names)
}

func (ts *TaxonSet) Name(i int) string {
	return ts.names[i]
}

func (ts *TaxonSet) Names() []string {
	return slices.Clone(ts.names)
}

func (ts *TaxonSet) Index(name string) (int, bool) {
	i, ok := ts.index[name]
	return i, ok
}

// Same taxa as another set
func (ts *TaxonSet) Equal(o *TaxonSet) bool {
	return slices.Equal(ts.names, o.names)
}

// Leaf names of tree, erroring on duplicate labels
func TreeTaxa(tre *tree.Tree) (*TaxonSet, error) {
	tips := tre.Tips()
	names := make([]string, len(tips))
	for i, t := range tips {
		names[i] = t.Name()
	}
	return NewTaxonSet(names)
}

// Verifies that every tree has exactly the same leaf set and returns it
func CommonTaxa(trees []*tree.Tree) (*TaxonSet, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w, no input trees", ErrInvalidArgument)
	}
	var taxa *TaxonSet
	for i, tre := range trees {
		if tre == nil || tre.Root() == nil {
			return nil, fmt.Errorf("%w, tree %d is empty", ErrInvalidArgument, i+1)
		}
		ts, err := TreeTaxa(tre)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i+1, err)
		}
		if taxa == nil {
			taxa = ts
		} else if !taxa.Equal(ts) {
			return nil, fmt.Errorf("%w, tree %d does not have the same taxa as tree 1", ErrInvalidArgument, i+1)
		}
	}
	return taxa, nil
}
