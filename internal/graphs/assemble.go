package graphs

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/evolbioinfo/gotree/tree"
)

const CountAttribute = "count"

// Clade accepted into a consensus tree along with its support
type SupportedClade struct {
	Clade   Clade
	Support float64 // fraction of input trees containing the clade
	Count   int     // number of input trees containing the clade
}

type assemblyNode struct {
	clade    SupportedClade
	taxon    int // -1 for internal nodes
	children []*assemblyNode
}

// Builds a tree over taxa whose internal nodes are the given pairwise
// compatible clades, nested by containment under a root holding every taxon.
// Each clade's support goes on the edge above its node, and its count is
// recorded as an attribute when attrs is not nil. Clades that are not
// compatible with each other indicate a bug in the caller and return
// ErrInternalInconsistency.
func AssembleTree(taxa *TaxonSet, clades []SupportedClade, attrs *Attributes) (*tree.Tree, error) {
	n := taxa.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w, cannot build a tree without taxa", ErrInvalidArgument)
	}
	if n == 1 {
		return SingleTaxonTree(taxa.Name(0)), nil
	}
	sorted := slices.Clone(clades)
	slices.SortStableFunc(sorted, func(a, b SupportedClade) int { return b.Clade.Compare(a.Clade) })
	root := &assemblyNode{clade: SupportedClade{Clade: FullClade(n), Support: tree.NIL_SUPPORT}, taxon: -1}
	placed := []*assemblyNode{root}
	for _, c := range sorted {
		if c.Clade.Universe() != n {
			return nil, fmt.Errorf("%w, clade defined over %d taxa, expected %d",
				ErrInternalInconsistency, c.Clade.Universe(), n)
		}
		if c.Clade.Len() < 2 || c.Clade.Len() == n {
			continue
		}
		for _, p := range placed {
			if p.clade.Clade.Equal(c.Clade) || !p.clade.Clade.Compatible(c.Clade) {
				return nil, fmt.Errorf("%w, clade %s conflicts with %s", ErrInternalInconsistency,
					c.Clade.Format(taxa), p.clade.Clade.Format(taxa))
			}
		}
		node := &assemblyNode{clade: c, taxon: -1}
		parent := smallestContaining(placed, c.Clade)
		parent.children = append(parent.children, node)
		placed = append(placed, node)
	}
	for t := 0; t < n; t++ {
		leaf := NewClade(n, t)
		parent := smallestContaining(placed, leaf)
		parent.children = append(parent.children, &assemblyNode{
			clade: SupportedClade{Clade: leaf, Support: tree.NIL_SUPPORT},
			taxon: t,
		})
	}
	tre := tree.NewTree()
	tre.SetRoot(emitNode(tre, root, taxa, attrs))
	if err := tre.UpdateTipIndex(); err != nil {
		return nil, fmt.Errorf("%w, %s", ErrInternalInconsistency, err.Error())
	}
	return tre, nil
}

// placed is ordered by decreasing clade size, so the last containing node is
// the smallest one
func smallestContaining(placed []*assemblyNode, c Clade) *assemblyNode {
	for i := len(placed) - 1; i >= 0; i-- {
		if placed[i].clade.Clade.Contains(c) {
			return placed[i]
		}
	}
	panic("root does not contain clade")
}

func emitNode(tre *tree.Tree, an *assemblyNode, taxa *TaxonSet, attrs *Attributes) *tree.Node {
	node := tre.NewNode()
	if an.taxon >= 0 {
		node.SetName(taxa.Name(an.taxon))
		return node
	}
	slices.SortFunc(an.children, func(a, b *assemblyNode) int {
		return cmp.Compare(a.clade.Clade.First(), b.clade.Clade.First())
	})
	for _, c := range an.children {
		child := emitNode(tre, c, taxa, attrs)
		e := tre.ConnectNodes(node, child)
		if c.taxon < 0 {
			e.SetSupport(c.clade.Support)
			if attrs != nil && c.clade.Count > 0 {
				attrs.Set(child, CountAttribute, c.clade.Count)
			}
		}
	}
	return node
}

// Tree made of a single node named after the only taxon
func SingleTaxonTree(name string) *tree.Tree {
	tre := tree.NewTree()
	node := tre.NewNode()
	node.SetName(name)
	tre.SetRoot(node)
	return tre
}
