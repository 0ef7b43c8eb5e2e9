// Package containing the graph-like bookkeeping shared by the tree builders:
// clades and bipartitions, per-tree leafsets, tree assembly from compatible
// clades, node attributes, and the error taxonomy of the builders.
package graphs

import (
	"fmt"

	"github.com/evolbioinfo/gotree/tree"
)

// Expanded tree struct containing the preprocessed data needed for tallying
// clades and bipartitions. Node ids are local to TreeData and assigned in post
// order, so every child id is lower than its parent's and the root is last.
type TreeData struct {
	*tree.Tree
	Taxa      *TaxonSet    // taxon set leafsets are defined over
	Children  [][]int      // Children for each node
	Parents   []int        // Parent of each node (-1 for root)
	IdToNodes []*tree.Node // Mapping between id and node pointer
	Leafsets  []Clade      // Leaves under each node
	tipNodes  []int        // taxon index to node id
	nodeIds   map[*tree.Node]int
}

// Preprocess tree data over the given taxon set. Returns ErrInvalidArgument
// if a leaf of the tree is not in the taxon set.
func MakeTreeData(tre *tree.Tree, taxa *TaxonSet) (*TreeData, error) {
	idToNodes, nodeIds, parents := mapIdToNodes(tre)
	children := children(parents)
	td := &TreeData{
		Tree:      tre,
		Taxa:      taxa,
		Children:  children,
		Parents:   parents,
		IdToNodes: idToNodes,
		nodeIds:   nodeIds,
	}
	if err := td.calcLeafsets(); err != nil {
		return nil, err
	}
	return td, nil
}

// Create mapping from id to node pointer, along with each node's parent id
func mapIdToNodes(tre *tree.Tree) ([]*tree.Node, map[*tree.Node]int, []int) {
	idMap := make([]*tree.Node, 0)
	ids := make(map[*tree.Node]int)
	parentOf := make(map[*tree.Node]*tree.Node)
	tre.PostOrder(func(cur, prev *tree.Node, e *tree.Edge) (keep bool) {
		ids[cur] = len(idMap)
		idMap = append(idMap, cur)
		parentOf[cur] = prev
		return true
	})
	parents := make([]int, len(idMap))
	for id, n := range idMap {
		if p := parentOf[n]; p != nil {
			parents[id] = ids[p]
		} else {
			parents[id] = -1
		}
	}
	return idMap, ids, parents
}

// Calculate children for each node for quick access (as gotree's Tree only
// stores neighbors)
func children(parents []int) [][]int {
	children := make([][]int, len(parents))
	for id, p := range parents {
		if p >= 0 {
			children[p] = append(children[p], id)
		}
	}
	return children
}

// Calculates the leafset for every node
func (td *TreeData) calcLeafsets() error {
	n := td.Taxa.Len()
	td.Leafsets = make([]Clade, len(td.IdToNodes))
	td.tipNodes = make([]int, n)
	for i := range td.tipNodes {
		td.tipNodes[i] = -1
	}
	for id, node := range td.IdToNodes {
		if td.IsLeaf(id) {
			ti, ok := td.Taxa.Index(node.Name())
			if !ok {
				return fmt.Errorf("%w, leaf %q is not in the taxon set", ErrInvalidArgument, node.Name())
			}
			if td.tipNodes[ti] != -1 {
				return fmt.Errorf("%w, leaf %q appears more than once", ErrInvalidArgument, node.Name())
			}
			td.tipNodes[ti] = id
			td.Leafsets[id] = NewClade(n, ti)
			continue
		}
		ls := td.Leafsets[td.Children[id][0]].Clone()
		for _, c := range td.Children[id][1:] {
			ls.bits.InPlaceUnion(td.Leafsets[c].bits)
		}
		td.Leafsets[id] = ls
	}
	for ti, id := range td.tipNodes {
		if id == -1 {
			return fmt.Errorf("%w, taxon %q missing from tree", ErrInvalidArgument, td.Taxa.Name(ti))
		}
	}
	return nil
}

func (td *TreeData) IsLeaf(id int) bool {
	return len(td.Children[id]) == 0
}

func (td *TreeData) RootID() int {
	return len(td.IdToNodes) - 1
}

// Node id of a tree node
func (td *TreeData) NodeID(n *tree.Node) int {
	return td.nodeIds[n]
}

// Node id of the leaf carrying the taxon
func (td *TreeData) TipToNodeID(taxon int) int {
	return td.tipNodes[taxon]
}

// Returns clades of all internal nodes other than the root, ignoring
// duplicates created by unifurcations and trivial clades.
func (td *TreeData) Clades() []Clade {
	seen := make(map[string]bool)
	clades := make([]Clade, 0)
	for id := 0; id < td.RootID(); id++ {
		ls := td.Leafsets[id]
		if td.IsLeaf(id) || ls.Trivial() || seen[ls.Key()] {
			continue
		}
		seen[ls.Key()] = true
		clades = append(clades, ls)
	}
	return clades
}

// Returns the nontrivial bipartitions induced by the tree's edges. Each is
// stored as the side not containing the reference taxon, so that the two
// edges below a degree-two root yield the same bipartition once.
func (td *TreeData) Bipartitions(reference int) []Clade {
	n := td.Taxa.Len()
	seen := make(map[string]bool)
	splits := make([]Clade, 0)
	for id := 0; id < td.RootID(); id++ {
		side := td.Leafsets[id]
		if side.Has(reference) {
			side = side.Complement()
		}
		if size := side.Len(); size < 2 || size > n-2 || seen[side.Key()] {
			continue
		}
		seen[side.Key()] = true
		splits = append(splits, side)
	}
	return splits
}

// Id of the most recent common ancestor of all taxa in clade
func (td *TreeData) MRCA(c Clade) int {
	first := c.First()
	if first < 0 {
		panic("MRCA of empty clade")
	}
	cur := td.tipNodes[first]
	for !td.Leafsets[cur].Contains(c) {
		cur = td.Parents[cur]
	}
	return cur
}

// Leafset of the most recent common ancestor of all taxa in clade
func (td *TreeData) MRCAClade(c Clade) Clade {
	return td.Leafsets[td.MRCA(c)]
}

// Returns leafset as string for printing/testing
func (td *TreeData) LeafsetAsString(n *tree.Node) string {
	return td.Leafsets[td.NodeID(n)].Format(td.Taxa)
}
