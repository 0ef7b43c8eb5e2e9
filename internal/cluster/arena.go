// Package cluster builds trees by agglomerative clustering of a distance
// matrix (Neighbor-Joining and UPGMA). Builders are single use: each holds the
// mutable state of one run.
package cluster

import (
	"fmt"
	"slices"

	"github.com/evolbioinfo/gotree/tree"
	"gonum.org/v1/gonum/mat"

	"github.com/trainrun/jebl2/internal/distance"
	gr "github.com/trainrun/jebl2/internal/graphs"
)

// Agglomerative clustering strategy
type Builder interface {
	Build(progress gr.ProgressFunc) (*tree.Tree, error)
	Rooted() bool
	Attributes() *gr.Attributes
}

// Working node of the clustering
type cluster struct {
	node   *tree.Node
	size   int     // number of leaves below
	height float64 // distance to leaves (UPGMA only)
	active bool
}

// Clusters are stored by index in an arena sized for every node the
// clustering can create (2n-1); indices are never reused, so a merged
// cluster's distances stay readable while the new row is filled in.
type arena struct {
	tre      *tree.Tree
	clusters []cluster
	dist     *mat.SymDense // working distances, indexed like clusters
	active   []int         // active cluster indices in increasing order
}

func newArena(dm distance.Lookup) *arena {
	taxa := dm.Taxa()
	n := len(taxa)
	a := &arena{
		tre:      tree.NewTree(),
		clusters: make([]cluster, n, 2*n-1),
		dist:     mat.NewSymDense(2*n-1, nil),
		active:   make([]int, n),
	}
	for i, name := range taxa {
		node := a.tre.NewNode()
		node.SetName(name)
		a.clusters[i] = cluster{node: node, size: 1, active: true}
		a.active[i] = i
		for j := i + 1; j < n; j++ {
			a.dist.SetSym(i, j, dm.Distance(i, j))
		}
	}
	return a
}

func (a *arena) d(i, j int) float64 {
	return a.dist.At(i, j)
}

// Joins clusters i and j under a new node with the given branch lengths and
// returns the new cluster's index.
func (a *arena) join(i, j int, li, lj float64) (int, error) {
	u := len(a.clusters)
	if u == cap(a.clusters) {
		return 0, fmt.Errorf("%w, cluster arena full (%d)", gr.ErrInternalInconsistency, u)
	}
	if !a.clusters[i].active || !a.clusters[j].active || i == j {
		return 0, fmt.Errorf("%w, cannot join clusters %d and %d", gr.ErrInternalInconsistency, i, j)
	}
	node := a.tre.NewNode()
	a.tre.ConnectNodes(node, a.clusters[i].node).SetLength(li)
	a.tre.ConnectNodes(node, a.clusters[j].node).SetLength(lj)
	a.clusters = append(a.clusters, cluster{
		node:   node,
		size:   a.clusters[i].size + a.clusters[j].size,
		active: true,
	})
	a.clusters[i].active, a.clusters[j].active = false, false
	a.active = slices.DeleteFunc(a.active, func(k int) bool { return k == i || k == j })
	a.active = append(a.active, u)
	return u, nil
}

// Sets root and finalizes tree
func (a *arena) finish(root *tree.Node) (*tree.Tree, error) {
	a.tre.SetRoot(root)
	if err := a.tre.UpdateTipIndex(); err != nil {
		return nil, fmt.Errorf("%w, %s", gr.ErrInternalInconsistency, err.Error())
	}
	return a.tre, nil
}

// Trees for fewer than three taxa: a lone node, or two tips joined at d/2
func (a *arena) trivial() (*tree.Tree, error) {
	if len(a.active) == 1 {
		a.tre.SetRoot(a.clusters[0].node)
		return a.tre, nil
	}
	half := a.d(0, 1) / 2
	u, err := a.join(0, 1, half, half)
	if err != nil {
		return nil, err
	}
	a.clusters[u].height = half
	return a.finish(a.clusters[u].node)
}

// State shared by the clustering strategies
type builder struct {
	distances distance.Lookup
	attrs     *gr.Attributes
	used      bool
}

// Checks the builder is fresh and the matrix well formed, then sets up the
// arena.
func (b *builder) start() (*arena, error) {
	if b.used {
		return nil, fmt.Errorf("%w, tree builder has already been used", gr.ErrInvalidArgument)
	}
	b.used = true
	if err := distance.Validate(b.distances); err != nil {
		return nil, err
	}
	b.attrs = gr.NewAttributes()
	return newArena(b.distances), nil
}

// Node attributes recorded during Build (nil before)
func (b *builder) Attributes() *gr.Attributes {
	return b.attrs
}

// Negative branch lengths (from non-additive input) are set to zero
func nonNegative(length float64) float64 {
	return max(length, 0)
}
