package consensus

import (
	"fmt"

	"github.com/evolbioinfo/gotree/tree"

	gr "github.com/trainrun/jebl2/internal/graphs"
)

// Greedy consensus of unrooted trees, tallying the bipartitions induced by
// internal edges.
type GreedyUnrooted struct {
	builder
	outgroup int // taxon index, -1 if unset
}

// Makes greedy unrooted consensus builder. If outgroup is not empty, the
// consensus is displayed rooted on the edge leading to it.
func NewGreedyUnrooted(trees []*tree.Tree, outgroup string, threshold float64) (*GreedyUnrooted, error) {
	b, err := newBuilder(trees, threshold)
	if err != nil {
		return nil, err
	}
	g := &GreedyUnrooted{builder: b, outgroup: -1}
	if outgroup != "" {
		i, ok := b.taxa.Index(outgroup)
		if !ok {
			return nil, fmt.Errorf("%w, outgroup %q is not in the taxon set", gr.ErrInvalidArgument, outgroup)
		}
		g.outgroup = i
	}
	return g, nil
}

func (g *GreedyUnrooted) Build(progress gr.ProgressFunc) (*tree.Tree, error) {
	if err := g.start(); err != nil {
		return nil, err
	}
	reference := max(g.outgroup, 0)
	perTree := make([][]gr.Clade, len(g.trees))
	for i, td := range g.trees {
		perTree[i] = td.Bipartitions(reference)
	}
	accepted, err := g.greedy(tallyClades(perTree), progress)
	if err != nil {
		return nil, err
	}
	if n := g.taxa.Len(); g.outgroup >= 0 && n > 2 {
		ingroup := gr.NewClade(n, g.outgroup).Complement()
		accepted = append(accepted, gr.SupportedClade{Clade: ingroup, Support: tree.NIL_SUPPORT})
	}
	return gr.AssembleTree(g.taxa, accepted, g.attrs)
}

// Greedy consensus of rooted trees, tallying the clades below internal nodes.
type GreedyRooted struct {
	builder
}

func NewGreedyRooted(trees []*tree.Tree, threshold float64) (*GreedyRooted, error) {
	b, err := newBuilder(trees, threshold)
	if err != nil {
		return nil, err
	}
	return &GreedyRooted{builder: b}, nil
}

func (g *GreedyRooted) Build(progress gr.ProgressFunc) (*tree.Tree, error) {
	if err := g.start(); err != nil {
		return nil, err
	}
	perTree := make([][]gr.Clade, len(g.trees))
	for i, td := range g.trees {
		perTree[i] = td.Clades()
	}
	accepted, err := g.greedy(tallyClades(perTree), progress)
	if err != nil {
		return nil, err
	}
	return gr.AssembleTree(g.taxa, accepted, g.attrs)
}
