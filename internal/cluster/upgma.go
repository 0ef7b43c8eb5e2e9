package cluster

import (
	"math"

	"github.com/evolbioinfo/gotree/tree"

	"github.com/trainrun/jebl2/internal/distance"
	gr "github.com/trainrun/jebl2/internal/graphs"
)

const HeightAttribute = "height"

// UPGMA; produces a rooted ultrametric tree. Internal node heights are
// recorded under HeightAttribute.
type UPGMA struct {
	builder
}

func NewUPGMA(distances distance.Lookup) *UPGMA {
	return &UPGMA{builder{distances: distances}}
}

func (up *UPGMA) Rooted() bool {
	return true
}

func (up *UPGMA) Build(progress gr.ProgressFunc) (*tree.Tree, error) {
	a, err := up.start()
	if err != nil {
		return nil, err
	}
	n := len(a.active)
	if n == 1 {
		return a.trivial()
	}
	total := n - 1
	for step := 1; len(a.active) > 1; step++ {
		bi, bj := -1, -1
		best := math.Inf(1)
		for x, i := range a.active {
			for _, j := range a.active[x+1:] {
				if d := a.d(i, j); d < best {
					best, bi, bj = d, i, j
				}
			}
		}
		ci, cj := a.clusters[bi], a.clusters[bj]
		height := max(best/2, ci.height, cj.height)
		u, err := a.join(bi, bj, nonNegative(height-ci.height), nonNegative(height-cj.height))
		if err != nil {
			return nil, err
		}
		a.clusters[u].height = height
		up.attrs.Set(a.clusters[u].node, HeightAttribute, height)
		si, sj := float64(ci.size), float64(cj.size)
		for _, k := range a.active {
			if k != u {
				a.dist.SetSym(u, k, (si*a.d(bi, k)+sj*a.d(bj, k))/(si+sj))
			}
		}
		if !progress.Report(step, total) {
			return nil, gr.Cancelled(step, total)
		}
	}
	return a.finish(a.clusters[a.active[0]].node)
}
