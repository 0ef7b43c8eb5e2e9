package cluster

import (
	"math"

	"github.com/evolbioinfo/gotree/tree"

	"github.com/trainrun/jebl2/internal/distance"
	gr "github.com/trainrun/jebl2/internal/graphs"
)

// Neighbor-Joining; produces an unrooted tree whose root is the final
// trifurcation.
type NeighborJoining struct {
	builder
}

func NewNeighborJoining(distances distance.Lookup) *NeighborJoining {
	return &NeighborJoining{builder{distances: distances}}
}

func (nj *NeighborJoining) Rooted() bool {
	return false
}

func (nj *NeighborJoining) Build(progress gr.ProgressFunc) (*tree.Tree, error) {
	a, err := nj.start()
	if err != nil {
		return nil, err
	}
	n := len(a.active)
	if n < 3 {
		return a.trivial()
	}
	total := n - 2
	r := make([]float64, 2*n-1) // net divergence of each active cluster
	for step := 1; len(a.active) > 3; step++ {
		m := len(a.active)
		for _, i := range a.active {
			r[i] = 0
			for _, k := range a.active {
				r[i] += a.d(i, k)
			}
		}
		bi, bj := -1, -1
		best := math.Inf(1)
		for x, i := range a.active {
			for _, j := range a.active[x+1:] {
				if q := float64(m-2)*a.d(i, j) - r[i] - r[j]; q < best {
					best, bi, bj = q, i, j
				}
			}
		}
		dij := a.d(bi, bj)
		li := dij/2 + (r[bi]-r[bj])/float64(2*(m-2))
		lj := dij - li
		u, err := a.join(bi, bj, nonNegative(li), nonNegative(lj))
		if err != nil {
			return nil, err
		}
		for _, k := range a.active {
			if k != u {
				a.dist.SetSym(u, k, (a.d(bi, k)+a.d(bj, k)-dij)/2)
			}
		}
		if !progress.Report(step, total) {
			return nil, gr.Cancelled(step, total)
		}
	}
	x, y, z := a.active[0], a.active[1], a.active[2]
	dxy, dxz, dyz := a.d(x, y), a.d(x, z), a.d(y, z)
	root := a.tre.NewNode()
	a.tre.ConnectNodes(root, a.clusters[x].node).SetLength(nonNegative((dxy + dxz - dyz) / 2))
	a.tre.ConnectNodes(root, a.clusters[y].node).SetLength(nonNegative((dxy + dyz - dxz) / 2))
	a.tre.ConnectNodes(root, a.clusters[z].node).SetLength(nonNegative((dxz + dyz - dxy) / 2))
	if !progress.Report(total, total) {
		return nil, gr.Cancelled(total, total)
	}
	return a.finish(root)
}
