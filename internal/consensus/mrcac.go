package consensus

import (
	"cmp"
	"slices"

	"github.com/evolbioinfo/gotree/tree"

	gr "github.com/trainrun/jebl2/internal/graphs"
)

// MRCA-clade consensus of rooted trees. Starting from single taxa, each step
// looks at every pair of working clusters, finds the clade below the pair's
// most recent common ancestor in each input tree, and takes the most common
// one as the pair's candidate. Candidates below the threshold or cutting
// through a working cluster are skipped; of the rest, the one with the fewest
// taxa is merged (ties: higher support, then earlier pair). When no candidate
// qualifies the remaining clusters are joined at the root.
type MRCAC struct {
	builder
}

func NewMRCAC(trees []*tree.Tree, threshold float64) (*MRCAC, error) {
	b, err := newBuilder(trees, threshold)
	if err != nil {
		return nil, err
	}
	return &MRCAC{builder: b}, nil
}

type mrcaCandidate struct {
	clade gr.Clade
	count int
}

func (m *MRCAC) Build(progress gr.ProgressFunc) (*tree.Tree, error) {
	if err := m.start(); err != nil {
		return nil, err
	}
	n := m.taxa.Len()
	active := make([]gr.Clade, n)
	for i := 0; i < n; i++ {
		active[i] = gr.NewClade(n, i)
	}
	accepted := make([]gr.SupportedClade, 0)
	m.tally = make([]float64, 0)
	total := n - 1
	for len(active) > 1 {
		var best *mrcaCandidate
		for i := range active {
			for j := i + 1; j < len(active); j++ {
				c := m.modalMRCA(active[i].Union(active[j]))
				if m.frequency(c.count) < m.threshold || !unionOfClusters(c.clade, active) {
					continue
				}
				if best == nil || c.clade.Len() < best.clade.Len() ||
					c.clade.Len() == best.clade.Len() && c.count > best.count {
					best = &c
				}
			}
		}
		if best != nil {
			m.tally = append(m.tally, m.frequency(best.count))
			active = slices.DeleteFunc(active, func(c gr.Clade) bool { return best.clade.Contains(c) })
			active = append(active, best.clade)
			slices.SortFunc(active, func(a, b gr.Clade) int { return cmp.Compare(a.First(), b.First()) })
			if best.clade.Len() < n {
				accepted = append(accepted, gr.SupportedClade{
					Clade:   best.clade,
					Support: m.frequency(best.count),
					Count:   best.count,
				})
			}
		} else {
			active = []gr.Clade{gr.FullClade(n)}
		}
		step := n - len(active)
		if !progress.Report(step, total) {
			return nil, gr.Cancelled(step, total)
		}
	}
	return gr.AssembleTree(m.taxa, accepted, m.attrs)
}

// Most common MRCA clade of taxa across the input trees (ties: fewer taxa,
// then clade order)
func (m *MRCAC) modalMRCA(taxa gr.Clade) mrcaCandidate {
	index := make(map[string]int)
	counts := make([]mrcaCandidate, 0)
	for _, td := range m.trees {
		c := td.MRCAClade(taxa)
		if i, ok := index[c.Key()]; ok {
			counts[i].count++
		} else {
			index[c.Key()] = len(counts)
			counts = append(counts, mrcaCandidate{clade: c, count: 1})
		}
	}
	return slices.MinFunc(counts, func(a, b mrcaCandidate) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return a.clade.Compare(b.clade)
	})
}

// c is made of whole working clusters
func unionOfClusters(c gr.Clade, active []gr.Clade) bool {
	for _, a := range active {
		if c.Intersects(a) && !c.Contains(a) {
			return false
		}
	}
	return true
}
