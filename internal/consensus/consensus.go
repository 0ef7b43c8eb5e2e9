// Package consensus builds a single tree summarizing a collection of trees over
// one taxon set, with each internal edge's support set to the fraction of
// input trees containing its clade or bipartition.
package consensus

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/evolbioinfo/gotree/tree"

	gr "github.com/trainrun/jebl2/internal/graphs"
)

// Consensus strategy. Tally returns the support values considered during the
// last build; Attributes holds the per-node "count" of input trees.
type Builder interface {
	Build(progress gr.ProgressFunc) (*tree.Tree, error)
	Tally() []float64
	Attributes() *gr.Attributes
}

// State shared by the consensus strategies
type builder struct {
	trees     []*gr.TreeData
	taxa      *gr.TaxonSet
	threshold float64
	attrs     *gr.Attributes
	tally     []float64
	used      bool
}

// Validates threshold and taxon sets, and preprocesses the input trees. No
// tallying happens here.
func newBuilder(trees []*tree.Tree, threshold float64) (builder, error) {
	if err := gr.CheckThreshold(threshold); err != nil {
		return builder{}, err
	}
	taxa, err := gr.CommonTaxa(trees)
	if err != nil {
		return builder{}, err
	}
	tds := make([]*gr.TreeData, len(trees))
	for i, tre := range trees {
		if tds[i], err = gr.MakeTreeData(tre, taxa); err != nil {
			return builder{}, fmt.Errorf("tree %d: %w", i+1, err)
		}
	}
	return builder{trees: tds, taxa: taxa, threshold: threshold}, nil
}

func (b *builder) start() error {
	if b.used {
		return fmt.Errorf("%w, consensus builder has already been used", gr.ErrInvalidArgument)
	}
	b.used = true
	b.attrs = gr.NewAttributes()
	return nil
}

func (b *builder) Tally() []float64 {
	return slices.Clone(b.tally)
}

func (b *builder) Attributes() *gr.Attributes {
	return b.attrs
}

func (b *builder) frequency(count int) float64 {
	return float64(count) / float64(len(b.trees))
}

type candidate struct {
	clade gr.Clade
	count int
}

// Counts how many trees contain each distinct clade and sorts the result by
// decreasing count, breaking ties with the clade order.
func tallyClades(perTree [][]gr.Clade) []candidate {
	index := make(map[string]int)
	candidates := make([]candidate, 0)
	for _, clades := range perTree {
		for _, c := range clades {
			if i, ok := index[c.Key()]; ok {
				candidates[i].count++
			} else {
				index[c.Key()] = len(candidates)
				candidates = append(candidates, candidate{clade: c, count: 1})
			}
		}
	}
	slices.SortFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return a.clade.Compare(b.clade)
	})
	return candidates
}

// Walks candidates by decreasing frequency, accepting each one at or above
// the threshold that is compatible with everything accepted before it.
func (b *builder) greedy(candidates []candidate, progress gr.ProgressFunc) ([]gr.SupportedClade, error) {
	b.tally = make([]float64, len(candidates))
	eligible := 0
	for i, c := range candidates {
		b.tally[i] = b.frequency(c.count)
		if b.tally[i] >= b.threshold {
			eligible++
		}
	}
	accepted := make([]gr.SupportedClade, 0)
	for step, c := range candidates[:eligible] {
		compatible := true
		for _, a := range accepted {
			if !a.Clade.Compatible(c.clade) {
				compatible = false
				break
			}
		}
		if compatible {
			accepted = append(accepted, gr.SupportedClade{
				Clade:   c.clade,
				Support: b.tally[step],
				Count:   c.count,
			})
		}
		if !progress.Report(step+1, eligible) {
			return nil, gr.Cancelled(step+1, eligible)
		}
	}
	return accepted, nil
}
