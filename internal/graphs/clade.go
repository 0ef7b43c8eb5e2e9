package graphs

import (
	"cmp"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Set of taxa (by taxon index) below a node of a rooted tree, or one side of
// a bipartition of an unrooted tree.
type Clade struct {
	bits *bitset.BitSet
}

// Makes clade over a universe of n taxa containing the given taxon indices
func NewClade(n int, taxa ...int) Clade {
	c := Clade{bits: bitset.New(uint(n))}
	for _, t := range taxa {
		c.bits.Set(uint(t))
	}
	return c
}

// Clade containing every taxon of the universe
func FullClade(n int) Clade {
	c := NewClade(n)
	c.bits.FlipRange(0, uint(n))
	return c
}

func (c Clade) Add(taxon int) {
	c.bits.Set(uint(taxon))
}

func (c Clade) Has(taxon int) bool {
	return c.bits.Test(uint(taxon))
}

// Number of taxa in clade
func (c Clade) Len() int {
	return int(c.bits.Count())
}

// Size of the taxon universe the clade is defined over
func (c Clade) Universe() int {
	return int(c.bits.Len())
}

func (c Clade) Clone() Clade {
	return Clade{bits: c.bits.Clone()}
}

func (c Clade) Union(o Clade) Clade {
	return Clade{bits: c.bits.Union(o.bits)}
}

// Complement within the taxon universe
func (c Clade) Complement() Clade {
	return Clade{bits: c.bits.Complement()}
}

// c is a (not necessarily proper) superset of o
func (c Clade) Contains(o Clade) bool {
	return c.bits.IsSuperSet(o.bits)
}

func (c Clade) Intersects(o Clade) bool {
	return c.bits.IntersectionCardinality(o.bits) > 0
}

func (c Clade) Equal(o Clade) bool {
	return c.bits.Equal(o.bits)
}

// Two clades are compatible if they are nested or disjoint. For bipartitions
// stored as the side without a shared reference taxon this is also the split
// compatibility test.
func (c Clade) Compatible(o Clade) bool {
	return c.Contains(o) || o.Contains(c) || !c.Intersects(o)
}

// Trivial clades (a single taxon, or every taxon) are implied by any tree
func (c Clade) Trivial() bool {
	n := c.Len()
	return n <= 1 || n >= c.Universe()
}

// Key usable in maps; equal clades have equal keys
func (c Clade) Key() string {
	return c.bits.String()
}

// Lowest taxon index in clade (-1 if empty)
func (c Clade) First() int {
	i, ok := c.bits.NextSet(0)
	if !ok {
		return -1
	}
	return int(i)
}

func (c Clade) Taxa() []int {
	taxa := make([]int, 0, c.Len())
	for i, ok := c.bits.NextSet(0); ok; i, ok = c.bits.NextSet(i + 1) {
		taxa = append(taxa, int(i))
	}
	return taxa
}

// Deterministic order: smaller clades first, then the clade holding the lowest
// taxon index where the two differ.
func (c Clade) Compare(o Clade) int {
	if d := cmp.Compare(c.Len(), o.Len()); d != 0 {
		return d
	}
	i, ok := c.bits.SymmetricDifference(o.bits).NextSet(0)
	if !ok {
		return 0
	}
	if c.bits.Test(i) {
		return -1
	}
	return 1
}

// Returns clade as string of taxon names for printing/testing
func (c Clade) Format(taxa *TaxonSet) string {
	names := make([]string, 0, c.Len())
	for _, t := range c.Taxa() {
		names = append(names, taxa.Name(t))
	}
	return "{" + strings.Join(names, ",") + "}"
}
