// Package distance holds the symmetric pairwise distance matrix consumed by
// the clustering tree builders.
package distance

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	gr "github.com/trainrun/jebl2/internal/graphs"
)

// relative tolerance used when checking symmetry
const symmetryTolerance = 1e-9

var ErrMalformed = fmt.Errorf("%w, malformed distance matrix", gr.ErrInvalidArgument)

// Read-only pairwise distances over an ordered taxon list. Distance(i, j) is
// indexed by position in Taxa().
type Lookup interface {
	Taxa() []string
	Distance(i, j int) float64
}

// Immutable symmetric distance matrix
type Matrix struct {
	taxa   []string
	values *mat.SymDense
}

// Makes a matrix from a full square table of distances. The diagonal is
// ignored (implicitly zero). Returns ErrMalformed if the table is not square,
// not symmetric, or holds negative or non-finite distances.
func NewMatrix(taxa []string, rows [][]float64) (*Matrix, error) {
	n := len(taxa)
	if len(rows) != n {
		return nil, fmt.Errorf("%w, %d taxa but %d rows", ErrMalformed, n, len(rows))
	}
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w, row %d (%s) has %d columns, expected %d", ErrMalformed, i+1, taxa[i], len(row), n)
		}
	}
	if err := Validate(tableLookup{taxa: taxa, rows: rows}); err != nil {
		return nil, err
	}
	values := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			values.SetSym(i, j, rows[i][j])
		}
	}
	return &Matrix{taxa: slices.Clone(taxa), values: values}, nil
}

// Taxa in matrix order. A nil matrix has no taxa.
func (m *Matrix) Taxa() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.taxa)
}

func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.taxa)
}

func (m *Matrix) Distance(i, j int) float64 {
	if i == j {
		return 0
	}
	return m.values.At(i, j)
}

// Distance between two taxa by name
func (m *Matrix) Between(a, b string) (float64, error) {
	i, j := slices.Index(m.taxa, a), slices.Index(m.taxa, b)
	if i < 0 || j < 0 {
		return 0, fmt.Errorf("%w, unknown taxon in pair (%s, %s)", gr.ErrInvalidArgument, a, b)
	}
	return m.Distance(i, j), nil
}

// Validate checks any Lookup for duplicate taxa, negative or non-finite
// distances, and asymmetry.
func Validate(l Lookup) error {
	taxa := l.Taxa()
	if len(taxa) == 0 {
		return fmt.Errorf("%w, no taxa", ErrMalformed)
	}
	if _, err := gr.NewTaxonSet(taxa); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	for i := range taxa {
		for j := i + 1; j < len(taxa); j++ {
			dij, dji := l.Distance(i, j), l.Distance(j, i)
			switch {
			case math.IsNaN(dij) || math.IsInf(dij, 0) || math.IsNaN(dji) || math.IsInf(dji, 0):
				return fmt.Errorf("%w, distance between %s and %s is not finite", ErrMalformed, taxa[i], taxa[j])
			case dij < 0:
				return fmt.Errorf("%w, negative distance %g between %s and %s", ErrMalformed, dij, taxa[i], taxa[j])
			case math.Abs(dij-dji) > symmetryTolerance*math.Max(1, math.Abs(dij)):
				return fmt.Errorf("%w, d(%s,%s) = %g but d(%s,%s) = %g",
					ErrMalformed, taxa[i], taxa[j], dij, taxa[j], taxa[i], dji)
			}
		}
	}
	return nil
}

// unvalidated view of a raw table, used to validate before building a Matrix
type tableLookup struct {
	taxa []string
	rows [][]float64
}

func (t tableLookup) Taxa() []string            { return t.taxa }
func (t tableLookup) Distance(i, j int) float64 { return t.rows[i][j] }
