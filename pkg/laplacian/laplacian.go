// Package laplacian assembles the combinatorial Laplacian L = D - A of an
// ingested graph as a list of COO triplets.
//
// The triplet list is built in a fixed order: one diagonal entry per vertex
// carrying its degree, then two off-diagonal -1 entries per edge. Nothing is
// aggregated here. Duplicate edges and self-loops produce triplets that share
// a coordinate and must be summed by the consumer; [Matrix.Dense] does that
// when converting to the dense symmetric form handed to the eigensolver.
//
// For a graph without self-loops every row and column of L sums to exactly
// zero, and L is symmetric positive semi-definite.
package laplacian

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/specgraph/pkg/errors"
	"github.com/matzehuels/specgraph/pkg/graph"
)

// DefaultSymmetryTol is the absolute tolerance used by [Matrix.Validate]
// when none is given. Laplacian entries are small integers, so any
// asymmetry at all means the triplets were corrupted.
const DefaultSymmetryTol = 1e-12

// Triplet is one (row, col, value) entry of a sparse matrix.
type Triplet struct {
	Row, Col int
	Value    float64
}

// Matrix is an N×N sparse matrix in triplet form.
// Triplets with equal coordinates are additive.
type Matrix struct {
	N        int
	Triplets []Triplet
}

// Build assembles the Laplacian triplets of a graph given its dense edge list
// and degree table. The matrix dimension is len(degrees).
//
// Build is total: it never fails. Index validation happens in [Matrix.Dense].
func Build(edges []graph.Edge, degrees []int) Matrix {
	n := len(degrees)
	ts := make([]Triplet, 0, n+2*len(edges))
	for i, d := range degrees {
		ts = append(ts, Triplet{Row: i, Col: i, Value: float64(d)})
	}
	for _, e := range edges {
		ts = append(ts,
			Triplet{Row: e.U, Col: e.V, Value: -1},
			Triplet{Row: e.V, Col: e.U, Value: -1},
		)
	}
	return Matrix{N: n, Triplets: ts}
}

// FromGraph is shorthand for Build(g.Edges, g.Degrees).
func FromGraph(g *graph.Graph) Matrix {
	return Build(g.Edges, g.Degrees)
}

// checkBounds reports the first triplet whose coordinates fall outside [0, N).
func (m Matrix) checkBounds() error {
	for i, t := range m.Triplets {
		if t.Row < 0 || t.Row >= m.N || t.Col < 0 || t.Col >= m.N {
			return errors.New(errors.ErrCodeDataIntegrity,
				"triplet %d at (%d, %d) outside %dx%d matrix", i, t.Row, t.Col, m.N, m.N)
		}
	}
	return nil
}

// aggregate sums all triplets into a dense N×N row-major array.
func (m Matrix) aggregate() ([]float64, error) {
	if err := m.checkBounds(); err != nil {
		return nil, err
	}
	data := make([]float64, m.N*m.N)
	for _, t := range m.Triplets {
		data[t.Row*m.N+t.Col] += t.Value
	}
	return data, nil
}

// Validate checks that the aggregated matrix is symmetric within tol.
// A non-positive tol selects [DefaultSymmetryTol].
func (m Matrix) Validate(tol float64) error {
	_, err := m.Symmetric(tol)
	return err
}

// Symmetric aggregates the triplets, summing duplicates, verifies symmetry
// within tol and returns the dense symmetric form handed to eigensolvers.
func (m Matrix) Symmetric(tol float64) (*mat.SymDense, error) {
	if tol <= 0 {
		tol = DefaultSymmetryTol
	}
	if m.N == 0 {
		return nil, errors.New(errors.ErrCodeDataIntegrity, "empty matrix")
	}
	data, err := m.aggregate()
	if err != nil {
		return nil, err
	}
	n := m.N
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(data[i*n+j]-data[j*n+i]) > tol {
				return nil, errors.New(errors.ErrCodeDataIntegrity,
					"matrix not symmetric: L[%d][%d]=%g, L[%d][%d]=%g",
					i, j, data[i*n+j], j, i, data[j*n+i])
			}
		}
	}
	return mat.NewSymDense(n, data), nil
}

// Dense aggregates the triplets into a symmetric dense matrix without
// checking symmetry. The upper triangle is authoritative.
func (m Matrix) Dense() (*mat.SymDense, error) {
	if m.N == 0 {
		return nil, errors.New(errors.ErrCodeDataIntegrity, "empty matrix")
	}
	data, err := m.aggregate()
	if err != nil {
		return nil, err
	}
	return mat.NewSymDense(m.N, data), nil
}

// At returns the aggregated entry (i, j). It is O(len(Triplets)) and meant
// for tests and diagnostics.
func (m Matrix) At(i, j int) float64 {
	var v float64
	for _, t := range m.Triplets {
		if t.Row == i && t.Col == j {
			v += t.Value
		}
	}
	return v
}

// RowSums returns the sum of every row of the aggregated matrix.
func (m Matrix) RowSums() []float64 {
	sums := make([]float64, m.N)
	for _, t := range m.Triplets {
		if t.Row >= 0 && t.Row < m.N {
			sums[t.Row] += t.Value
		}
	}
	return sums
}

// ColSums returns the sum of every column of the aggregated matrix.
func (m Matrix) ColSums() []float64 {
	sums := make([]float64, m.N)
	for _, t := range m.Triplets {
		if t.Col >= 0 && t.Col < m.N {
			sums[t.Col] += t.Value
		}
	}
	return sums
}
