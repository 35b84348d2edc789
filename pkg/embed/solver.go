package embed

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Which selects the end of the spectrum a solver returns.
type Which int

const (
	// SmallestMagnitude selects the eigenvalues closest to zero.
	SmallestMagnitude Which = iota
	// SmallestAlgebraic selects the most negative eigenvalues.
	SmallestAlgebraic
)

// String returns the short name used in flags and cache keys.
func (w Which) String() string {
	switch w {
	case SmallestMagnitude:
		return "SM"
	case SmallestAlgebraic:
		return "SA"
	default:
		return fmt.Sprintf("Which(%d)", int(w))
	}
}

// ParseWhich parses "SM" or "SA" (case-sensitive, as in ARPACK).
func ParseWhich(s string) (Which, error) {
	switch s {
	case "SM", "":
		return SmallestMagnitude, nil
	case "SA":
		return SmallestAlgebraic, nil
	default:
		return 0, fmt.Errorf("invalid eigenvalue selection %q (must be SM or SA)", s)
	}
}

// Solver computes k eigenpairs of a symmetric matrix.
//
// Implementations return the eigenvalues in ascending order and the
// corresponding orthonormal eigenvectors as the columns of an n×k matrix.
// A failure to converge is reported as an error.
type Solver interface {
	Decompose(ctx context.Context, m *mat.SymDense, k int, which Which) ([]float64, *mat.Dense, error)
}

// DefaultMaxDense is the largest matrix [GonumSolver] factorizes by default.
// A dense n×n float64 matrix at this size already needs ~3 GiB.
const DefaultMaxDense = 20000

// GonumSolver decomposes matrices with gonum's dense symmetric eigensolver.
// It computes the full spectrum and keeps the requested k pairs.
type GonumSolver struct {
	// MaxDense caps the matrix dimension. Zero means DefaultMaxDense.
	MaxDense int
}

// NewGonumSolver creates a solver with default limits.
func NewGonumSolver() *GonumSolver {
	return &GonumSolver{MaxDense: DefaultMaxDense}
}

// Decompose implements Solver.
func (s *GonumSolver) Decompose(ctx context.Context, m *mat.SymDense, k int, which Which) ([]float64, *mat.Dense, error) {
	n := m.SymmetricDim()
	limit := s.MaxDense
	if limit <= 0 {
		limit = DefaultMaxDense
	}
	if n > limit {
		return nil, nil, fmt.Errorf("matrix dimension %d exceeds dense solver limit %d", n, limit)
	}
	if k < 1 || k > n {
		return nil, nil, fmt.Errorf("cannot select %d eigenpairs of a %dx%d matrix", k, n, n)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var es mat.EigenSym
	if ok := es.Factorize(m, true); !ok {
		return nil, nil, fmt.Errorf("eigen-decomposition did not converge")
	}
	all := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	idx := selectIndices(all, k, which)
	values := make([]float64, k)
	out := mat.NewDense(n, k, nil)
	for c, i := range idx {
		values[c] = all[i]
		for r := 0; r < n; r++ {
			out.Set(r, c, vecs.At(r, i))
		}
	}
	return values, out, nil
}

// selectIndices picks k indices of ascending values according to which,
// returned in ascending value order.
func selectIndices(values []float64, k int, which Which) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	if which == SmallestMagnitude {
		sort.SliceStable(idx, func(a, b int) bool {
			return math.Abs(values[idx[a]]) < math.Abs(values[idx[b]])
		})
	}
	idx = idx[:k]
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})
	return idx
}

// Ensure GonumSolver implements Solver.
var _ Solver = (*GonumSolver)(nil)
