package embed

import (
	"context"
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/specgraph/pkg/errors"
	"github.com/matzehuels/specgraph/pkg/laplacian"
)

// DefaultK is the number of eigenpairs requested when none is configured.
// Three pairs leave room to drop the trivial one and still draw in 2-D.
const DefaultK = 3

// Embedder turns a Laplacian into an [Embedding].
type Embedder struct {
	Solver        Solver
	Which         Which
	CanonicalSign bool
	// SymmetryTol is passed to [laplacian.Matrix.Symmetric].
	SymmetryTol float64
}

// New returns an Embedder backed by solver, selecting smallest-magnitude
// eigenpairs with canonical signs.
func New(solver Solver) *Embedder {
	return &Embedder{
		Solver:        solver,
		Which:         SmallestMagnitude,
		CanonicalSign: true,
	}
}

// Embed validates L and computes k eigenpairs.
//
// k must satisfy 1 <= k < n; anything else is a configuration error.
// Asymmetric or malformed input is a data integrity error. Solver failures
// are reported as solver errors carrying n and k.
func (e *Embedder) Embed(ctx context.Context, L laplacian.Matrix, k int) (*Embedding, error) {
	n := L.N
	if k < 1 || k >= n {
		return nil, errors.New(errors.ErrCodeConfig,
			"k=%d out of range for %d vertices (need 1 <= k < n)", k, n)
	}
	if e.Solver == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no eigensolver configured")
	}

	sym, err := L.Symmetric(e.SymmetryTol)
	if err != nil {
		return nil, err
	}

	values, vectors, err := e.Solver.Decompose(ctx, sym, k, e.Which)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeSolver, err, "eigensolver failed (n=%d, k=%d)", n, k)
	}
	if len(values) != k || vectors == nil {
		return nil, errors.New(errors.ErrCodeSolver,
			"eigensolver returned %d values, want %d (n=%d)", len(values), k, n)
	}
	if r, c := vectors.Dims(); r != n || c != k {
		return nil, errors.New(errors.ErrCodeSolver,
			"eigensolver returned %dx%d vectors, want %dx%d", r, c, n, k)
	}

	emb := &Embedding{Values: values, Vectors: vectors}
	if e.CanonicalSign {
		emb.canonicalize()
	}
	return emb, nil
}

// Embedding holds k eigenpairs of an n-vertex Laplacian.
// Column j of Vectors is the eigenvector for Values[j].
type Embedding struct {
	Values  []float64
	Vectors *mat.Dense
}

// N returns the number of vertices.
func (e *Embedding) N() int {
	r, _ := e.Vectors.Dims()
	return r
}

// K returns the number of eigenpairs.
func (e *Embedding) K() int { return len(e.Values) }

// Axes returns the n×2 coordinate matrix used for drawing.
// With skipTrivial the columns are 1 and 2, otherwise 0 and 1.
func (e *Embedding) Axes(skipTrivial bool) (*mat.Dense, error) {
	first := 0
	if skipTrivial {
		first = 1
	}
	if e.K() < first+2 {
		return nil, errors.New(errors.ErrCodeConfig,
			"need at least %d eigenvectors to draw (have %d)", first+2, e.K())
	}
	n := e.N()
	xy := mat.NewDense(n, 2, nil)
	xy.Copy(e.Vectors.Slice(0, n, first, first+2))
	return xy, nil
}

// Degenerate returns the column indices whose eigenvalue is repeated within
// tol (relative to the magnitude, absolute near zero). Eigenvectors in those
// columns are not unique and may differ between solvers.
func (e *Embedding) Degenerate(tol float64) []int {
	var cols []int
	seen := make(map[int]bool)
	for i := 1; i < len(e.Values); i++ {
		a, b := e.Values[i-1], e.Values[i]
		scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
		if math.Abs(a-b) <= tol*scale {
			for _, c := range []int{i - 1, i} {
				if !seen[c] {
					seen[c] = true
					cols = append(cols, c)
				}
			}
		}
	}
	return cols
}

// canonicalize flips each column so its largest-magnitude component is
// positive. Ties go to the lowest row.
func (e *Embedding) canonicalize() {
	n, k := e.Vectors.Dims()
	for c := 0; c < k; c++ {
		best, bestAbs := 0, -1.0
		for r := 0; r < n; r++ {
			if a := math.Abs(e.Vectors.At(r, c)); a > bestAbs {
				best, bestAbs = r, a
			}
		}
		if e.Vectors.At(best, c) < 0 {
			for r := 0; r < n; r++ {
				e.Vectors.Set(r, c, -e.Vectors.At(r, c))
			}
		}
	}
}

type embeddingJSON struct {
	N       int       `json:"n"`
	K       int       `json:"k"`
	Values  []float64 `json:"values"`
	Vectors []float64 `json:"vectors"`
}

// MarshalJSON encodes the embedding with its vectors in row-major order.
func (e *Embedding) MarshalJSON() ([]byte, error) {
	n, k := e.Vectors.Dims()
	data := make([]float64, 0, n*k)
	for r := 0; r < n; r++ {
		data = append(data, e.Vectors.RawRowView(r)...)
	}
	return json.Marshal(embeddingJSON{N: n, K: k, Values: e.Values, Vectors: data})
}

// UnmarshalJSON decodes an embedding produced by MarshalJSON.
func (e *Embedding) UnmarshalJSON(b []byte) error {
	var raw embeddingJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.N < 1 || raw.K < 1 || len(raw.Values) != raw.K || len(raw.Vectors) != raw.N*raw.K {
		return errors.New(errors.ErrCodeDataIntegrity,
			"embedding shape mismatch: n=%d k=%d values=%d vectors=%d",
			raw.N, raw.K, len(raw.Values), len(raw.Vectors))
	}
	e.Values = raw.Values
	e.Vectors = mat.NewDense(raw.N, raw.K, raw.Vectors)
	return nil
}
