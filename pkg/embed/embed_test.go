package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/specgraph/pkg/errors"
	"github.com/matzehuels/specgraph/pkg/graph"
	"github.com/matzehuels/specgraph/pkg/laplacian"
)

func lap(t *testing.T, edges string) laplacian.Matrix {
	t.Helper()
	g, err := graph.Read(strings.NewReader(edges))
	require.NoError(t, err)
	return laplacian.FromGraph(g)
}

// stubSolver returns fixed eigenpairs and records its last call.
type stubSolver struct {
	values  []float64
	vectors *mat.Dense
	err     error

	calls int
	k     int
	which Which
}

func (s *stubSolver) Decompose(_ context.Context, m *mat.SymDense, k int, which Which) ([]float64, *mat.Dense, error) {
	s.calls++
	s.k = k
	s.which = which
	return s.values, s.vectors, s.err
}

func TestEmbedTriangleSpectrum(t *testing.T) {
	e := New(NewGonumSolver())
	emb, err := e.Embed(context.Background(), lap(t, "0 1\n1 2\n2 0\n"), 2)
	require.NoError(t, err)

	require.Equal(t, 2, emb.K())
	require.Equal(t, 3, emb.N())
	assert.InDelta(t, 0, emb.Values[0], 1e-9)
	assert.InDelta(t, 3, emb.Values[1], 1e-9)
}

func TestEmbedPathSpectrum(t *testing.T) {
	// Path on 4 vertices: eigenvalues 2 - 2cos(pi*j/4).
	e := New(NewGonumSolver())
	emb, err := e.Embed(context.Background(), lap(t, "1 2\n2 3\n3 4\n"), 3)
	require.NoError(t, err)

	for j := 0; j < 3; j++ {
		want := 2 - 2*math.Cos(math.Pi*float64(j)/4)
		assert.InDelta(t, want, emb.Values[j], 1e-9, "lambda_%d", j)
	}
	// Trivial eigenvector is constant with unit norm.
	for r := 0; r < 4; r++ {
		assert.InDelta(t, 0.5, emb.Vectors.At(r, 0), 1e-9)
	}
}

func TestEmbedValuesAscendingAndNonNegative(t *testing.T) {
	L := lap(t, "0 1\n1 2\n2 3\n3 0\n0 2\n4 5\n5 6\n6 4\n3 4\n")
	emb, err := New(NewGonumSolver()).Embed(context.Background(), L, 5)
	require.NoError(t, err)

	for i, v := range emb.Values {
		assert.GreaterOrEqual(t, v, -1e-9, "lambda_%d", i)
		if i > 0 {
			assert.LessOrEqual(t, emb.Values[i-1], v)
		}
	}
}

func TestEmbedEigenpairsSatisfyEquation(t *testing.T) {
	L := lap(t, "0 1\n1 2\n2 3\n3 4\n4 0\n1 3\n")
	emb, err := New(NewGonumSolver()).Embed(context.Background(), L, 4)
	require.NoError(t, err)

	sym, err := L.Symmetric(0)
	require.NoError(t, err)
	for c := 0; c < emb.K(); c++ {
		v := mat.Col(nil, c, emb.Vectors)
		var lv mat.VecDense
		lv.MulVec(sym, mat.NewVecDense(len(v), v))
		for r := range v {
			assert.InDelta(t, emb.Values[c]*v[r], lv.AtVec(r), 1e-9, "col %d row %d", c, r)
		}
	}
}

func TestEmbedKOutOfRange(t *testing.T) {
	L := lap(t, "0 1\n1 2\n")
	stub := &stubSolver{}
	e := New(stub)

	for _, k := range []int{0, -1, 3, 10} {
		t.Run(fmt.Sprint(k), func(t *testing.T) {
			_, err := e.Embed(context.Background(), L, k)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeConfig), "got %v", err)
		})
	}
	assert.Zero(t, stub.calls, "solver must not run for invalid k")
}

func TestEmbedRejectsAsymmetricMatrix(t *testing.T) {
	L := laplacian.Matrix{N: 3, Triplets: []laplacian.Triplet{
		{Row: 0, Col: 0, Value: 1},
		{Row: 0, Col: 1, Value: -1},
		{Row: 2, Col: 2, Value: 1},
	}}
	stub := &stubSolver{}
	_, err := New(stub).Embed(context.Background(), L, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeDataIntegrity))
	assert.Zero(t, stub.calls)
}

func TestEmbedWrapsSolverFailure(t *testing.T) {
	stub := &stubSolver{err: fmt.Errorf("no convergence after 300 iterations")}
	_, err := New(stub).Embed(context.Background(), lap(t, "0 1\n1 2\n2 3\n"), 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeSolver))
	assert.Contains(t, err.Error(), "n=4, k=2")
	assert.Contains(t, err.Error(), "no convergence")
}

func TestEmbedRejectsWrongShape(t *testing.T) {
	stub := &stubSolver{values: []float64{0, 1}, vectors: mat.NewDense(2, 2, nil)}
	_, err := New(stub).Embed(context.Background(), lap(t, "0 1\n1 2\n2 3\n"), 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeSolver))
}

func TestEmbedPassesWhich(t *testing.T) {
	stub := &stubSolver{values: []float64{0, 1}, vectors: mat.NewDense(3, 2, nil)}
	e := New(stub)
	e.Which = SmallestAlgebraic
	_, err := e.Embed(context.Background(), lap(t, "0 1\n1 2\n"), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, stub.k)
	assert.Equal(t, SmallestAlgebraic, stub.which)
}

func TestCanonicalSign(t *testing.T) {
	stub := &stubSolver{
		values: []float64{0, 1},
		vectors: mat.NewDense(3, 2, []float64{
			0.5, 0.2,
			-0.9, 0.7,
			0.1, -0.3,
		}),
	}
	emb, err := New(stub).Embed(context.Background(), lap(t, "0 1\n1 2\n"), 2)
	require.NoError(t, err)

	assert.Equal(t, []float64{-0.5, 0.9, -0.1}, mat.Col(nil, 0, emb.Vectors))
	assert.Equal(t, []float64{0.2, 0.7, -0.3}, mat.Col(nil, 1, emb.Vectors))
}

func TestEmbedDeterministic(t *testing.T) {
	L := lap(t, "0 1\n1 2\n2 3\n3 4\n4 5\n")
	a, err := New(NewGonumSolver()).Embed(context.Background(), L, 3)
	require.NoError(t, err)
	b, err := New(NewGonumSolver()).Embed(context.Background(), L, 3)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a.Vectors, b.Vectors))
}

func TestAxes(t *testing.T) {
	emb := &Embedding{
		Values: []float64{0, 1, 2},
		Vectors: mat.NewDense(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		}),
	}

	xy, err := emb.Axes(true)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 5, 6}, xy.RawMatrix().Data)

	xy, err = emb.Axes(false)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 4, 5}, xy.RawMatrix().Data)

	short := &Embedding{Values: []float64{0, 1}, Vectors: mat.NewDense(2, 2, nil)}
	_, err = short.Axes(true)
	assert.True(t, errors.Is(err, errors.ErrCodeConfig))
}

func TestDegenerate(t *testing.T) {
	tests := []struct {
		values []float64
		want   []int
	}{
		{[]float64{0, 1, 2}, nil},
		{[]float64{0, 3, 3}, []int{1, 2}},
		{[]float64{0, 0, 1, 1, 1}, []int{0, 1, 2, 3, 4}},
		{[]float64{0, 1000, 1000 + 1e-9}, []int{1, 2}},
	}
	for _, tt := range tests {
		emb := &Embedding{Values: tt.values}
		assert.Equal(t, tt.want, emb.Degenerate(1e-9), "values %v", tt.values)
	}
}

func TestEmbeddingJSON(t *testing.T) {
	emb := &Embedding{
		Values:  []float64{0, 0.5},
		Vectors: mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6}),
	}
	b, err := json.Marshal(emb)
	require.NoError(t, err)

	var got Embedding
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, emb.Values, got.Values)
	assert.True(t, mat.Equal(emb.Vectors, got.Vectors))

	err = json.Unmarshal([]byte(`{"n":2,"k":2,"values":[0,1],"vectors":[1]}`), &got)
	require.Error(t, err)
}

func TestGonumSolverLimit(t *testing.T) {
	s := &GonumSolver{MaxDense: 2}
	_, _, err := s.Decompose(context.Background(), mat.NewSymDense(3, nil), 1, SmallestMagnitude)
	assert.Error(t, err)
}

func TestGonumSolverCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewGonumSolver().Decompose(ctx, mat.NewSymDense(2, []float64{1, 0, 0, 1}), 1, SmallestMagnitude)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelectIndices(t *testing.T) {
	values := []float64{-5, -1, 0.5, 2}
	assert.Equal(t, []int{1, 2}, selectIndices(values, 2, SmallestMagnitude))
	assert.Equal(t, []int{0, 1}, selectIndices(values, 2, SmallestAlgebraic))
	assert.Equal(t, []int{0, 1, 2}, selectIndices(values, 3, SmallestMagnitude))
}

func TestParseWhich(t *testing.T) {
	w, err := ParseWhich("SA")
	require.NoError(t, err)
	assert.Equal(t, SmallestAlgebraic, w)
	assert.Equal(t, "SA", w.String())

	w, err = ParseWhich("")
	require.NoError(t, err)
	assert.Equal(t, SmallestMagnitude, w)

	_, err = ParseWhich("LM")
	assert.Error(t, err)
}
