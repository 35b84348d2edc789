package pipeline

import (
	"context"
	"encoding/json"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/specgraph/pkg/cache"
	"github.com/matzehuels/specgraph/pkg/embed"
	"github.com/matzehuels/specgraph/pkg/graph"
	"github.com/matzehuels/specgraph/pkg/laplacian"
	"github.com/matzehuels/specgraph/pkg/observability"
)

// Layout is the output of the layout stage.
type Layout struct {
	Embedding *embed.Embedding
	// Coords holds the two eigenvector columns that are drawn.
	Coords *mat.Dense
	// Triplets is the number of Laplacian entries before aggregation.
	Triplets int
}

// Layout computes the embedding of g and selects the drawing axes.
func (r *Runner) Layout(ctx context.Context, g *graph.Graph, opts Options) (*Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return l, err
}

// LayoutWithCacheInfo is Layout that also reports whether the embedding came
// from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g *graph.Graph, opts Options) (*Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	key := r.Keyer.EmbeddingKey(cache.Hash(graph.MarshalDense(g)), opts.EmbeddingKeyOpts())
	out := &Layout{Triplets: g.N() + 2*g.EdgeCount()}

	emb, hit := r.cachedEmbedding(ctx, key, g.N(), opts)
	if !hit {
		var err error
		emb, err = r.computeEmbedding(ctx, g, opts)
		if err != nil {
			return nil, false, err
		}
		if data, err := json.Marshal(emb); err == nil {
			if err := r.Cache.Set(ctx, key, data, cache.EmbeddingTTL); err != nil {
				opts.Logger.Debug("cache write failed", "kind", cache.KindEmbedding, "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, cache.KindEmbedding, len(data))
			}
		}
	}

	coords, err := emb.Axes(opts.SkipTrivial)
	if err != nil {
		return nil, hit, err
	}
	out.Embedding = emb
	out.Coords = coords
	return out, hit, nil
}

func (r *Runner) cachedEmbedding(ctx context.Context, key string, n int, opts Options) (*embed.Embedding, bool) {
	if opts.Refresh {
		return nil, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		opts.Logger.Debug("cache read failed", "kind", cache.KindEmbedding, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, cache.KindEmbedding)
		return nil, false
	}
	var emb embed.Embedding
	if err := json.Unmarshal(data, &emb); err != nil || emb.N() != n || emb.K() != opts.K {
		opts.Logger.Debug("discarding unusable cached embedding", "key", key)
		observability.Cache().OnCacheMiss(ctx, cache.KindEmbedding)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, cache.KindEmbedding)
	return &emb, true
}

func (r *Runner) computeEmbedding(ctx context.Context, g *graph.Graph, opts Options) (*embed.Embedding, error) {
	var L laplacian.Matrix
	_ = stage(ctx, observability.StageLaplacian, g.N(), func() error {
		L = laplacian.FromGraph(g)
		return nil
	})
	opts.Logger.Debug("built laplacian", "n", L.N, "triplets", len(L.Triplets))

	e := embed.New(r.Solver)
	e.Which = opts.Which

	var emb *embed.Embedding
	err := stage(ctx, observability.StageEmbed, g.N(), func() error {
		var err error
		emb, err = e.Embed(ctx, L, opts.K)
		return err
	})
	return emb, err
}
