package pipeline

import (
	"bytes"
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/specgraph/pkg/cache"
	"github.com/matzehuels/specgraph/pkg/graph"
	"github.com/matzehuels/specgraph/pkg/io"
	"github.com/matzehuels/specgraph/pkg/observability"
	"github.com/matzehuels/specgraph/pkg/raster"
	"github.com/matzehuels/specgraph/pkg/sink"
)

// Rendering is the output of the render stage.
type Rendering struct {
	Placement raster.Placement
	PNG       []byte
	Stats     raster.DrawStats
}

// Render draws the edges of g between the vertices placed by coords and
// encodes the image. coords may have fewer rows than g has vertices; edges
// touching the missing vertices are skipped.
func (r *Runner) Render(ctx context.Context, g *graph.Graph, coords mat.Matrix, opts Options) (*Rendering, error) {
	out, _, err := r.RenderWithCacheInfo(ctx, g, coords, opts)
	return out, err
}

// RenderWithCacheInfo is Render that also reports whether the PNG came from
// the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *graph.Graph, coords mat.Matrix, opts Options) (*Rendering, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	out := &Rendering{}
	n, _ := coords.Dims()
	err := stage(ctx, observability.StageNormalize, n, func() error {
		var err error
		if opts.FixedCanvas() {
			out.Placement, err = raster.NormalizeFixed(coords, opts.Width, opts.Height)
		} else {
			out.Placement, err = raster.Normalize(coords)
		}
		return err
	})
	if err != nil {
		return nil, false, err
	}
	opts.Logger.Debug("placed vertices",
		"width", out.Placement.Width,
		"height", out.Placement.Height,
		"aspect", out.Placement.Aspect)

	key, keyErr := r.artifactKey(g, coords, opts)
	if keyErr == nil && !opts.Refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		if err == nil && hit {
			observability.Cache().OnCacheHit(ctx, cache.KindArtifact)
			out.PNG = data
			out.Stats = countEdges(g.Edges, len(out.Placement.Points))
			return out, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, cache.KindArtifact)
	}

	fb := raster.NewFramebuffer(out.Placement.Width, out.Placement.Height, opts.Background)
	err = stage(ctx, observability.StageRaster, n, func() error {
		var err error
		out.Stats, err = raster.Draw(ctx, fb, out.Placement.Points, g.Edges, raster.DrawOptions{
			Workers: opts.Workers,
			Color:   opts.EdgeColor,
		})
		return err
	})
	if err != nil {
		return nil, false, err
	}

	err = stage(ctx, observability.StageEncode, n, func() error {
		var err error
		out.PNG, err = sink.RenderPNG(fb.Image(), sink.WithScale(opts.Scale))
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if keyErr == nil {
		if err := r.Cache.Set(ctx, key, out.PNG, cache.ArtifactTTL); err != nil {
			opts.Logger.Debug("cache write failed", "kind", cache.KindArtifact, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, cache.KindArtifact, len(out.PNG))
		}
	}
	return out, false, nil
}

// artifactKey hashes the edge list together with the exact coordinates.
func (r *Runner) artifactKey(g *graph.Graph, coords mat.Matrix, opts Options) (string, error) {
	var buf bytes.Buffer
	buf.Write(graph.MarshalDense(g))
	if err := io.WriteCoords(&buf, coords); err != nil {
		return "", err
	}
	return r.Keyer.ArtifactKey(cache.Hash(buf.Bytes()), opts.ArtifactKeyOpts()), nil
}

// countEdges reproduces the drawn and skipped counts of raster.Draw without
// drawing.
func countEdges(edges []graph.Edge, n int) raster.DrawStats {
	var s raster.DrawStats
	for _, e := range edges {
		if e.U < 0 || e.U >= n || e.V < 0 || e.V >= n {
			s.Skipped++
		} else {
			s.Drawn++
		}
	}
	return s
}
