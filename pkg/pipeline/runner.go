package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/specgraph/pkg/cache"
	"github.com/matzehuels/specgraph/pkg/embed"
	"github.com/matzehuels/specgraph/pkg/graph"
	"github.com/matzehuels/specgraph/pkg/observability"
)

// Runner executes pipeline stages with caching.
// The CLI and the job service share it so caching behaves the same way in
// both.
//
// A Runner holds no per-run state. Multiple goroutines can use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Solver embed.Solver
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer means DefaultKeyer, a nil cache
// disables caching and a nil logger means log.Default(). The solver is
// gonum's dense eigensolver; replace Runner.Solver to inject another one.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Solver: embed.NewGonumSolver(),
		Logger: logger,
	}
}

// Execute runs layout and render on an ingested graph.
func (r *Runner) Execute(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		Graph:     g,
		GraphHash: cache.Hash(graph.MarshalDense(g)),
	}
	result.Stats.Graph = graph.Summarize(g)
	if !result.Stats.Graph.Connected() {
		result.warn(opts.Logger, "graph is disconnected; the zero eigenvalue is repeated and the layout is not unique",
			"components", result.Stats.Graph.Components)
	}

	// Stage 2: Layout
	layoutStart := time.Now()
	lay, hit, err := r.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Embedding = lay.Embedding
	result.Coords = lay.Coords
	result.Stats.Triplets = lay.Triplets
	result.Stats.Eigenvalues = lay.Embedding.Values
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.EmbeddingHit = hit
	if cols := lay.Embedding.Degenerate(DegenerateTol); len(cols) > 0 {
		result.warn(opts.Logger, "repeated eigenvalues; eigenvector basis is solver-dependent",
			"columns", cols)
	}

	opts.Logger.Info("computed embedding",
		"k", opts.K,
		"eigenvalues", lay.Embedding.Values,
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	out, hit, err := r.RenderWithCacheInfo(ctx, g, lay.Coords, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Placement = out.Placement
	result.PNG = out.PNG
	result.Stats.Drawn = out.Stats.Drawn
	result.Stats.Skipped = out.Stats.Skipped
	result.Stats.Width = out.Placement.Width
	result.Stats.Height = out.Placement.Height
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.ArtifactHit = hit
	if out.Placement.Degenerate {
		result.warn(opts.Logger, "degenerate bounding box; vertices collapse onto a line or point",
			"width", out.Placement.Width, "height", out.Placement.Height)
	}
	if out.Stats.Skipped > 0 {
		result.warn(opts.Logger, "skipped edges referencing unplaced vertices", "skipped", out.Stats.Skipped)
	}

	opts.Logger.Info("rendered image",
		"width", out.Placement.Width,
		"height", out.Placement.Height,
		"edges", out.Stats.Drawn,
		"bytes", len(out.PNG),
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// warn records a warning on the result and logs it.
func (res *Result) warn(logger *log.Logger, msg string, keyvals ...any) {
	res.Warnings = append(res.Warnings, msg)
	logger.Warn(msg, keyvals...)
}

// stage wraps fn with pipeline hook events.
func stage(ctx context.Context, name string, size int, fn func() error) error {
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, name, size)
	start := time.Now()
	err := fn()
	hooks.OnStageComplete(ctx, name, time.Since(start), err)
	return err
}
