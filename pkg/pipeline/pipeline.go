// Package pipeline runs the spectral layout pipeline end to end.
//
// The pipeline has three stages, each usable on its own:
//
//  1. Parse: read an edge list into a [graph.Graph]
//  2. Layout: build the Laplacian, compute the embedding and select the axes
//  3. Render: place vertices on a canvas, draw edges, encode PNG
//
// The embedding and the rendered image are cached, so rerunning on an
// unchanged graph skips the eigen-decomposition entirely.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	g, err := runner.Parse(ctx, f)
//	if err != nil {
//	    return err
//	}
//	result, err := runner.Execute(ctx, g, pipeline.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	err = pipeline.WriteOutputs(dir, result)
package pipeline

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/specgraph/pkg/cache"
	"github.com/matzehuels/specgraph/pkg/embed"
	"github.com/matzehuels/specgraph/pkg/errors"
	"github.com/matzehuels/specgraph/pkg/graph"
	"github.com/matzehuels/specgraph/pkg/raster"
	"github.com/matzehuels/specgraph/pkg/sink"
)

// =============================================================================
// Defaults - shared by the CLI and the job service
// =============================================================================

const (
	// DefaultK is the number of eigenpairs computed.
	DefaultK = embed.DefaultK

	// DefaultScale is the PNG upscale factor.
	DefaultScale = 1

	// DegenerateTol is the relative tolerance for reporting repeated
	// eigenvalues.
	DegenerateTol = 1e-9
)

// Working directory file names.
const (
	GraphFile     = "graph.txt"
	EmbeddingFile = "embedding.txt"
	ImageFile     = "graph.png"
)

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. Start from [DefaultOptions]; the zero
// value draws eigenvectors 0 and 1 because SkipTrivial is false.
type Options struct {
	// Layout options
	K           int         `json:"k,omitempty"`
	Which       embed.Which `json:"which,omitempty"`
	SkipTrivial bool        `json:"skip_trivial"`

	// Render options
	Width      int        `json:"width,omitempty"`
	Height     int        `json:"height,omitempty"`
	Scale      int        `json:"scale,omitempty"`
	Workers    int        `json:"workers,omitempty"`
	Background color.RGBA `json:"-"`
	EdgeColor  color.RGBA `json:"-"`

	// Refresh ignores cached results but still stores new ones.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		K:           DefaultK,
		Which:       embed.SmallestMagnitude,
		SkipTrivial: true,
		Scale:       DefaultScale,
		Background:  raster.DefaultBackground,
		EdgeColor:   raster.DefaultEdgeColor,
	}
}

// ValidateAndSetDefaults fills unset fields and checks the rest.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetDefaults fills zero-valued fields and makes the background opaque.
func (o *Options) SetDefaults() {
	if o.K == 0 {
		o.K = DefaultK
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Background == (color.RGBA{}) {
		o.Background = raster.DefaultBackground
	}
	o.Background.A = 255
	if o.EdgeColor == (color.RGBA{}) {
		o.EdgeColor = raster.DefaultEdgeColor
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks option values without changing them.
func (o *Options) Validate() error {
	minK := 2
	if o.SkipTrivial {
		minK = 3
	}
	if o.K < minK {
		return errors.New(errors.ErrCodeConfig,
			"k=%d too small: drawing needs at least %d eigenvectors (skip_trivial=%t)", o.K, minK, o.SkipTrivial)
	}
	if o.Which != embed.SmallestMagnitude && o.Which != embed.SmallestAlgebraic {
		return errors.New(errors.ErrCodeConfig, "invalid eigenvalue selection %v", o.Which)
	}
	if (o.Width == 0) != (o.Height == 0) {
		return errors.New(errors.ErrCodeConfig, "width and height must be set together")
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeConfig, "canvas %dx%d must be positive", o.Width, o.Height)
	}
	if o.Scale < 1 || o.Scale > sink.MaxScale {
		return errors.New(errors.ErrCodeConfig, "scale %d out of range [1, %d]", o.Scale, sink.MaxScale)
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeConfig, "workers must not be negative")
	}
	return nil
}

// FixedCanvas reports whether the canvas size is forced.
func (o *Options) FixedCanvas() bool { return o.Width > 0 && o.Height > 0 }

// EmbeddingKeyOpts returns cache key options for the embedding stage.
func (o *Options) EmbeddingKeyOpts() cache.EmbeddingKeyOpts {
	return cache.EmbeddingKeyOpts{K: o.K, Which: o.Which.String()}
}

// ArtifactKeyOpts returns cache key options for the render stage.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		SkipTrivial: o.SkipTrivial,
		Width:       o.Width,
		Height:      o.Height,
		Scale:       o.Scale,
		Background:  FormatHexColor(o.Background),
		EdgeColor:   FormatHexColor(o.EdgeColor),
	}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a full pipeline run.
type Result struct {
	Graph     *graph.Graph
	GraphHash string
	Embedding *embed.Embedding
	// Coords is the n×2 matrix of the drawn eigenvector columns.
	Coords    *mat.Dense
	Placement raster.Placement
	PNG       []byte

	Stats     Stats
	CacheInfo CacheInfo
	// Warnings lists non-fatal conditions, also logged at warn level.
	Warnings []string
}

// Stats contains execution statistics.
type Stats struct {
	Graph       graph.Stats
	Triplets    int
	Eigenvalues []float64
	Drawn       int
	Skipped     int
	Width       int
	Height      int

	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks which stages were served from cache.
type CacheInfo struct {
	EmbeddingHit bool
	ArtifactHit  bool
}

// =============================================================================
// Colors
// =============================================================================

// ParseHexColor parses "#rrggbb" or "#rrggbbaa" (the leading # is optional).
func ParseHexColor(s string) (color.RGBA, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "#")
	b, err := hex.DecodeString(raw)
	if err == nil && len(b) != 3 && len(b) != 4 {
		err = fmt.Errorf("want 6 or 8 hex digits, got %d", len(raw))
	}
	if err != nil {
		return color.RGBA{}, errors.Wrap(errors.ErrCodeConfig, err, "invalid color %q", s)
	}
	c := color.RGBA{R: b[0], G: b[1], B: b[2], A: 255}
	if len(b) == 4 {
		c.A = b[3]
	}
	return c, nil
}

// FormatHexColor formats c as "#rrggbbaa".
func FormatHexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
