package raster

import (
	"context"
	"image/color"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/specgraph/pkg/graph"
	"github.com/matzehuels/specgraph/pkg/observability"
)

// chunkSize is the number of edges a worker draws between context checks.
const chunkSize = 4096

// DrawOptions configures [Draw].
type DrawOptions struct {
	// Workers bounds the number of drawing goroutines. Zero means GOMAXPROCS.
	Workers int
	// Color is the edge color. The zero value means DefaultEdgeColor.
	Color color.RGBA
}

// DrawStats reports what [Draw] did.
type DrawStats struct {
	Drawn   int
	Skipped int
}

// Draw rasterizes every edge between its endpoints' points into fb.
// Edges referencing a vertex outside [0, len(points)) are skipped.
func Draw(ctx context.Context, fb *Framebuffer, points []Point, edges []graph.Edge, opts DrawOptions) (DrawStats, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	c := opts.Color
	if c == (color.RGBA{}) {
		c = DefaultEdgeColor
	}
	v := pack(c)

	var drawn, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(edges); start += chunkSize {
		chunk := edges[start:min(start+chunkSize, len(edges))]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var d, s int64
			for _, e := range chunk {
				if !inRange(e.U, len(points)) || !inRange(e.V, len(points)) {
					s++
					continue
				}
				a, b := points[e.U], points[e.V]
				Line(a.X, a.Y, b.X, b.Y, func(x, y int) {
					if x >= 0 && y >= 0 && x < fb.width && y < fb.height {
						fb.cells[y*fb.width+x].Store(v)
					}
				})
				d++
			}
			drawn.Add(d)
			skipped.Add(s)
			return nil
		})
	}

	err := g.Wait()
	stats := DrawStats{Drawn: int(drawn.Load()), Skipped: int(skipped.Load())}
	if err != nil {
		return stats, err
	}
	if stats.Skipped > 0 {
		observability.Raster().OnEdgesSkipped(ctx, stats.Skipped)
	}
	return stats, nil
}

func inRange(i, n int) bool { return i >= 0 && i < n }
