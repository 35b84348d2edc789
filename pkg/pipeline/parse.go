package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/matzehuels/specgraph/pkg/graph"
	"github.com/matzehuels/specgraph/pkg/observability"
)

// Parse reads an edge list from rd.
func (r *Runner) Parse(ctx context.Context, rd io.Reader) (*graph.Graph, error) {
	return r.parse(ctx, func() (*graph.Graph, error) { return graph.Read(rd) })
}

// ParseFile reads an edge list from path. A missing file is FILE_NOT_FOUND.
func (r *Runner) ParseFile(ctx context.Context, path string) (*graph.Graph, error) {
	return r.parse(ctx, func() (*graph.Graph, error) { return graph.ReadFile(path) })
}

func (r *Runner) parse(ctx context.Context, read func() (*graph.Graph, error)) (*graph.Graph, error) {
	start := time.Now()
	var g *graph.Graph
	err := stage(ctx, observability.StageIngest, 0, func() error {
		var err error
		g, err = read()
		return err
	})
	if err != nil {
		return nil, err
	}
	r.Logger.Info("parsed edge list",
		"vertices", g.N(),
		"edges", g.EdgeCount(),
		"duration", time.Since(start))
	return g, nil
}
