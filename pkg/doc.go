// Package pkg provides the libraries behind specgraph, a spectral graph
// drawer.
//
// # Overview
//
// specgraph places the vertices of an undirected graph at the entries of the
// eigenvectors belonging to the smallest eigenvalues of its Laplacian and
// draws every edge as a straight line into a PNG. The pkg directory is
// organized by pipeline stage:
//
//  1. [graph] - edge list parsing and id remapping
//  2. [laplacian] - Laplacian assembly in coordinate form
//  3. [embed] - eigen-decomposition behind a pluggable solver
//  4. [raster] - normalization, Bresenham lines, parallel drawing
//  5. [sink] - PNG encoding and atomic file output
//
// [pipeline] ties the stages together with caching ([cache]) and progress
// hooks ([observability]); [jobs] runs it behind an HTTP API.
//
// # Architecture
//
//	graph.txt
//	    ↓
//	[graph] Remap + Edge list
//	    ↓
//	[laplacian] triplets → symmetric matrix
//	    ↓
//	[embed] k eigenpairs → two coordinate columns
//	    ↓
//	[raster] canvas placement + edges
//	    ↓
//	[sink] graph.png
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/specgraph/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	g, err := runner.ParseFile(ctx, "work/graph.txt")
//	if err != nil {
//	    return err
//	}
//	res, err := runner.Execute(ctx, g, pipeline.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	return pipeline.WriteOutputs("work", res)
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/specgraph/pkg/graph
// [laplacian]: https://pkg.go.dev/github.com/matzehuels/specgraph/pkg/laplacian
// [embed]: https://pkg.go.dev/github.com/matzehuels/specgraph/pkg/embed
// [raster]: https://pkg.go.dev/github.com/matzehuels/specgraph/pkg/raster
// [sink]: https://pkg.go.dev/github.com/matzehuels/specgraph/pkg/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/specgraph/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/specgraph/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/specgraph/pkg/observability
// [jobs]: https://pkg.go.dev/github.com/matzehuels/specgraph/pkg/jobs
package pkg
