// Package observability provides instrumentation hooks for the layout
// pipeline.
//
// Hooks are plain interfaces with no-op defaults. A binary that wants metrics
// or tracing registers its own implementations once at startup; library code
// only ever calls the registered hooks and never imports a metrics backend.
//
//	func main() {
//	    observability.SetPipelineHooks(&promHooks{})
//	    // ... run application
//	}
//
// Libraries emit events through the accessors:
//
//	observability.Pipeline().OnStageStart(ctx, observability.StageEmbed, n)
//	// ... compute ...
//	observability.Pipeline().OnStageComplete(ctx, observability.StageEmbed, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Pipeline stage names passed to [PipelineHooks].
const (
	StageIngest    = "ingest"
	StageLaplacian = "laplacian"
	StageEmbed     = "embed"
	StageNormalize = "normalize"
	StageRaster    = "raster"
	StageEncode    = "encode"
)

// PipelineHooks receives stage events from a pipeline run.
// size is the number of vertices known when the stage starts (0 for ingest).
type PipelineHooks interface {
	OnStageStart(ctx context.Context, stage string, size int)
	OnStageComplete(ctx context.Context, stage string, duration time.Duration, err error)
}

// CacheHooks receives events from cache lookups.
type CacheHooks interface {
	// OnCacheHit records a cache hit for a key kind ("embedding", "artifact").
	OnCacheHit(ctx context.Context, kind string)
	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, kind string)
	// OnCacheSet records a cache write of size bytes.
	OnCacheSet(ctx context.Context, kind string, size int)
}

// RasterHooks receives events from the rasterizer.
type RasterHooks interface {
	// OnEdgesSkipped records edges dropped for referencing unplaced vertices.
	OnEdgesSkipped(ctx context.Context, count int)
}

// JobHooks receives lifecycle events from the job service.
type JobHooks interface {
	OnJobQueued(ctx context.Context, id string)
	OnJobFinished(ctx context.Context, id, status string, duration time.Duration)
}

// NoopPipelineHooks ignores all events.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(context.Context, string, int)                   {}
func (NoopPipelineHooks) OnStageComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks ignores all events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopRasterHooks ignores all events.
type NoopRasterHooks struct{}

func (NoopRasterHooks) OnEdgesSkipped(context.Context, int) {}

// NoopJobHooks ignores all events.
type NoopJobHooks struct{}

func (NoopJobHooks) OnJobQueued(context.Context, string)                              {}
func (NoopJobHooks) OnJobFinished(context.Context, string, string, time.Duration) {}

var (
	hooksMu       sync.RWMutex
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	rasterHooks   RasterHooks   = NoopRasterHooks{}
	jobHooks      JobHooks      = NoopJobHooks{}
)

// SetPipelineHooks registers pipeline hooks. nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers cache hooks. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetRasterHooks registers raster hooks. nil is ignored.
func SetRasterHooks(h RasterHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		rasterHooks = h
	}
}

// SetJobHooks registers job service hooks. nil is ignored.
func SetJobHooks(h JobHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		jobHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Raster returns the registered raster hooks.
func Raster() RasterHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return rasterHooks
}

// Jobs returns the registered job hooks.
func Jobs() JobHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return jobHooks
}

// Reset restores every hook to its no-op default. Intended for tests.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	rasterHooks = NoopRasterHooks{}
	jobHooks = NoopJobHooks{}
}
