// Package raster places embedded vertices on a pixel grid and draws edges
// into a framebuffer.
//
// # Placement
//
// [Normalize] maps an n×2 coordinate matrix onto an integer grid whose size
// grows with the number of vertices (roughly 100 pixels per vertex) and
// follows the aspect ratio of the coordinates' bounding box:
//
//	aspect = dx / dy          (1 when dy is zero)
//	width  = floor(sqrt(100*n / aspect))
//	height = floor(aspect * width)
//
// Both dimensions are at least 1. A zero-size bounding box still yields a
// valid placement with [Placement.Degenerate] set; callers decide whether to
// warn. [NormalizeFixed] uses a caller-chosen canvas instead.
//
// # Drawing
//
// [Line] enumerates the pixels of a segment with integer Bresenham.
// [Draw] fans edges out over a bounded number of goroutines. Every pixel
// write is a single atomic store of the same color, so the order in which
// workers run never changes the final image.
//
//	fb := raster.NewFramebuffer(p.Width, p.Height, raster.DefaultBackground)
//	stats, err := raster.Draw(ctx, fb, p.Points, g.Edges, raster.DrawOptions{Workers: 8})
//	img := fb.Image()
//
// Edges whose endpoints have no placed point are skipped and counted in
// [DrawStats].
package raster
