package raster

import (
	"image"
	"image/color"
	"sync/atomic"
)

var (
	// DefaultBackground is opaque white.
	DefaultBackground = color.RGBA{255, 255, 255, 255}
	// DefaultEdgeColor is royal blue.
	DefaultEdgeColor = color.RGBA{65, 105, 225, 255}
)

// Framebuffer is a width×height grid of packed RGBA cells that many
// goroutines may write concurrently.
type Framebuffer struct {
	width, height int
	cells         []atomic.Uint32
}

// NewFramebuffer creates a framebuffer filled with bg. The background is
// always opaque; the alpha of bg is ignored.
func NewFramebuffer(width, height int, bg color.RGBA) *Framebuffer {
	width, height = max(width, 1), max(height, 1)
	bg.A = 255
	fb := &Framebuffer{
		width:  width,
		height: height,
		cells:  make([]atomic.Uint32, width*height),
	}
	v := pack(bg)
	for i := range fb.cells {
		fb.cells[i].Store(v)
	}
	return fb
}

// Bounds returns the framebuffer dimensions.
func (fb *Framebuffer) Bounds() (width, height int) { return fb.width, fb.height }

// Set stores c at (x, y). Coordinates outside the buffer are ignored.
func (fb *Framebuffer) Set(x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return
	}
	fb.cells[y*fb.width+x].Store(pack(c))
}

// At returns the color at (x, y), or transparent black outside the buffer.
func (fb *Framebuffer) At(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return color.RGBA{}
	}
	return unpack(fb.cells[y*fb.width+x].Load())
}

// Image copies the framebuffer into an RGBA image. Call it after all writers
// have finished.
func (fb *Framebuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
	for i := range fb.cells {
		c := unpack(fb.cells[i].Load())
		o := i * 4
		img.Pix[o+0] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = c.A
	}
	return img
}

func pack(c color.RGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

func unpack(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}
