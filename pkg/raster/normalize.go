package raster

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/specgraph/pkg/errors"
)

// PixelsPerVertex sets the automatic canvas area.
const PixelsPerVertex = 100

// FlatTolerance is the relative span below which an axis counts as constant.
// Eigenvectors that are constant up to round-off land here.
const FlatTolerance = 1e-9

// Point is a pixel position.
type Point struct {
	X, Y int
}

// Placement is the result of normalizing coordinates onto a canvas.
type Placement struct {
	Width, Height int
	Points        []Point
	// Aspect is dx/dy of the bounding box, or 1 when either side is flat.
	Aspect float64
	// Degenerate is set when the bounding box has (near) zero width or height.
	Degenerate bool
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

// dx and dy return the spans of the box, with flat axes reported as zero.
func (b bounds) dx() float64 { return span(b.minX, b.maxX) }
func (b bounds) dy() float64 { return span(b.minY, b.maxY) }

func (b bounds) degenerate() bool { return b.dx() == 0 || b.dy() == 0 }

func (b bounds) aspect() float64 {
	if b.degenerate() {
		return 1
	}
	return b.dx() / b.dy()
}

func span(lo, hi float64) float64 {
	d := hi - lo
	if d <= FlatTolerance*math.Max(1, math.Max(math.Abs(lo), math.Abs(hi))) {
		return 0
	}
	return d
}

func boundingBox(xy mat.Matrix) (bounds, int, error) {
	n, c := xy.Dims()
	if n == 0 {
		return bounds{}, 0, errors.New(errors.ErrCodeInvalidInput, "no coordinates to normalize")
	}
	if c < 2 {
		return bounds{}, 0, errors.New(errors.ErrCodeInvalidInput, "coordinates need 2 columns, got %d", c)
	}
	b := bounds{
		minX: math.Inf(1), maxX: math.Inf(-1),
		minY: math.Inf(1), maxY: math.Inf(-1),
	}
	for i := 0; i < n; i++ {
		x, y := xy.At(i, 0), xy.At(i, 1)
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return bounds{}, 0, errors.New(errors.ErrCodeInvalidInput, "non-finite coordinate at row %d", i)
		}
		b.minX = math.Min(b.minX, x)
		b.maxX = math.Max(b.maxX, x)
		b.minY = math.Min(b.minY, y)
		b.maxY = math.Max(b.maxY, y)
	}
	return b, n, nil
}

// Normalize places the n×2 coordinates on a canvas sized from n and the
// aspect ratio of their bounding box.
func Normalize(xy mat.Matrix) (Placement, error) {
	b, n, err := boundingBox(xy)
	if err != nil {
		return Placement{}, err
	}

	aspect := b.aspect()
	// width*height stays near PixelsPerVertex*n while both sides are at
	// least 1; the cap only bites on extreme aspect ratios.
	limit := float64(PixelsPerVertex * n)
	width := int(math.Max(1, math.Min(limit, math.Floor(math.Sqrt(limit/aspect)))))
	height := int(math.Max(1, math.Min(limit, math.Floor(aspect*float64(width)))))

	p := place(xy, b, n, width, height)
	p.Aspect = aspect
	return p, nil
}

// NormalizeFixed places the n×2 coordinates on a width×height canvas,
// stretching each axis independently.
func NormalizeFixed(xy mat.Matrix, width, height int) (Placement, error) {
	if width < 1 || height < 1 {
		return Placement{}, errors.New(errors.ErrCodeConfig, "canvas %dx%d must be at least 1x1", width, height)
	}
	b, n, err := boundingBox(xy)
	if err != nil {
		return Placement{}, err
	}
	p := place(xy, b, n, width, height)
	p.Aspect = b.aspect()
	return p, nil
}

func place(xy mat.Matrix, b bounds, n, width, height int) Placement {
	p := Placement{
		Width:      width,
		Height:     height,
		Points:     make([]Point, n),
		Degenerate: b.degenerate(),
	}
	for i := 0; i < n; i++ {
		p.Points[i] = Point{
			X: scale(xy.At(i, 0), b.minX, b.dx(), width),
			Y: scale(xy.At(i, 1), b.minY, b.dy(), height),
		}
	}
	return p
}

// scale maps v from [lo, lo+span] to [0, size-1], truncating toward zero.
func scale(v, lo, span float64, size int) int {
	if span == 0 {
		return 0
	}
	px := int((v - lo) / span * float64(size-1))
	return min(max(px, 0), size-1)
}
