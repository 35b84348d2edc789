// Package sink encodes rendered framebuffers into image files.
//
// [RenderPNG] produces lossless PNG bytes from any image, optionally
// upscaled with nearest-neighbor sampling so edges stay solid single-color
// pixels. [WritePNGFile] writes the bytes so that a failed run never leaves a
// truncated image behind.
//
//	data, err := sink.RenderPNG(fb.Image(), sink.WithScale(2))
//	if err != nil {
//	    return err
//	}
//	return sink.WritePNGFile("graph.png", data)
package sink

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/matzehuels/specgraph/pkg/errors"
)

// MaxScale bounds the upscale factor accepted by [WithScale].
const MaxScale = 16

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale       int
	compression png.CompressionLevel
}

// WithScale sets an integer upscale factor (default 1).
func WithScale(s int) PNGOption {
	return func(r *pngRenderer) { r.scale = s }
}

// WithCompression sets the zlib compression level (default png.BestCompression).
func WithCompression(level png.CompressionLevel) PNGOption {
	return func(r *pngRenderer) { r.compression = level }
}

// RenderPNG encodes img as PNG.
func RenderPNG(img image.Image, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 1, compression: png.BestCompression}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale < 1 || r.scale > MaxScale {
		return nil, errors.New(errors.ErrCodeConfig, "scale %d out of range [1, %d]", r.scale, MaxScale)
	}

	if r.scale > 1 {
		b := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*r.scale, b.Dy()*r.scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: r.compression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// WritePNGFile writes data to path through a temporary file in the same
// directory and renames it into place.
func WritePNGFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create temp file in %s", dir)
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(name, 0644); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(name, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
