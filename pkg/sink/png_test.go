package sink

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/specgraph/pkg/errors"
)

func checker() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	white := color.RGBA{255, 255, 255, 255}
	blue := color.RGBA{65, 105, 225, 255}
	img.SetRGBA(0, 0, blue)
	img.SetRGBA(1, 0, white)
	img.SetRGBA(0, 1, white)
	img.SetRGBA(1, 1, blue)
	return img
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestRenderPNGLossless(t *testing.T) {
	src := checker()
	data, err := RenderPNG(src)
	require.NoError(t, err)

	got := decode(t, data)
	require.Equal(t, src.Bounds(), got.Bounds())
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, src.RGBAAt(x, y), color.RGBAModel.Convert(got.At(x, y)))
		}
	}
}

func TestRenderPNGScale(t *testing.T) {
	src := checker()
	data, err := RenderPNG(src, WithScale(3))
	require.NoError(t, err)

	got := decode(t, data)
	assert.Equal(t, 6, got.Bounds().Dx())
	assert.Equal(t, 6, got.Bounds().Dy())
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			want := src.RGBAAt(x/3, y/3)
			assert.Equal(t, want, color.RGBAModel.Convert(got.At(x, y)), "(%d,%d)", x, y)
		}
	}
}

func TestRenderPNGDeterministic(t *testing.T) {
	a, err := RenderPNG(checker(), WithCompression(png.DefaultCompression))
	require.NoError(t, err)
	b, err := RenderPNG(checker(), WithCompression(png.DefaultCompression))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRenderPNGInvalidScale(t *testing.T) {
	for _, s := range []int{0, -2, MaxScale + 1} {
		_, err := RenderPNG(checker(), WithScale(s))
		assert.True(t, errors.Is(err, errors.ErrCodeConfig), "scale %d", s)
	}
}

func TestWritePNGFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.png")

	data, err := RenderPNG(checker())
	require.NoError(t, err)
	require.NoError(t, WritePNGFile(path, data))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestWritePNGFileMissingDir(t *testing.T) {
	err := WritePNGFile(filepath.Join(t.TempDir(), "nope", "graph.png"), []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPath))
}
