package pipeline

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/specgraph/pkg/io"
	"github.com/matzehuels/specgraph/pkg/sink"
)

// WriteOutputs writes the coordinates and the image of a finished run into
// dir as EmbeddingFile and ImageFile.
func WriteOutputs(dir string, res *Result) error {
	if err := WriteEmbedding(dir, res.Coords); err != nil {
		return err
	}
	return WriteImage(dir, res.PNG)
}

// WriteEmbedding writes coords to dir/EmbeddingFile.
func WriteEmbedding(dir string, coords mat.Matrix) error {
	if err := io.ExportCoords(filepath.Join(dir, EmbeddingFile), coords); err != nil {
		return fmt.Errorf("write embedding: %w", err)
	}
	return nil
}

// WriteImage writes png to dir/ImageFile.
func WriteImage(dir string, png []byte) error {
	if err := sink.WritePNGFile(filepath.Join(dir, ImageFile), png); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}
