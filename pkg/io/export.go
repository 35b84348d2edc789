package io

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
)

// WriteCoords writes the first two columns of xy, one row per line.
func WriteCoords(w io.Writer, xy mat.Matrix) error {
	n, c := xy.Dims()
	if c < 2 {
		return fmt.Errorf("coordinates need 2 columns, got %d", c)
	}
	bw := bufio.NewWriter(w)
	for i := 0; i < n; i++ {
		if _, err := fmt.Fprintf(bw, "%.17g %.17g\n", xy.At(i, 0), xy.At(i, 1)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// ExportCoords writes xy to a file at path.
func ExportCoords(path string, xy mat.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCoords(f, xy); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
