package io

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/specgraph/pkg/errors"
)

// ReadCoords decodes an n×2 coordinate matrix from r.
// An input without coordinates is an INVALID_INPUT error.
func ReadCoords(r io.Reader) (*mat.Dense, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var data []float64
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		x, y, err := parseCoord(line)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "line %d: %q", lineNo, line)
		}
		data = append(data, x, y)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "read coordinates")
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no coordinates")
	}
	return mat.NewDense(len(data)/2, 2, data), nil
}

func parseCoord(line string) (float64, float64, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 2 {
		return 0, 0, errors.New(errors.ErrCodeParse, "expected 2 values, got %d", len(fields))
	}
	var out [2]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, 0, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, errors.New(errors.ErrCodeParse, "non-finite value %s", f)
		}
		out[i] = v
	}
	return out[0], out[1], nil
}

// ImportCoords reads a coordinate file at path.
func ImportCoords(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "missing coordinate file %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return ReadCoords(f)
}
