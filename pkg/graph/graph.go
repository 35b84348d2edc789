package graph

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/specgraph/pkg/errors"
)

// maxLineSize bounds a single edge-list line. Edge lines are tiny; the limit
// only guards against binary garbage.
const maxLineSize = 1 << 20

// =============================================================================
// Remap - Identifier Space
// =============================================================================

// Remap maps observed vertex identifiers to dense indices in [0, n).
// Indices are handed out in order of first appearance.
type Remap struct {
	index map[uint64]int
	ids   []uint64
}

// NewRemap creates an empty remap.
func NewRemap() *Remap {
	return &Remap{index: make(map[uint64]int)}
}

// Add returns the dense index for id, assigning the next free one on first sight.
func (r *Remap) Add(id uint64) int {
	if i, ok := r.index[id]; ok {
		return i
	}
	i := len(r.ids)
	r.index[id] = i
	r.ids = append(r.ids, id)
	return i
}

// Index returns the dense index of id and whether id has been seen.
func (r *Remap) Index(id uint64) (int, bool) {
	i, ok := r.index[id]
	return i, ok
}

// ID returns the original identifier of dense index i.
// It panics if i is out of range.
func (r *Remap) ID(i int) uint64 {
	return r.ids[i]
}

// Len returns the number of distinct identifiers seen.
func (r *Remap) Len() int {
	return len(r.ids)
}

// IDs returns the original identifiers in dense index order.
func (r *Remap) IDs() []uint64 {
	out := make([]uint64, len(r.ids))
	copy(out, r.ids)
	return out
}

// =============================================================================
// Graph
// =============================================================================

// Edge is an unordered pair of dense vertex indices.
type Edge struct {
	U, V int
}

// Graph is an ingested edge list in dense index space.
type Graph struct {
	// Edges holds one entry per input line, in input order.
	Edges []Edge
	// Degrees[i] counts the edge occurrences incident to vertex i.
	// A self-loop counts twice.
	Degrees []int
	// IDs maps dense indices back to the original identifiers.
	IDs *Remap
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{IDs: NewRemap()}
}

// AddEdge records an edge between two original identifiers, assigning dense
// indices on first sight and incrementing both endpoints' degree.
func (g *Graph) AddEdge(u, v uint64) Edge {
	e := Edge{U: g.IDs.Add(u), V: g.IDs.Add(v)}
	for len(g.Degrees) < g.IDs.Len() {
		g.Degrees = append(g.Degrees, 0)
	}
	g.Degrees[e.U]++
	g.Degrees[e.V]++
	g.Edges = append(g.Edges, e)
	return e
}

// N returns the number of vertices.
func (g *Graph) N() int {
	return g.IDs.Len()
}

// EdgeCount returns the number of edge occurrences.
func (g *Graph) EdgeCount() int {
	return len(g.Edges)
}

// =============================================================================
// Reading
// =============================================================================

// ReadFile reads an edge list from path.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "edge list %s does not exist", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return g, nil
}

// Read parses an edge list from r.
// The first malformed line aborts the read with a PARSE_ERROR.
func Read(r io.Reader) (*Graph, error) {
	g := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || isComment(line) {
			continue
		}
		u, v, err := parseEdge(line)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "line %d: %q", lineNo, line)
		}
		g.AddEdge(u, v)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "line %d", lineNo+1)
	}
	return g, nil
}

func isComment(line string) bool {
	return line[0] == '%' || line[0] == '#'
}

func parseEdge(line string) (uint64, uint64, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected 2 fields, got %d", len(fields))
	}
	u, err := parseID(fields[0])
	if err != nil {
		return 0, 0, err
	}
	v, err := parseID(fields[1])
	if err != nil {
		return 0, 0, err
	}
	return u, v, nil
}

// parseID accepts any non-negative decimal id up to 2^64-1.
func parseID(s string) (uint64, error) {
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("vertex id %s is negative", s)
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("vertex id %q is not an unsigned 64-bit integer", s)
	}
	return id, nil
}

// =============================================================================
// Writing
// =============================================================================

// WriteDense writes the edge list using dense indices, one "u v" per line.
func WriteDense(g *Graph, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, e := range g.Edges {
		if _, err := fmt.Fprintf(bw, "%d %d\n", e.U, e.V); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// MarshalDense returns the dense edge list as bytes, prefixed with the vertex
// count. Two inputs that differ only in their identifier labels marshal
// identically, which makes the output a suitable cache key for everything
// computed from the graph's structure.
func MarshalDense(g *Graph) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "n %d\n", g.N())
	_ = WriteDense(g, &buf)
	return buf.Bytes()
}
