package graph

// Components returns the connected components of g as lists of dense
// indices. Components are ordered by their smallest vertex and vertices
// within a component are in discovery order. Self-loops do not connect
// anything.
func Components(g *Graph) [][]int {
	n := g.N()
	adj := adjacency(g)
	seen := make([]bool, n)

	var comps [][]int
	stack := make([]int, 0, 16)
	for start := 0; start < n; start++ {
		if seen[start] {
			continue
		}
		seen[start] = true
		comp := []int{}
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, v)
			for _, to := range adj[v] {
				if !seen[to] {
					seen[to] = true
					stack = append(stack, to)
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

func adjacency(g *Graph) [][]int {
	adj := make([][]int, g.N())
	for _, e := range g.Edges {
		if e.U == e.V {
			continue
		}
		adj[e.U] = append(adj[e.U], e.V)
		adj[e.V] = append(adj[e.V], e.U)
	}
	return adj
}

// Stats summarizes an ingested graph.
type Stats struct {
	Vertices   int
	Edges      int
	SelfLoops  int
	Components int
	MinDegree  int
	MaxDegree  int
	AvgDegree  float64
}

// Connected reports whether the graph has exactly one component.
func (s Stats) Connected() bool {
	return s.Components == 1
}

// Summarize computes [Stats] for g.
func Summarize(g *Graph) Stats {
	s := Stats{
		Vertices:   g.N(),
		Edges:      g.EdgeCount(),
		Components: len(Components(g)),
	}
	for _, e := range g.Edges {
		if e.U == e.V {
			s.SelfLoops++
		}
	}
	if s.Vertices == 0 {
		return s
	}
	s.MinDegree = g.Degrees[0]
	total := 0
	for _, d := range g.Degrees {
		total += d
		if d < s.MinDegree {
			s.MinDegree = d
		}
		if d > s.MaxDegree {
			s.MaxDegree = d
		}
	}
	s.AvgDegree = float64(total) / float64(s.Vertices)
	return s
}
