package graph_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/specgraph/pkg/graph"
)

func ExampleRead() {
	input := `
1000 7
7 42
42 1000
`
	g, err := graph.Read(strings.NewReader(input))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("vertices:", g.N())
	for i := 0; i < g.N(); i++ {
		fmt.Printf("%d -> id %d, degree %d\n", i, g.IDs.ID(i), g.Degrees[i])
	}
	fmt.Println("edges:", g.Edges)
	// Output:
	// vertices: 3
	// 0 -> id 1000, degree 2
	// 1 -> id 7, degree 2
	// 2 -> id 42, degree 2
	// edges: [{0 1} {1 2} {2 0}]
}
