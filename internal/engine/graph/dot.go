package graph

import (
	"fmt"
	"strings"

	"modlink/internal/shared/util"
)

// DOT renders the graph in Graphviz format. Edges that belong to one of
// cycles are drawn red; targets outside the graph are drawn as ellipses.
func (g *Graph) DOT(cycles [][]string) string {
	cycleEdges := make(map[string]map[string]bool)
	for _, cycle := range cycles {
		for i := range cycle {
			from, to := cycle[i], cycle[(i+1)%len(cycle)]
			if cycleEdges[from] == nil {
				cycleEdges[from] = make(map[string]bool)
			}
			cycleEdges[from][to] = true
		}
	}

	var buf strings.Builder
	buf.WriteString("digraph modules {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8];\n\n")

	files := g.Files()
	known := make(map[string]bool, len(files))
	for _, p := range files {
		known[p] = true
		fmt.Fprintf(&buf, "  %q;\n", p)
	}

	external := make(map[string]bool)
	var edges strings.Builder
	for _, from := range files {
		seen := make(map[string]bool)
		for _, to := range g.Requires(from) {
			if seen[to] {
				continue
			}
			seen[to] = true
			if !known[to] {
				external[to] = true
			}
			if cycleEdges[from][to] {
				fmt.Fprintf(&edges, "  %q -> %q [color=red, penwidth=2];\n", from, to)
			} else {
				fmt.Fprintf(&edges, "  %q -> %q;\n", from, to)
			}
		}
	}
	for _, p := range util.SortedStringKeys(external) {
		fmt.Fprintf(&buf, "  %q [shape=ellipse, style=dashed];\n", p)
	}
	buf.WriteString("\n")
	buf.WriteString(edges.String())
	buf.WriteString("}\n")
	return buf.String()
}
