// Package graph keeps the project's module dependency graph: one node per
// transformed file, keyed by its canonical module path, with an edge for
// every collected require.
package graph

import (
	"sort"
	"sync"

	"modlink/internal/shared/observability"
)

// Node is a transformed file.
type Node struct {
	// Path is the canonical module path ("/src/a.js").
	Path string
	// Source is the root-relative name of the file that produced Path.
	Source   string
	Requires []string
}

type Graph struct {
	mu sync.RWMutex

	nodes map[string]*Node

	imports    map[string]map[string]bool // from -> to
	importedBy map[string]map[string]bool // to -> from
}

type Stats struct {
	Nodes int
	Edges int
	// Dangling counts edges whose target is not a node, such as packages
	// outside the scanned tree.
	Dangling int
}

func New() *Graph {
	return &Graph{
		nodes:      make(map[string]*Node),
		imports:    make(map[string]map[string]bool),
		importedBy: make(map[string]map[string]bool),
	}
}

// AddFile records path and its requires, replacing any previous entry.
func (g *Graph) AddFile(path, source string, requires []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[path]; exists {
		g.removeFileLocked(path)
	}

	node := &Node{Path: path, Source: source, Requires: append([]string(nil), requires...)}
	g.nodes[path] = node

	targets := make(map[string]bool, len(requires))
	for _, to := range requires {
		targets[to] = true
		if g.importedBy[to] == nil {
			g.importedBy[to] = make(map[string]bool)
		}
		g.importedBy[to][path] = true
	}
	g.imports[path] = targets

	g.updateGaugesLocked()
}

func (g *Graph) RemoveFile(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeFileLocked(path)
	g.updateGaugesLocked()
}

func (g *Graph) removeFileLocked(path string) {
	if _, ok := g.nodes[path]; !ok {
		return
	}
	for to := range g.imports[path] {
		delete(g.importedBy[to], path)
		if len(g.importedBy[to]) == 0 {
			delete(g.importedBy, to)
		}
	}
	delete(g.imports, path)
	delete(g.nodes, path)
}

func (g *Graph) updateGaugesLocked() {
	edges := 0
	for _, targets := range g.imports {
		edges += len(targets)
	}
	observability.GraphNodes.Set(float64(len(g.nodes)))
	observability.GraphEdges.Set(float64(edges))
}

// Node returns a copy of the node stored for path.
func (g *Graph) Node(path string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[path]
	if !ok {
		return Node{}, false
	}
	out := *n
	out.Requires = append([]string(nil), n.Requires...)
	return out, true
}

// Requires returns the requires recorded for path, in collection order.
func (g *Graph) Requires(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[path]; ok {
		return append([]string(nil), n.Requires...)
	}
	return nil
}

// Files returns every node path in sorted order.
func (g *Graph) Files() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	paths := make([]string, 0, len(g.nodes))
	for p := range g.nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// PathForSource finds the node produced by a root-relative source name.
func (g *Graph) PathForSource(source string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for p, n := range g.nodes {
		if n.Source == source {
			return p, true
		}
	}
	return "", false
}

func (g *Graph) FileCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

func (g *Graph) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := Stats{Nodes: len(g.nodes)}
	for _, targets := range g.imports {
		for to := range targets {
			s.Edges++
			if _, ok := g.nodes[to]; !ok {
				s.Dangling++
			}
		}
	}
	return s
}

// sortedNeighborsLocked lists the node targets of from in sorted order.
func (g *Graph) sortedNeighborsLocked(from string) []string {
	neighbors := make([]string, 0, len(g.imports[from]))
	for next := range g.imports[from] {
		if _, ok := g.nodes[next]; !ok {
			continue
		}
		neighbors = append(neighbors, next)
	}
	sort.Strings(neighbors)
	return neighbors
}
