package graph

import (
	"sort"
	"strings"
)

// DetectCycles returns the require cycles reachable by depth-first search.
// Each cycle starts at its smallest path and the list is sorted, so the
// result is stable across runs.
func (g *Graph) DetectCycles() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var cycles [][]string
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	roots := make([]string, 0, len(g.nodes))
	for p := range g.nodes {
		roots = append(roots, p)
	}
	sort.Strings(roots)

	for _, p := range roots {
		if !visited[p] {
			g.findCycles(p, visited, onStack, nil, func(cycle []string) {
				cycle = rotateToMin(cycle)
				key := strings.Join(cycle, "\x00")
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			})
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return strings.Join(cycles[i], "\x00") < strings.Join(cycles[j], "\x00")
	})
	return cycles
}

func (g *Graph) findCycles(curr string, visited, onStack map[string]bool, path []string, found func([]string)) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range g.sortedNeighborsLocked(curr) {
		if onStack[next] {
			for i, p := range path {
				if p == next {
					cycle := make([]string, len(path)-i)
					copy(cycle, path[i:])
					found(cycle)
					break
				}
			}
		} else if !visited[next] {
			g.findCycles(next, visited, onStack, path, found)
		}
	}

	onStack[curr] = false
}

func rotateToMin(cycle []string) []string {
	start := 0
	for i, p := range cycle {
		if p < cycle[start] {
			start = i
		}
	}
	return append(append([]string(nil), cycle[start:]...), cycle[:start]...)
}

// FindImportChain returns the shortest require chain from one module to
// another, breaking ties by path order.
func (g *Graph) FindImportChain(from, to string) ([]string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[from]; !ok {
		return nil, false
	}
	if _, ok := g.nodes[to]; !ok {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range g.sortedNeighborsLocked(curr) {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				chain := []string{to}
				for node := to; node != from; {
					node = prev[node]
					chain = append(chain, node)
				}
				for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
					chain[i], chain[j] = chain[j], chain[i]
				}
				return chain, true
			}
			queue = append(queue, next)
		}
	}

	return nil, false
}

// Dependents returns every node that requires path directly or through
// other nodes, sorted. path itself is not included.
func (g *Graph) Dependents(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := map[string]bool{path: true}
	var out []string
	queue := []string{path}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for importer := range g.importedBy[curr] {
			if seen[importer] {
				continue
			}
			seen[importer] = true
			out = append(out, importer)
			queue = append(queue, importer)
		}
	}
	sort.Strings(out)
	return out
}

// DirectDependents returns the nodes that require path, sorted.
func (g *Graph) DirectDependents(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.importedBy[path]))
	for importer := range g.importedBy[path] {
		out = append(out, importer)
	}
	sort.Strings(out)
	return out
}
