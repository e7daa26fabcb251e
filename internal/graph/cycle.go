package graph

type cycleDetector struct {
	graph   *Graph
	index   int
	stack   []string
	onStack map[string]bool
	indices map[string]int
	lowlink map[string]int
	sccs    [][]string
}

// DetectCycles returns every strongly connected component that forms a
// cycle, including single nodes that depend on themselves. Components are
// reported in discovery order.
func (g *Graph) DetectCycles() [][]string {
	d := &cycleDetector{
		graph:   g,
		onStack: make(map[string]bool),
		indices: make(map[string]int),
		lowlink: make(map[string]int),
	}

	for _, id := range g.order {
		if _, visited := d.indices[id]; !visited {
			d.strongConnect(id)
		}
	}

	var cycles [][]string
	for _, scc := range d.sccs {
		if len(scc) > 1 {
			cycles = append(cycles, scc)
			continue
		}
		id := scc[0]
		for _, dep := range g.edges[id] {
			if dep == id {
				cycles = append(cycles, scc)
				break
			}
		}
	}
	return cycles
}

func (d *cycleDetector) strongConnect(id string) {
	d.indices[id] = d.index
	d.lowlink[id] = d.index
	d.index++
	d.stack = append(d.stack, id)
	d.onStack[id] = true

	for _, dep := range d.graph.edges[id] {
		if !d.graph.nodes[dep] {
			continue
		}
		if _, visited := d.indices[dep]; !visited {
			d.strongConnect(dep)
			d.lowlink[id] = min(d.lowlink[id], d.lowlink[dep])
		} else if d.onStack[dep] {
			d.lowlink[id] = min(d.lowlink[id], d.indices[dep])
		}
	}

	if d.lowlink[id] == d.indices[id] {
		var scc []string
		for {
			n := len(d.stack) - 1
			w := d.stack[n]
			d.stack = d.stack[:n]
			d.onStack[w] = false
			scc = append(scc, w)
			if w == id {
				break
			}
		}
		d.sccs = append(d.sccs, scc)
	}
}

// FindCyclePath returns one cycle reachable from start as an explicit path
// whose first and last elements are equal, or nil if none is reachable.
func (g *Graph) FindCyclePath(start string) []string {
	visited := make(map[string]bool)
	inPath := make(map[string]bool)
	var path []string

	var dfs func(id string) []string
	dfs = func(id string) []string {
		if inPath[id] {
			var cycle []string
			found := false
			for _, p := range path {
				if p == id {
					found = true
				}
				if found {
					cycle = append(cycle, p)
				}
			}
			return append(cycle, id)
		}
		if visited[id] {
			return nil
		}

		visited[id] = true
		path = append(path, id)
		inPath[id] = true

		for _, dep := range g.edges[id] {
			if !g.nodes[dep] {
				continue
			}
			if cycle := dfs(dep); cycle != nil {
				return cycle
			}
		}

		path = path[:len(path)-1]
		inPath[id] = false
		return nil
	}

	return dfs(start)
}
