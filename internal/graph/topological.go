package graph

import "errors"

var ErrCycleDetected = errors.New("cycle detected in graph")

// TopologicalSort returns the node ids ordered so that every dependency
// precedes each of its dependents. Ties are broken by node insertion order,
// so the result is deterministic. Edges to ids that were never added as
// nodes are ignored. Returns ErrCycleDetected if no such ordering exists.
func (g *Graph) TopologicalSort() ([]string, error) {
	dependents := make(map[string][]string, len(g.order))
	inDegree := make(map[string]int, len(g.order))

	for _, id := range g.order {
		inDegree[id] = 0
	}
	for _, id := range g.order {
		for _, dep := range g.edges[id] {
			if g.nodes[dep] {
				dependents[dep] = append(dependents[dep], id)
				inDegree[id]++
			}
		}
	}

	var queue []string
	for _, id := range g.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, len(g.order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		for _, dependent := range dependents[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(sorted) != len(g.order) {
		return nil, ErrCycleDetected
	}
	return sorted, nil
}
