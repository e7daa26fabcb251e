package graph

// Graph is a directed dependency graph over string node ids. Edges point
// from a node to the nodes it depends on. Node insertion order is preserved
// so traversal results are deterministic for a given build sequence.
type Graph struct {
	order []string
	nodes map[string]bool
	edges map[string][]string
}

func New() *Graph {
	return &Graph{
		nodes: make(map[string]bool),
		edges: make(map[string][]string),
	}
}

// AddNode registers id with its dependency ids. Adding an existing node
// replaces its dependency list without changing its position.
func (g *Graph) AddNode(id string, dependencies []string) {
	if !g.nodes[id] {
		g.nodes[id] = true
		g.order = append(g.order, id)
	}
	deps := make([]string, len(dependencies))
	copy(deps, dependencies)
	g.edges[id] = deps
}

func (g *Graph) HasNode(id string) bool {
	return g.nodes[id]
}

// Dependencies returns the dependency ids of id in declaration order.
func (g *Graph) Dependencies(id string) []string {
	deps := g.edges[id]
	result := make([]string, len(deps))
	copy(result, deps)
	return result
}

// Nodes returns all node ids in insertion order.
func (g *Graph) Nodes() []string {
	nodes := make([]string, len(g.order))
	copy(nodes, g.order)
	return nodes
}

func (g *Graph) Size() int {
	return len(g.order)
}

// Missing returns dependency ids referenced by some node but never added
// themselves, in first-reference order.
func (g *Graph) Missing() []string {
	var missing []string
	seen := make(map[string]bool)
	for _, id := range g.order {
		for _, dep := range g.edges[id] {
			if !g.nodes[dep] && !seen[dep] {
				missing = append(missing, dep)
				seen[dep] = true
			}
		}
	}
	return missing
}
