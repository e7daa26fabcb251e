package fixt

import "github.com/fixt-dev/fixt/internal/graph"

// resolve expands the requested names into their transitive dependency
// closure and returns the definitions in creation order: every dependency
// strictly precedes its dependents, each definition appears exactly once,
// and the order is deterministic for a given registry and request.
func (r *Registry) resolve(requested []string) ([]*definition, error) {
	g := graph.New()
	queue := make([]*definition, 0, len(requested))

	for _, name := range requested {
		def, err := r.lookup(name)
		if err != nil {
			return nil, err
		}
		if !g.HasNode(def.qualified) {
			g.AddNode(def.qualified, edges(def))
			queue = append(queue, def)
		}
	}

	for len(queue) > 0 {
		def := queue[0]
		queue = queue[1:]

		for _, dep := range def.resolvedDeps {
			if dep == TestContext {
				continue
			}
			target, ok := r.definitionByQualified(dep)
			if !ok {
				return nil, errFixtureNotFound(dep, r.closestName(dep, ""))
			}
			if !g.HasNode(target.qualified) {
				g.AddNode(target.qualified, edges(target))
				queue = append(queue, target)
			}
		}
	}

	sorted, err := g.TopologicalSort()
	if err != nil {
		// Registry construction already rejected cycles; reaching this
		// means the snapshot was corrupted.
		if cycles := g.DetectCycles(); len(cycles) > 0 {
			if path := g.FindCyclePath(cycles[0][0]); path != nil {
				return nil, errCyclicDependency(path)
			}
			return nil, errCyclicDependency(cycles[0])
		}
		return nil, errCyclicDependency(nil)
	}

	ordered := make([]*definition, 0, len(sorted))
	for _, qualified := range sorted {
		def, _ := r.definitionByQualified(qualified)
		ordered = append(ordered, def)
	}
	return ordered, nil
}

// graph builds the dependency graph over every definition in the snapshot,
// hidden ones included, for whole-registry validation.
func (r *Registry) graph() *graph.Graph {
	g := graph.New()
	for _, def := range r.order {
		g.AddNode(def.qualified, edges(def))
	}
	return g
}

// edges returns def's qualified dependency edges with the context sentinel
// stripped; the sentinel is never a graph node.
func edges(def *definition) []string {
	deps := make([]string, 0, len(def.resolvedDeps))
	for _, dep := range def.resolvedDeps {
		if dep == TestContext {
			continue
		}
		deps = append(deps, dep)
	}
	return deps
}
