package fixt

import (
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"
)

// Registry is an immutable snapshot of fixture definitions for one defining
// scope together with everything it imports. Local definitions shadow
// same-named imported ones; shadowed definitions drop out of name-based
// resolution but remain reachable through their qualified name.
//
// All registration-time validation happens in NewRegistry: duplicate local
// names, unresolvable dependencies, scope-lifetime violations, and
// dependency cycles all fail there, before any test runs.
type Registry struct {
	origin string

	// byQualified holds every definition in the snapshot, hidden or not.
	byQualified map[string]*definition

	// visible maps local names to their non-hidden definition.
	visible map[string]*definition

	// order preserves registration order, imports before locals.
	order []*definition
}

// NewRegistry builds a registry for the defining scope origin from its local
// definitions and the registries it imports. Imports merge in argument
// order; a later definition of a name shadows an earlier one, and local
// definitions shadow all imports.
func NewRegistry(origin string, local []Definition, imports ...*Registry) (*Registry, error) {
	r := &Registry{
		origin:      origin,
		byQualified: make(map[string]*definition),
		visible:     make(map[string]*definition),
	}

	for _, imported := range imports {
		r.mergeImport(imported)
	}

	// First pass inserts every local so siblings can reference each other
	// regardless of declaration order; shadowed records what each local
	// replaced for override-forwarding.
	shadowed := make(map[string]*definition, len(local))
	locals := make([]*definition, 0, len(local))
	for _, d := range local {
		if err := validateDefinition(origin, d); err != nil {
			return nil, err
		}
		if _, dup := shadowed[d.Name]; dup {
			return nil, errDuplicateFixture(origin, d.Name)
		}

		def := &definition{
			Definition: d,
			origin:     origin,
			qualified:  qualifiedName(origin, d.Name),
		}
		if _, exists := r.byQualified[def.qualified]; exists {
			return nil, errDuplicateFixture(origin, d.Name)
		}

		prev := r.visible[d.Name]
		shadowed[d.Name] = prev
		if prev != nil {
			prev.hidden = true
		}

		r.byQualified[def.qualified] = def
		r.visible[d.Name] = def
		r.order = append(r.order, def)
		locals = append(locals, def)
	}

	for _, def := range locals {
		if err := r.qualifyDeps(def, shadowed[def.Name]); err != nil {
			return nil, err
		}
	}

	if err := r.checkAcyclic(); err != nil {
		return nil, err
	}
	return r, nil
}

// mergeImport copies the imported snapshot's definitions into r. Imported
// definitions keep the dependency edges qualified in their own defining
// scope; only their visibility changes here.
func (r *Registry) mergeImport(imported *Registry) {
	if imported == nil {
		return
	}
	for _, def := range imported.order {
		if _, exists := r.byQualified[def.qualified]; exists {
			// Diamond import: same snapshot reached twice.
			continue
		}
		cp := *def
		if prev := r.visible[cp.Name]; prev != nil {
			prev.hidden = true
		}
		r.byQualified[cp.qualified] = &cp
		if !cp.hidden {
			r.visible[cp.Name] = &cp
		}
		r.order = append(r.order, &cp)
	}
}

// qualifyDeps resolves def's dependency names against the merged visible
// set. A definition referencing its own name resolves to the definition it
// shadows, so an override can forward to the default it replaced. The
// TestContext sentinel passes through unresolved. Scope monotonicity is
// enforced on every resolved edge.
func (r *Registry) qualifyDeps(def *definition, shadowed *definition) error {
	def.resolvedDeps = make([]string, 0, len(def.Deps))
	for _, name := range def.Deps {
		if name == TestContext {
			def.resolvedDeps = append(def.resolvedDeps, TestContext)
			continue
		}

		var target *definition
		if name == def.Name {
			if shadowed == nil {
				return errFixtureNotFound(name, r.closestName(name, def.Name))
			}
			target = shadowed
		} else {
			target = r.visible[name]
			if target == nil {
				return errFixtureNotFound(name, r.closestName(name, ""))
			}
		}

		if !target.Scope.Outlives(def.Scope) {
			return errScopeMismatch(def.Name, target.Name, def.Scope, target.Scope)
		}
		def.resolvedDeps = append(def.resolvedDeps, target.qualified)
	}
	return nil
}

// checkAcyclic walks the fully qualified edge set and reports the first
// dependency cycle as a path.
func (r *Registry) checkAcyclic() error {
	g := r.graph()
	cycles := g.DetectCycles()
	if len(cycles) == 0 {
		return nil
	}
	if path := g.FindCyclePath(cycles[0][0]); path != nil {
		return errCyclicDependency(path)
	}
	return errCyclicDependency(cycles[0])
}

// ResolveName resolves a visible name to its globally unique qualified
// name. Absence produces a FixtureNotFound error carrying the closest
// registered name.
func (r *Registry) ResolveName(name string) (string, error) {
	def, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	return def.qualified, nil
}

func (r *Registry) lookup(name string) (*definition, error) {
	if def, ok := r.visible[name]; ok {
		return def, nil
	}
	return nil, errFixtureNotFound(name, r.closestName(name, ""))
}

// Origin returns the defining-scope identifier this snapshot was built for.
func (r *Registry) Origin() string { return r.origin }

// Names returns the visible fixture names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.visible))
	for name := range r.visible {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AutouseNames returns the names of visible autouse fixtures in registration
// order, imports first. These join every test's effective request.
func (r *Registry) AutouseNames() []string {
	var names []string
	for _, def := range r.order {
		if def.Autouse && !def.hidden {
			names = append(names, def.Name)
		}
	}
	return names
}

// Len returns the number of definitions in the snapshot, hidden included.
func (r *Registry) Len() int { return len(r.order) }

// effectiveRequest prepends the autouse fixtures to the requested names and
// deduplicates while preserving order.
func (r *Registry) effectiveRequest(requested []string) []string {
	autouse := r.AutouseNames()
	effective := make([]string, 0, len(autouse)+len(requested))
	seen := make(map[string]bool, len(autouse)+len(requested))
	for _, name := range autouse {
		if !seen[name] {
			seen[name] = true
			effective = append(effective, name)
		}
	}
	for _, name := range requested {
		if !seen[name] {
			seen[name] = true
			effective = append(effective, name)
		}
	}
	return effective
}

func (r *Registry) definitionByQualified(qualified string) (*definition, bool) {
	def, ok := r.byQualified[qualified]
	return def, ok
}

// closestName returns the visible name nearest to name by edit distance.
// Ties break alphabetically; exclude drops a name from consideration.
func (r *Registry) closestName(name, exclude string) string {
	best := ""
	bestDist := -1
	for _, candidate := range r.Names() {
		if candidate == exclude {
			continue
		}
		d := levenshtein.ComputeDistance(name, candidate)
		if bestDist < 0 || d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	return best
}

func validateDefinition(origin string, d Definition) error {
	if d.Name == "" {
		return newError(ErrCodeUnknown, fmt.Sprintf("fixture in %q has an empty name", origin), nil)
	}
	if d.Name == TestContext {
		e := newError(ErrCodeDuplicateFixture,
			fmt.Sprintf("name %q is reserved for the ambient test context", TestContext), nil)
		e.Fixture = d.Name
		return e
	}
	if d.Producer == nil {
		e := newError(ErrCodeUnknown, fmt.Sprintf("fixture %q has no producer", d.Name), nil)
		e.Fixture = d.Name
		return e
	}
	if !d.Scope.Valid() {
		e := newError(ErrCodeUnknown, fmt.Sprintf("fixture %q has invalid scope %d", d.Name, d.Scope), nil)
		e.Fixture = d.Name
		return e
	}
	return nil
}

func qualifiedName(origin, name string) string {
	return origin + "::" + name
}
