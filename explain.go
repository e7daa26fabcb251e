package fixt

import (
	"fmt"
	"io"
	"strings"
)

// PlanStep describes one entry of a creation plan: the fixture, its scope,
// and the qualified names it consumes.
type PlanStep struct {
	Name      string
	Qualified string
	Scope     Scope
	Deps      []string
	Autouse   bool
}

// Plan returns the creation order CreateFixtures would follow for the
// request, autouse fixtures included, without instantiating anything.
func (r *Registry) Plan(requested ...string) ([]PlanStep, error) {
	defs, err := r.resolve(r.effectiveRequest(requested))
	if err != nil {
		return nil, err
	}

	steps := make([]PlanStep, 0, len(defs))
	for _, def := range defs {
		steps = append(steps, PlanStep{
			Name:      def.Name,
			Qualified: def.qualified,
			Scope:     def.Scope,
			Deps:      edges(def),
			Autouse:   def.Autouse,
		})
	}
	return steps, nil
}

// FprintPlan writes a readable creation plan for the request to w.
func (r *Registry) FprintPlan(w io.Writer, requested ...string) error {
	steps, err := r.Plan(requested...)
	if err != nil {
		return err
	}

	if len(steps) == 0 {
		_, _ = fmt.Fprintln(w, "(nothing to create)")
		return nil
	}

	for i, step := range steps {
		if len(step.Deps) == 0 {
			_, _ = fmt.Fprintf(w, "%d. %s [%s]\n", i+1, step.Qualified, step.Scope)
		} else {
			_, _ = fmt.Fprintf(w, "%d. %s [%s] ← %s\n",
				i+1, step.Qualified, step.Scope, strings.Join(step.Deps, ", "))
		}
	}
	return nil
}

// SprintPlan renders the creation plan as a string.
func (r *Registry) SprintPlan(requested ...string) (string, error) {
	var sb strings.Builder
	if err := r.FprintPlan(&sb, requested...); err != nil {
		return "", err
	}
	return sb.String(), nil
}
