// Package fixttest adapts the fixt engine to Go's testing package: it owns
// the scope-lifecycle signals and invokes Test-scope teardowns at the right
// point of each test via Cleanup.
package fixttest

import "github.com/fixt-dev/fixt"

// TB is the subset of testing.TB the helpers need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Cleanup(f func())
}

// Suite binds one module-scope instance to a test package. Create it once
// per package (TestMain or a shared setup test) and call Fixtures from each
// test; module and session teardowns run when tb's Cleanup fires.
type Suite struct {
	engine *fixt.Engine
	run    *fixt.ModuleRun
}

// New opens a module scope over reg on a fresh engine. The module finishes
// and the engine closes when tb is cleaned up.
func New(tb TB, reg *fixt.Registry, opts ...fixt.Option) *Suite {
	tb.Helper()

	engine := fixt.NewEngine(opts...)
	run := engine.BeginModule(reg)

	tb.Cleanup(func() {
		if err := run.Finish(); err != nil {
			tb.Errorf("module teardown failed: %v", err)
		}
		if err := engine.Close(); err != nil {
			tb.Errorf("session teardown failed: %v", err)
		}
	})

	return &Suite{engine: engine, run: run}
}

// Fixtures builds the named fixtures for one test, binding tb as the
// ambient test context, and schedules their Test-scope teardowns on
// tb.Cleanup. Construction failures fail the test.
func (s *Suite) Fixtures(tb TB, names ...string) map[string]any {
	tb.Helper()

	res, err := s.run.CreateFixtures(names, tb)
	tb.Cleanup(func() {
		if err := res.Finish(); err != nil {
			tb.Errorf("fixture teardown failed: %v", err)
		}
	})
	if err != nil {
		tb.Fatalf("failed to create fixtures %v: %v", names, err)
	}
	return res.Values
}

// Fixture builds and returns a single fixture value.
func (s *Suite) Fixture(tb TB, name string) any {
	tb.Helper()
	return s.Fixtures(tb, name)[name]
}

// Engine exposes the underlying engine.
func (s *Suite) Engine() *fixt.Engine { return s.engine }

// Run exposes the live module-scope instance.
func (s *Suite) Run() *fixt.ModuleRun { return s.run }
