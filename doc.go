// Package fixt is a test-fixture dependency-injection engine: given named
// setup routines with declared dependencies, a reuse scope, and an auto-use
// flag, it computes a valid creation order, instantiates only what a test
// needs, shares instances per scope, and schedules teardown bound to each
// scope's lifetime.
//
// # Quick Start
//
// Declare fixtures, build a registry, and create values per test:
//
//	reg, err := fixt.NewRegistry("pkg/storage", []fixt.Definition{
//	    {Name: "db", Scope: fixt.ScopeModule, Producer: openDB},
//	    {Name: "model", Deps: []string{"db"}, Producer: newModel},
//	})
//
//	engine := fixt.NewEngine()
//	defer engine.Close()
//
//	run := engine.BeginModule(reg)
//	defer run.Finish()
//
//	res, err := run.CreateFixtures([]string{"model"}, t)
//	defer res.Finish()
//	model := res.Values["model"]
//
// # Scopes
//
// A fixture's scope governs how long its value is cached: ScopeTest values
// are rebuilt for every test, ScopeModule values live for one BeginModule /
// Finish window, ScopeSession values for the whole engine. A definition may
// only depend on definitions of equal or longer lifetime.
//
// # Shadowing
//
// A registry built on top of imported registries may redefine a name; the
// local definition takes over name-based resolution while the imported one
// stays reachable to dependents that resolved it earlier. A definition that
// lists its own name as a dependency receives the definition it shadows,
// so overrides can decorate the default they replace.
//
// # Teardown
//
// Producers register cleanups through Call.Cleanup; the engine runs them
// when the owning scope ends: TestResult.Finish for test scope (invoked by
// the host at its per-test completion point), ModuleRun.Finish for module
// scope, Engine.Close for session scope. Callbacks run in registration
// order and every callback runs even when earlier ones fail.
//
// # Concurrency
//
// Tests may call CreateFixtures concurrently. Module- and Session-scoped
// values are created at most once per scope instance; concurrent requesters
// of the same fixture block until the single construction finishes, and
// requesters of unrelated fixtures never wait on each other.
package fixt
