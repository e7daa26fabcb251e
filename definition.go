package fixt

// TestContext is the reserved dependency name that injects the ambient test
// context supplied by the host runner. It never resolves to a fixture and is
// never an edge in the dependency graph.
const TestContext = "testctx"

// Producer builds a fixture value. It receives a Call carrying the resolved
// dependency values in declaration order.
type Producer func(call *Call) (any, error)

// TeardownFunc is a cleanup callback bound to a scope instance's lifetime.
type TeardownFunc func() error

// Definition declares a fixture: a named setup routine with ordered
// dependencies, a reuse scope, and an auto-use flag. Definitions are
// registered statically, before any test runs, via NewRegistry.
type Definition struct {
	// Name is the local identifier the fixture is requested by.
	Name string

	// Producer builds the value. Required.
	Producer Producer

	// Deps lists dependency names in the order their values are passed to
	// the producer. Names resolve against the registry's visible set; the
	// reserved TestContext name injects the ambient test context. A
	// definition listing its own name receives the definition it shadows.
	Deps []string

	// Scope governs caching: Test values live for one test, Module values
	// for one module run, Session values for the whole process.
	Scope Scope

	// Autouse fixtures join every test's effective request implicitly.
	Autouse bool
}

// definition is the preprocessed form held by a Registry: qualified
// identity, qualified dependency edges, and shadowing state.
type definition struct {
	Definition

	// origin identifies the defining scope; qualified is origin + "::" + name
	// and is unique within a registry snapshot.
	origin    string
	qualified string

	// hidden marks a definition shadowed by a same-named one in an importing
	// scope. Hidden definitions are skipped by name resolution but stay
	// reachable through their qualified name.
	hidden bool

	// resolvedDeps holds the qualified name for each entry of Deps, with
	// TestContext passed through unresolved.
	resolvedDeps []string
}

// Call carries a producer invocation's inputs and lets the producer register
// teardown callbacks at its fixture's scope.
type Call struct {
	name   string
	scope  Scope
	values []any
	engine *Engine
	run    *ModuleRun
	result *TestResult
}

// Name returns the local name of the fixture being constructed.
func (c *Call) Name() string { return c.name }

// Scope returns the scope of the fixture being constructed.
func (c *Call) Scope() Scope { return c.scope }

// Deps returns the dependency values in declaration order.
func (c *Call) Deps() []any { return c.values }

// Dep returns the i'th dependency value.
func (c *Call) Dep(i int) any { return c.values[i] }

// Cleanup registers fn to run when the fixture's scope instance ends:
// at TestResult.Finish for Test scope, ModuleRun.Finish for Module scope,
// and Engine.Close for Session scope. Callbacks run in registration order.
func (c *Call) Cleanup(fn TeardownFunc) error {
	switch c.scope {
	case ScopeTest:
		c.result.addTeardown(fn)
		return nil
	case ScopeModule:
		return c.engine.scheduler.registerFor(c.run.id, ScopeModule, fn)
	case ScopeSession:
		return c.engine.scheduler.registerFor(c.engine.sessionID, ScopeSession, fn)
	default:
		return errNoActiveScope(c.scope)
	}
}
