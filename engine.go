package fixt

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fixt-dev/fixt/internal/store"
)

// Engine drives fixture instantiation for a whole test session. It owns the
// process-wide session store and the teardown scheduler; per-module state
// lives in ModuleRun values handed out by BeginModule. An Engine is safe for
// use by concurrently executing tests.
type Engine struct {
	logger    *slog.Logger
	observers []CreateObserver

	session   *store.Store
	scheduler *Scheduler
	sessionID uuid.UUID
	closeOnce sync.Once
}

// NewEngine constructs an engine and opens the session scope. The session
// store lives until Close.
func NewEngine(opts ...Option) *Engine {
	cfg := &engineConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	e := &Engine{
		logger:    cfg.logger,
		observers: cfg.onCreate,
		session:   store.New(),
		scheduler: newScheduler(),
		sessionID: uuid.New(),
	}
	e.scheduler.beginSession(e.sessionID)
	return e
}

// Scheduler exposes the teardown scheduler for host-side registration.
func (e *Engine) Scheduler() *Scheduler { return e.scheduler }

// SessionID returns the opaque id of the session scope instance.
func (e *Engine) SessionID() uuid.UUID { return e.sessionID }

// Close ends the session scope: session teardowns run synchronously in
// registration order, then the session store is discarded. Close runs at
// most once; later calls return nil.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.logger.Debug("session scope ending", "instance", e.sessionID)
		err = e.scheduler.RunScope(e.sessionID)
		e.session = store.New()
	})
	return err
}

// ModuleRun is one live module-scope instance: a fresh module store plus an
// opaque instance id. The host signals "module starting" with BeginModule
// and "module finished" with Finish.
type ModuleRun struct {
	engine     *Engine
	registry   *Registry
	store      *store.Store
	id         uuid.UUID
	finishOnce sync.Once
}

// BeginModule opens a module scope over the given registry.
func (e *Engine) BeginModule(reg *Registry) *ModuleRun {
	run := &ModuleRun{
		engine:   e,
		registry: reg,
		store:    store.New(),
		id:       uuid.New(),
	}
	e.scheduler.begin(run.id)
	e.logger.Debug("module scope starting", "origin", reg.Origin(), "instance", run.id)
	return run
}

// ID returns the opaque id of this module-scope instance.
func (m *ModuleRun) ID() uuid.UUID { return m.id }

// Registry returns the registry this run resolves against.
func (m *ModuleRun) Registry() *Registry { return m.registry }

// Finish ends the module scope: its teardowns run synchronously in
// registration order, then the module store is discarded. Teardown errors
// are joined and returned but never prevent the discard. Finish runs at
// most once; later calls return nil.
func (m *ModuleRun) Finish() error {
	var err error
	m.finishOnce.Do(func() {
		m.engine.logger.Debug("module scope ending", "origin", m.registry.Origin(), "instance", m.id)
		err = m.engine.scheduler.RunScope(m.id)
		m.store = store.New()
	})
	return err
}

// TestResult carries the fixture values for one test plus the Test-scope
// teardowns recorded while building them. The host merges Values into its
// test context and calls Finish at its own per-test completion point.
type TestResult struct {
	// Values maps each requested (or autouse) fixture name to its value.
	// Empty when CreateFixtures returned an error.
	Values map[string]any

	mu         sync.Mutex
	teardowns  []TeardownFunc
	finishOnce sync.Once
}

func (t *TestResult) addTeardown(fn TeardownFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.teardowns = append(t.teardowns, fn)
}

// Finish runs the recorded Test-scope teardowns in registration order.
// Errors are collected and joined; every callback runs regardless. Finish
// runs at most once.
func (t *TestResult) Finish() error {
	var err error
	t.finishOnce.Do(func() {
		t.mu.Lock()
		fns := t.teardowns
		t.teardowns = nil
		t.mu.Unlock()

		var errs []error
		for _, fn := range fns {
			if e := fn(); e != nil {
				errs = append(errs, e)
			}
		}
		err = errors.Join(errs...)
	})
	return err
}

// CreateFixtures instantiates the requested fixtures plus all autouse ones
// for a single test, sharing Module- and Session-scoped values through the
// run's stores. testCtx is bound to the TestContext sentinel.
//
// On failure the error names the failing fixture and wraps its cause, and
// the returned TestResult is still non-nil: Test-scope teardowns registered
// by fixtures that succeeded earlier in the request are recorded on it, so
// the host must call Finish on it either way. Module/Session store entries
// only commit on success; a failed entry is rebuilt by its next accessor.
func (m *ModuleRun) CreateFixtures(requested []string, testCtx any) (*TestResult, error) {
	result := &TestResult{}

	effective := m.registry.effectiveRequest(requested)
	defs, err := m.registry.resolve(effective)
	if err != nil {
		return result, err
	}

	var sessionDefs, moduleDefs, testDefs []*definition
	for _, def := range defs {
		switch def.Scope {
		case ScopeSession:
			sessionDefs = append(sessionDefs, def)
		case ScopeModule:
			moduleDefs = append(moduleDefs, def)
		default:
			testDefs = append(testDefs, def)
		}
	}

	// resolved accumulates every value produced for this call, keyed by
	// qualified name. It is the per-test working map; stores stay the only
	// shared state.
	resolved := make(map[string]any, len(defs))

	for _, def := range sessionDefs {
		value, err := m.engine.session.GetOrCreate(def.qualified, m.storeFactory(def, resolved, testCtx, result))
		if err != nil {
			return result, err
		}
		resolved[def.qualified] = value
	}

	for _, def := range moduleDefs {
		value, err := m.store.GetOrCreate(def.qualified, m.storeFactory(def, resolved, testCtx, result))
		if err != nil {
			return result, err
		}
		resolved[def.qualified] = value
	}

	for _, def := range testDefs {
		value, err := m.invoke(def, m.args(def, nil, resolved, testCtx), result)
		if err != nil {
			return result, err
		}
		resolved[def.qualified] = value
	}

	values := make(map[string]any, len(effective))
	for _, name := range effective {
		def, err := m.registry.lookup(name)
		if err != nil {
			return result, err
		}
		values[name] = resolved[def.qualified]
	}
	result.Values = values
	return result, nil
}

// storeFactory adapts a definition to the store's factory shape. The
// factory runs only in the goroutine that wins the key, so reading the
// caller's working map is race-free.
func (m *ModuleRun) storeFactory(def *definition, resolved map[string]any, testCtx any, result *TestResult) store.Factory {
	return func(snap store.Snapshot) (any, error) {
		return m.invoke(def, m.args(def, snap, resolved, testCtx), result)
	}
}

// args assembles the ordered dependency values for def: the sentinel binds
// to the ambient test context, store-committed values win, and anything
// else comes from the working map. Creation order guarantees every
// dependency is present in one of the two.
func (m *ModuleRun) args(def *definition, snap store.Snapshot, resolved map[string]any, testCtx any) []any {
	values := make([]any, len(def.resolvedDeps))
	for i, dep := range def.resolvedDeps {
		if dep == TestContext {
			values[i] = testCtx
			continue
		}
		if value, ok := snap[dep]; ok {
			values[i] = value
			continue
		}
		values[i] = resolved[dep]
	}
	return values
}

// invoke runs def's producer and reports the outcome to the logger and any
// observers. Producer failures come back as ConstructionFailed errors
// naming the fixture and wrapping the cause.
func (m *ModuleRun) invoke(def *definition, values []any, result *TestResult) (any, error) {
	call := &Call{
		name:   def.Name,
		scope:  def.Scope,
		values: values,
		engine: m.engine,
		run:    m,
		result: result,
	}

	start := time.Now()
	value, err := def.Producer(call)
	elapsed := time.Since(start)

	for _, observe := range m.engine.observers {
		observe(def.Name, def.Scope, elapsed, err)
	}

	if err != nil {
		m.engine.logger.Debug("fixture construction failed",
			"fixture", def.qualified, "scope", def.Scope, "duration", elapsed, "error", err)
		return nil, errConstructionFailed(def.Name, err)
	}

	m.engine.logger.Debug("fixture created",
		"fixture", def.qualified, "scope", def.Scope, "duration", elapsed)
	return value, nil
}
