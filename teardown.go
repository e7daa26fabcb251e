package fixt

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Scheduler binds teardown callbacks to scope-instance lifetimes. Module
// and Session callbacks attach to a live instance id and run exactly once,
// in registration order, when RunScope is called for that instance;
// the association is discarded afterwards. Test-scope callbacks are not
// held here: they accumulate on the TestResult for the host to run at its
// own per-test completion point.
type Scheduler struct {
	mu        sync.Mutex
	callbacks map[uuid.UUID][]TeardownFunc
	session   uuid.UUID

	// active tracks live module-scope instances, most recently begun last.
	active []uuid.UUID
}

func newScheduler() *Scheduler {
	return &Scheduler{callbacks: make(map[uuid.UUID][]TeardownFunc)}
}

// Register attaches fn to the current instance of the given scope: the most
// recently begun live module run for ScopeModule, the session for
// ScopeSession. With no live instance it fails with NoActiveScope.
// Test-scope callbacks are registered through Call.Cleanup, never here.
func (s *Scheduler) Register(sc Scope, fn TeardownFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch sc {
	case ScopeModule:
		if len(s.active) == 0 {
			return errNoActiveScope(sc)
		}
		id := s.active[len(s.active)-1]
		s.callbacks[id] = append(s.callbacks[id], fn)
		return nil
	case ScopeSession:
		if s.session == uuid.Nil {
			return errNoActiveScope(sc)
		}
		s.callbacks[s.session] = append(s.callbacks[s.session], fn)
		return nil
	default:
		return errNoActiveScope(sc)
	}
}

// registerFor attaches fn to a specific live instance.
func (s *Scheduler) registerFor(id uuid.UUID, sc Scope, fn TeardownFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.liveLocked(id) {
		return errNoActiveScope(sc)
	}
	s.callbacks[id] = append(s.callbacks[id], fn)
	return nil
}

// RunScope invokes the callbacks registered for the instance in
// registration order, then discards them. Callback failures are collected
// and joined; they never stop later callbacks from running. Running an
// unknown or already-run instance is a no-op.
func (s *Scheduler) RunScope(id uuid.UUID) error {
	s.mu.Lock()
	fns, ok := s.callbacks[id]
	if ok {
		delete(s.callbacks, id)
	}
	s.endLocked(id)
	s.mu.Unlock()

	if !ok {
		return nil
	}

	var errs []error
	for _, fn := range fns {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// begin makes id a live module-scope instance.
func (s *Scheduler) begin(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.callbacks[id]; !ok {
		s.callbacks[id] = nil
	}
	s.active = append(s.active, id)
}

// beginSession makes id the live session instance.
func (s *Scheduler) beginSession(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = id
	if _, ok := s.callbacks[id]; !ok {
		s.callbacks[id] = nil
	}
}

func (s *Scheduler) liveLocked(id uuid.UUID) bool {
	_, ok := s.callbacks[id]
	return ok
}

func (s *Scheduler) endLocked(id uuid.UUID) {
	for i := len(s.active) - 1; i >= 0; i-- {
		if s.active[i] == id {
			s.active = append(s.active[:i], s.active[i+1:]...)
			return
		}
	}
}
