// Package store implements the scoped fixture value cache: a concurrency-safe
// get-or-create map with create-once semantics per key and immutable
// snapshots of committed values.
package store

import "sync"

// Snapshot is a read-only view of the values committed to a store at a
// point in time. Factories receive one so they can read dependency values
// without touching the live store.
type Snapshot map[string]any

// Factory builds the value for a key. It runs outside the store lock; a
// slow factory blocks only concurrent requesters of the same key.
type Factory func(snap Snapshot) (any, error)

type entry struct {
	done  chan struct{}
	value any
	err   error
}

// Store caches one value per key for the lifetime of a scope instance.
// A failed factory leaves its key uncommitted, so the next requester
// rebuilds from scratch; requesters already waiting on the failed attempt
// receive its error.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// GetOrCreate returns the cached value for key, or invokes factory exactly
// once to build it. Concurrent calls for the same key observe at most one
// factory invocation and block until it completes.
func (s *Store) GetOrCreate(key string, factory Factory) (any, error) {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok {
		s.mu.Unlock()
		<-e.done
		return e.value, e.err
	}

	e := &entry{done: make(chan struct{})}
	s.entries[key] = e
	snap := s.snapshotLocked()
	s.mu.Unlock()

	value, err := factory(snap)

	s.mu.Lock()
	if err != nil {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	e.value = value
	e.err = err
	close(e.done)

	return value, err
}

// Get returns the committed value for key, if any. It never blocks on an
// in-flight factory.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !committed(e) {
		return nil, false
	}
	return e.value, true
}

// Snapshot returns the committed values as of now.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len counts committed entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.entries {
		if committed(e) {
			n++
		}
	}
	return n
}

func (s *Store) snapshotLocked() Snapshot {
	snap := make(Snapshot, len(s.entries))
	for key, e := range s.entries {
		if committed(e) {
			snap[key] = e.value
		}
	}
	return snap
}

// committed reports whether e finished successfully. Failed entries are
// deleted under the lock before their latch closes, so any entry still in
// the map with a closed latch holds a committed value.
func committed(e *entry) bool {
	select {
	case <-e.done:
		return e.err == nil
	default:
		return false
	}
}
