package store

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestGetOrCreate_CachesValue(t *testing.T) {
	t.Parallel()

	s := New()
	calls := 0

	for n := 0; n < 3; n++ {
		v, err := s.GetOrCreate("db", func(Snapshot) (any, error) {
			calls++
			return 42, nil
		})
		if err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
		if v != 42 {
			t.Errorf("expected 42, got %v", v)
		}
	}

	if calls != 1 {
		t.Errorf("expected 1 factory call, got %d", calls)
	}
}

func TestGetOrCreate_ConcurrentSingleInvocation(t *testing.T) {
	t.Parallel()

	s := New()
	var calls atomic.Int64
	release := make(chan struct{})

	var g errgroup.Group
	for n := 0; n < 50; n++ {
		g.Go(func() error {
			v, err := s.GetOrCreate("shared", func(Snapshot) (any, error) {
				calls.Add(1)
				<-release
				return "value", nil
			})
			if err != nil {
				return err
			}
			if v != "value" {
				return errors.New("wrong value")
			}
			return nil
		})
	}

	close(release)
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent GetOrCreate failed: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected exactly 1 factory invocation, got %d", n)
	}
}

func TestGetOrCreate_DistinctKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	s := New()
	slowStarted := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.GetOrCreate("slow", func(Snapshot) (any, error) {
			close(slowStarted)
			<-release
			return nil, nil
		})
	}()

	<-slowStarted

	// Must complete while "slow" is still in flight.
	v, err := s.GetOrCreate("fast", func(Snapshot) (any, error) {
		return 1, nil
	})
	if err != nil {
		t.Fatalf("GetOrCreate for fast key failed: %v", err)
	}
	if v != 1 {
		t.Errorf("expected 1, got %v", v)
	}

	close(release)
	wg.Wait()
}

func TestGetOrCreate_FailureNotCommitted(t *testing.T) {
	t.Parallel()

	s := New()
	boom := errors.New("boom")
	calls := 0

	_, err := s.GetOrCreate("flaky", func(Snapshot) (any, error) {
		calls++
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := s.Get("flaky"); ok {
		t.Error("failed entry should not be committed")
	}

	v, err := s.GetOrCreate("flaky", func(Snapshot) (any, error) {
		calls++
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if v != "recovered" {
		t.Errorf("expected recovered, got %v", v)
	}
	if calls != 2 {
		t.Errorf("expected retry to invoke factory again, got %d calls", calls)
	}
}

func TestGetOrCreate_WaitersSeeFailure(t *testing.T) {
	t.Parallel()

	s := New()
	boom := errors.New("boom")
	started := make(chan struct{})
	release := make(chan struct{})

	var g errgroup.Group
	g.Go(func() error {
		_, err := s.GetOrCreate("flaky", func(Snapshot) (any, error) {
			close(started)
			<-release
			return nil, boom
		})
		return err
	})

	<-started
	waiters := make([]error, 5)
	var wg, ready sync.WaitGroup
	for i := range waiters {
		i := i
		wg.Add(1)
		ready.Add(1)
		go func() {
			defer wg.Done()
			ready.Done()
			_, waiters[i] = s.GetOrCreate("flaky", func(Snapshot) (any, error) {
				t.Error("waiter must not invoke factory")
				return nil, nil
			})
		}()
	}

	// Let every waiter reach the in-flight latch before the owner fails.
	ready.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	if err := g.Wait(); !errors.Is(err, boom) {
		t.Fatalf("expected boom from owner, got %v", err)
	}
	for i, err := range waiters {
		if !errors.Is(err, boom) {
			t.Errorf("waiter %d: expected boom, got %v", i, err)
		}
	}
}

func TestSnapshot_OnlyCommittedValues(t *testing.T) {
	t.Parallel()

	s := New()
	if _, err := s.GetOrCreate("a", func(Snapshot) (any, error) { return 1, nil }); err != nil {
		t.Fatal(err)
	}

	var seen Snapshot
	if _, err := s.GetOrCreate("b", func(snap Snapshot) (any, error) {
		seen = snap
		return 2, nil
	}); err != nil {
		t.Fatal(err)
	}

	if len(seen) != 1 || seen["a"] != 1 {
		t.Errorf("factory snapshot should hold only committed a=1, got %v", seen)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 committed entries, got %d", s.Len())
	}

	snap := s.Snapshot()
	if len(snap) != 2 || snap["a"] != 1 || snap["b"] != 2 {
		t.Errorf("expected snapshot {a:1 b:2}, got %v", snap)
	}
}
