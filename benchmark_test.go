package fixt_test

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/fixt-dev/fixt"
)

func BenchmarkCreateFixtures_Chain10(b *testing.B) {
	benchmarkCreateFixtures(b, 10)
}

func BenchmarkCreateFixtures_Chain50(b *testing.B) {
	benchmarkCreateFixtures(b, 50)
}

func BenchmarkCreateFixtures_Chain100(b *testing.B) {
	benchmarkCreateFixtures(b, 100)
}

// benchmarkCreateFixtures measures a full per-test request against a linear
// chain of n module-scoped fixtures, so iterations after the first hit the
// store's cached path.
func benchmarkCreateFixtures(b *testing.B, n int) {
	defs := make([]fixt.Definition, 0, n+1)
	defs = append(defs, fixt.Definition{
		Name:     "f0",
		Scope:    fixt.ScopeModule,
		Producer: func(*fixt.Call) (any, error) { return 0, nil },
	})
	for i := 1; i < n; i++ {
		defs = append(defs, fixt.Definition{
			Name:  fmt.Sprintf("f%d", i),
			Scope: fixt.ScopeModule,
			Deps:  []string{fmt.Sprintf("f%d", i-1)},
			Producer: func(call *fixt.Call) (any, error) {
				return call.Dep(0).(int) + 1, nil
			},
		})
	}
	defs = append(defs, fixt.Definition{
		Name: "leaf",
		Deps: []string{fmt.Sprintf("f%d", n-1)},
		Producer: func(call *fixt.Call) (any, error) {
			return call.Dep(0), nil
		},
	})

	reg, err := fixt.NewRegistry("bench", defs)
	if err != nil {
		b.Fatalf("NewRegistry failed: %v", err)
	}

	engine := fixt.NewEngine(fixt.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer engine.Close()
	run := engine.BeginModule(reg)
	defer run.Finish()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := run.CreateFixtures([]string{"leaf"}, nil)
		if err != nil {
			b.Fatalf("CreateFixtures failed: %v", err)
		}
		_ = res.Finish()
	}
}

func BenchmarkRegistryResolveName(b *testing.B) {
	defs := make([]fixt.Definition, 0, 100)
	for i := 0; i < 100; i++ {
		defs = append(defs, fixt.Definition{
			Name:     fmt.Sprintf("fixture%d", i),
			Producer: func(*fixt.Call) (any, error) { return nil, nil },
		})
	}
	reg, err := fixt.NewRegistry("bench", defs)
	if err != nil {
		b.Fatalf("NewRegistry failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := reg.ResolveName("fixture50"); err != nil {
			b.Fatal(err)
		}
	}
}
