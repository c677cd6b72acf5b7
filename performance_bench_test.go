package fsmkit

import (
	"testing"
)

// Benchmark context
type BenchContext struct {
	Count int
}

type benchHandle = Handle[string, string]

func benchBuilder() *WhenBuilder[string, string, BenchContext] {
	return NewWhenBuilder[string, string, BenchContext]().
		AddTransition("START", "idle", "running",
			WithGuard(func(ctx *BenchContext, _ string, _ benchHandle) bool { return ctx.Count >= 0 }),
			WithAction(func(ctx *BenchContext, _ string, _ benchHandle) { ctx.Count++ })).
		AddTransition("STOP", "running", "idle").
		OnEnter("running", func(ctx *BenchContext, _ string, _ benchHandle) { ctx.Count++ })
}

// BenchmarkBuilder_BuildTime benchmarks table construction
func BenchmarkBuilder_BuildTime(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = benchBuilder().BuildNew("idle")
	}
}

// BenchmarkMachine_Fire benchmarks the plain resolution path
func BenchmarkMachine_Fire(b *testing.B) {
	m := benchBuilder().BuildNew("idle")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Fire("START")
		m.Fire("STOP")
	}
}

// BenchmarkWhenMachine_Fire benchmarks the hooked resolution path
func BenchmarkWhenMachine_Fire(b *testing.B) {
	m, err := benchBuilder().BuildWhenNew("idle")
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Fire("START")
		m.Fire("STOP")
	}
}

// BenchmarkMachine_FireInvalid benchmarks a trigger with no transition
func BenchmarkMachine_FireInvalid(b *testing.B) {
	m := benchBuilder().BuildNew("idle")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Fire("UNKNOWN")
	}
}
