package fsmkit

import (
	"fmt"

	"github.com/felixgeelhaar/fsmkit/internal/ir"
)

// WhenBuilder is a Builder that also collects hooks, and builds WhenMachines.
type WhenBuilder[S, T comparable, C any] struct {
	*Builder[S, T, C]
	hooks       *ir.Hooks[S, T, C]
	hooksShared bool
}

// NewWhenBuilder creates an empty WhenBuilder
func NewWhenBuilder[S, T comparable, C any]() *WhenBuilder[S, T, C] {
	return &WhenBuilder[S, T, C]{
		Builder: NewBuilder[S, T, C](),
		hooks:   ir.NewHooks[S, T, C](),
	}
}

// DeclareState registers a state as valid
func (b *WhenBuilder[S, T, C]) DeclareState(state S) *WhenBuilder[S, T, C] {
	b.Builder.DeclareState(state)
	return b
}

// AddTransition appends a transition, see Builder.AddTransition
func (b *WhenBuilder[S, T, C]) AddTransition(trigger T, from, to S, opts ...TransitionOption[S, T, C]) *WhenBuilder[S, T, C] {
	b.Builder.AddTransition(trigger, from, to, opts...)
	return b
}

// OnEnter adds a hook run after every successful transition into state,
// after the transition's own action
func (b *WhenBuilder[S, T, C]) OnEnter(state S, action Action[S, T, C]) *WhenBuilder[S, T, C] {
	b.mutableHooks().AddEnter(state, action)
	return b
}

// OnTrigger adds a hook run every time trigger is fired, before the
// transition is resolved and whatever its result
func (b *WhenBuilder[S, T, C]) OnTrigger(trigger T, action Action[S, T, C]) *WhenBuilder[S, T, C] {
	b.mutableHooks().AddTrigger(trigger, action)
	return b
}

// Validate reports configuration smells in the table and the hooks
func (b *WhenBuilder[S, T, C]) Validate() error {
	if errs := ir.Validate(b.table, b.hooks); errs != nil {
		return errs
	}
	return nil
}

// BuildWhen creates a WhenMachine sharing the builder's table. It fails with
// a *ValidationError if ctx is nil.
func (b *WhenBuilder[S, T, C]) BuildWhen(ctx *C, initial S, opts ...Option) (*WhenMachine[S, T, C], error) {
	b.hooksShared = true
	return newWhenMachine(b.freeze(), b.hooks, ctx, initial, opts)
}

// BuildWhenNew is BuildWhen with a zero-valued context
func (b *WhenBuilder[S, T, C]) BuildWhenNew(initial S, opts ...Option) (*WhenMachine[S, T, C], error) {
	return b.BuildWhen(new(C), initial, opts...)
}

// MustBuildWhen is like BuildWhen but panics on error
func (b *WhenBuilder[S, T, C]) MustBuildWhen(ctx *C, initial S, opts ...Option) *WhenMachine[S, T, C] {
	m, err := b.BuildWhen(ctx, initial, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func (b *WhenBuilder[S, T, C]) mutableHooks() *ir.Hooks[S, T, C] {
	if b.hooksShared {
		b.hooks = b.hooks.Clone()
		b.hooksShared = false
	}
	return b.hooks
}

// WhenMachine is a Machine that runs trigger hooks before, and enter hooks
// after, the transition resolved by Fire.
type WhenMachine[S, T comparable, C any] struct {
	*Machine[S, T, C]
	hooks *ir.Hooks[S, T, C]
}

func newWhenMachine[S, T comparable, C any](table *ir.Table[S, T, C], hooks *ir.Hooks[S, T, C], ctx *C, initial S, opts []Option) (*WhenMachine[S, T, C], error) {
	if errs := ir.CheckRuntime(ctx, table, hooks); errs != nil {
		return nil, errs
	}
	w := &WhenMachine[S, T, C]{
		Machine: newMachine(table, ctx, initial, opts),
		hooks:   hooks,
	}
	w.self = w
	return w, nil
}

// Fire runs the hooks registered for trigger, resolves the transition like
// Machine.Fire and, on success, runs the enter hooks of the state the
// transition entered.
func (w *WhenMachine[S, T, C]) Fire(trigger T) Result {
	w.push(trigger)
	defer w.pop()

	for _, hook := range w.hooks.Trigger(trigger) {
		if hook != nil {
			hook(w.ctx, trigger, w)
		}
	}

	result, entered := w.resolve(trigger)
	switch result {
	case Success:
		for _, hook := range w.hooks.Enter(entered) {
			if hook != nil {
				hook(w.ctx, trigger, w)
			}
		}
		return Success
	case InvalidTransition, ConditionNotMet:
		return result
	default:
		panic(fmt.Sprintf("fsmkit: unexpected fire result %v", result))
	}
}
