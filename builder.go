package fsmkit

import "github.com/felixgeelhaar/fsmkit/internal/ir"

// Builder provides a fluent API for constructing state machines.
//
// Build hands the builder's table to the machine without copying it. If the
// builder is changed afterwards it copies the table first, so machines that
// were already built keep the table they were built with.
type Builder[S, T comparable, C any] struct {
	table  *ir.Table[S, T, C]
	shared bool
}

// TransitionOption configures a transition added with AddTransition
type TransitionOption[S, T comparable, C any] func(*ir.Transition[S, T, C])

// WithGuard sets the guard condition for the transition
func WithGuard[S, T comparable, C any](guard Guard[S, T, C]) TransitionOption[S, T, C] {
	return func(t *ir.Transition[S, T, C]) {
		t.Guard = guard
	}
}

// WithAction sets the action executed after the transition is committed
func WithAction[S, T comparable, C any](action Action[S, T, C]) TransitionOption[S, T, C] {
	return func(t *ir.Transition[S, T, C]) {
		t.Action = action
	}
}

// NewBuilder creates an empty Builder
func NewBuilder[S, T comparable, C any]() *Builder[S, T, C] {
	return &Builder[S, T, C]{
		table: ir.NewTable[S, T, C](),
	}
}

// DeclareState registers a state as valid. Declaring a state twice is allowed.
func (b *Builder[S, T, C]) DeclareState(state S) *Builder[S, T, C] {
	b.mutable().Declare(state)
	return b
}

// AddTransition declares both states and appends a transition from -> to on
// trigger. Several transitions may share the same source state and trigger;
// Fire picks the first one, in call order, whose guard passes.
func (b *Builder[S, T, C]) AddTransition(trigger T, from, to S, opts ...TransitionOption[S, T, C]) *Builder[S, T, C] {
	t := ir.Transition[S, T, C]{
		From:    from,
		To:      to,
		Trigger: trigger,
	}
	for _, opt := range opts {
		opt(&t)
	}
	b.mutable().Add(t)
	return b
}

// States returns the valid states in declaration order
func (b *Builder[S, T, C]) States() []S {
	return b.table.States()
}

// Validate reports configuration smells such as transitions that can never
// be taken. It does not prevent Build.
func (b *Builder[S, T, C]) Validate() error {
	if errs := ir.Validate(b.table, nil); errs != nil {
		return errs
	}
	return nil
}

// Build creates a Machine over ctx starting in initial. The initial state is
// not checked against the declared states; a machine started in an unknown
// state simply has no outgoing transitions.
func (b *Builder[S, T, C]) Build(ctx *C, initial S, opts ...Option) *Machine[S, T, C] {
	return newMachine(b.freeze(), ctx, initial, opts)
}

// BuildNew is Build with a zero-valued context
func (b *Builder[S, T, C]) BuildNew(initial S, opts ...Option) *Machine[S, T, C] {
	return b.Build(new(C), initial, opts...)
}

// freeze marks the table as handed off and returns it
func (b *Builder[S, T, C]) freeze() *ir.Table[S, T, C] {
	b.shared = true
	return b.table
}

// mutable returns a table that is safe to change
func (b *Builder[S, T, C]) mutable() *ir.Table[S, T, C] {
	if b.shared {
		b.table = b.table.Clone()
		b.shared = false
	}
	return b.table
}
