package fsmkit

import "github.com/felixgeelhaar/fsmkit/internal/ir"

// Machine is the runtime of a finite state machine built by Builder.
//
// A Machine is not safe for concurrent use. Guards, actions and hooks run on
// the goroutine that called Fire and may call Fire again; such calls are
// resolved immediately, by recursion, before the outer Fire returns.
type Machine[S, T comparable, C any] struct {
	table     *ir.Table[S, T, C]
	ctx       *C
	current   S
	self      Handle[S, T] // handle given to callbacks; the outermost machine
	opts      machineOptions
	observers []Observer[S, T]
	depth     int
}

func newMachine[S, T comparable, C any](table *ir.Table[S, T, C], ctx *C, initial S, opts []Option) *Machine[S, T, C] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	m := &Machine[S, T, C]{
		table:   table,
		ctx:     ctx,
		current: initial,
		opts:    o,
	}
	m.self = m
	return m
}

// Name returns the name given with WithName
func (m *Machine[S, T, C]) Name() string {
	return m.opts.name
}

// CurrentState returns the current state
func (m *Machine[S, T, C]) CurrentState() S {
	return m.current
}

// Context returns the context passed to every callback
func (m *Machine[S, T, C]) Context() *C {
	return m.ctx
}

// IsInState reports whether the machine is in the given state
func (m *Machine[S, T, C]) IsInState(state S) bool {
	return m.current == state
}

// ValidStates returns every state known to the transition table
func (m *Machine[S, T, C]) ValidStates() []S {
	return m.table.States()
}

// PossibleTriggers returns the triggers of all transitions leaving the current
// state in registration order. Guards are not evaluated, so a trigger can
// appear more than once. A state without table entry yields an empty slice.
func (m *Machine[S, T, C]) PossibleTriggers() []T {
	return m.table.Triggers(m.current)
}

// AddObserver registers an observer notified of every resolved Fire call
func (m *Machine[S, T, C]) AddObserver(o Observer[S, T]) {
	if o != nil {
		m.observers = append(m.observers, o)
	}
}

// Fire resolves trigger against the current state.
//
// The first transition registered for the trigger whose guard passes wins:
// the current state is set to its target and then its action runs. Fire
// returns InvalidTransition when no transition exists for the trigger and
// ConditionNotMet when every guard rejected it; in both cases nothing changes.
// Panics raised by callbacks propagate to the caller.
func (m *Machine[S, T, C]) Fire(trigger T) Result {
	m.push(trigger)
	defer m.pop()

	result, _ := m.resolve(trigger)
	return result
}

// resolve runs the transition algorithm. On success it also returns the
// state the winning transition entered.
func (m *Machine[S, T, C]) resolve(trigger T) (Result, S) {
	from := m.current

	transitions, ok := m.table.Transitions(from)
	if !ok {
		m.report(from, from, trigger, InvalidTransition)
		return InvalidTransition, from
	}

	candidates := 0
	for i := range transitions {
		t := &transitions[i]
		if t.Trigger != trigger {
			continue
		}
		candidates++

		if !t.Allows(m.ctx, m.self) {
			continue // Guard failed, try next transition
		}

		m.current = t.To
		m.report(from, t.To, trigger, Success)
		if t.Action != nil {
			t.Action(m.ctx, trigger, m.self)
		}
		return Success, t.To
	}

	result := ConditionNotMet
	if candidates == 0 {
		result = InvalidTransition
	}
	m.report(from, from, trigger, result)
	return result, from
}

func (m *Machine[S, T, C]) push(trigger T) {
	if m.opts.maxDepth > 0 && m.depth >= m.opts.maxDepth {
		panic(&RecursionError{Machine: m.opts.name, Depth: m.depth + 1, Trigger: trigger})
	}
	m.depth++
}

func (m *Machine[S, T, C]) pop() {
	m.depth--
}

func (m *Machine[S, T, C]) report(from, to S, trigger T, result Result) {
	m.opts.logger.Debug("fire",
		"machine", m.opts.name,
		"trigger", trigger,
		"from", from,
		"to", to,
		"result", result.String(),
		"depth", m.depth,
	)

	if len(m.observers) == 0 {
		return
	}
	e := FireEvent[S, T]{
		Machine: m.opts.name,
		From:    from,
		To:      to,
		Trigger: trigger,
		Result:  result,
		Depth:   m.depth,
	}
	for _, o := range m.observers {
		o.ObserveFire(e)
	}
}
