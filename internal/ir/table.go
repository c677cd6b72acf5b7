package ir

// Transition is a single edge of the transition table. It is never mutated
// after it has been added to a Table.
type Transition[S, T comparable, C any] struct {
	From    S
	To      S
	Trigger T
	Guard   Guard[S, T, C]  // Optional, nil means unconditional
	Action  Action[S, T, C] // Optional
}

// Allows reports whether the guard admits the transition. A transition
// without a guard always passes.
func (t *Transition[S, T, C]) Allows(ctx *C, m Handle[S, T]) bool {
	return t.Guard == nil || t.Guard(ctx, t.Trigger, m)
}

// Table maps each valid state to its outgoing transitions in registration order
type Table[S, T comparable, C any] struct {
	states      []S
	transitions map[S][]Transition[S, T, C]
}

// NewTable creates an empty table
func NewTable[S, T comparable, C any]() *Table[S, T, C] {
	return &Table[S, T, C]{
		transitions: make(map[S][]Transition[S, T, C]),
	}
}

// Declare registers a state as valid. Re-declaring is a no-op.
// Returns true if the state was not known before.
func (t *Table[S, T, C]) Declare(state S) bool {
	if _, ok := t.transitions[state]; ok {
		return false
	}
	t.transitions[state] = nil
	t.states = append(t.states, state)
	return true
}

// Add declares both endpoints and appends the transition to its source state
func (t *Table[S, T, C]) Add(tr Transition[S, T, C]) {
	t.Declare(tr.From)
	t.Declare(tr.To)
	t.transitions[tr.From] = append(t.transitions[tr.From], tr)
}

// Has reports whether the state is part of the valid-states set
func (t *Table[S, T, C]) Has(state S) bool {
	_, ok := t.transitions[state]
	return ok
}

// Transitions returns the outgoing transitions of a state. The second value is
// false when the state has no table entry at all.
// The returned slice is shared with the table and must not be modified.
func (t *Table[S, T, C]) Transitions(state S) ([]Transition[S, T, C], bool) {
	list, ok := t.transitions[state]
	return list, ok
}

// Triggers returns the triggers of the state's transitions in registration
// order, duplicates included
func (t *Table[S, T, C]) Triggers(state S) []T {
	list := t.transitions[state]
	triggers := make([]T, 0, len(list))
	for i := range list {
		triggers = append(triggers, list[i].Trigger)
	}
	return triggers
}

// States returns the valid states in declaration order
func (t *Table[S, T, C]) States() []S {
	states := make([]S, len(t.states))
	copy(states, t.states)
	return states
}

// Len returns the total number of transitions
func (t *Table[S, T, C]) Len() int {
	n := 0
	for _, list := range t.transitions {
		n += len(list)
	}
	return n
}

// Clone returns a deep copy of the table structure. Guard and action
// functions are shared.
func (t *Table[S, T, C]) Clone() *Table[S, T, C] {
	c := &Table[S, T, C]{
		states:      t.States(),
		transitions: make(map[S][]Transition[S, T, C], len(t.transitions)),
	}
	for state, list := range t.transitions {
		if list == nil {
			c.transitions[state] = nil
			continue
		}
		cp := make([]Transition[S, T, C], len(list))
		copy(cp, list)
		c.transitions[state] = cp
	}
	return c
}

// Hooks holds the callbacks of a when-augmented machine
type Hooks[S, T comparable, C any] struct {
	onTrigger map[T][]Action[S, T, C]
	onEnter   map[S][]Action[S, T, C]
	triggers  []T // triggers with hooks, in first-registration order
	states    []S // states with enter hooks, in first-registration order
}

// NewHooks creates an empty hook set
func NewHooks[S, T comparable, C any]() *Hooks[S, T, C] {
	return &Hooks[S, T, C]{
		onTrigger: make(map[T][]Action[S, T, C]),
		onEnter:   make(map[S][]Action[S, T, C]),
	}
}

// AddTrigger appends a hook run before every fire of the trigger
func (h *Hooks[S, T, C]) AddTrigger(trigger T, action Action[S, T, C]) {
	if _, ok := h.onTrigger[trigger]; !ok {
		h.triggers = append(h.triggers, trigger)
	}
	h.onTrigger[trigger] = append(h.onTrigger[trigger], action)
}

// AddEnter appends a hook run after every successful transition into the state
func (h *Hooks[S, T, C]) AddEnter(state S, action Action[S, T, C]) {
	if _, ok := h.onEnter[state]; !ok {
		h.states = append(h.states, state)
	}
	h.onEnter[state] = append(h.onEnter[state], action)
}

// Trigger returns the hooks registered for a trigger
func (h *Hooks[S, T, C]) Trigger(trigger T) []Action[S, T, C] {
	return h.onTrigger[trigger]
}

// Enter returns the hooks registered for a state
func (h *Hooks[S, T, C]) Enter(state S) []Action[S, T, C] {
	return h.onEnter[state]
}

// HookedTriggers returns the triggers that have hooks
func (h *Hooks[S, T, C]) HookedTriggers() []T {
	return append([]T(nil), h.triggers...)
}

// HookedStates returns the states that have enter hooks
func (h *Hooks[S, T, C]) HookedStates() []S {
	return append([]S(nil), h.states...)
}

// Clone returns a copy of the hook set
func (h *Hooks[S, T, C]) Clone() *Hooks[S, T, C] {
	c := NewHooks[S, T, C]()
	for trigger, list := range h.onTrigger {
		c.onTrigger[trigger] = append([]Action[S, T, C](nil), list...)
	}
	for state, list := range h.onEnter {
		c.onEnter[state] = append([]Action[S, T, C](nil), list...)
	}
	c.triggers = h.HookedTriggers()
	c.states = h.HookedStates()
	return c
}
