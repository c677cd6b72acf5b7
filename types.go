package fsmkit

import "github.com/felixgeelhaar/fsmkit/internal/ir"

// Re-export types from internal/ir for public API
type (
	// Result is the outcome of Fire
	Result = ir.Result
	// ValidationError lists every configuration issue found
	ValidationError = ir.ValidationError
	// ValidationIssue is a single configuration problem
	ValidationIssue = ir.ValidationIssue
)

// Handle is the view of a running machine passed to guards, actions and hooks.
// Calling Fire on it from inside a callback fires re-entrantly.
type Handle[S, T comparable] = ir.Handle[S, T]

// Guard decides whether a candidate transition may be taken.
// It receives a pointer to the context, the fired trigger and the machine.
type Guard[S, T comparable, C any] = ir.Guard[S, T, C]

// Action is a side effect run once a transition has been committed,
// or a hook run around Fire on a WhenMachine.
type Action[S, T comparable, C any] = ir.Action[S, T, C]

// Transition is an immutable edge of the transition table.
type Transition[S, T comparable, C any] = ir.Transition[S, T, C]

// Re-export constants
const (
	Success           = ir.Success
	InvalidTransition = ir.InvalidTransition
	ConditionNotMet   = ir.ConditionNotMet

	ErrCodeNilContext         = ir.ErrCodeNilContext
	ErrCodeNilTable           = ir.ErrCodeNilTable
	ErrCodeNilHooks           = ir.ErrCodeNilHooks
	ErrCodeNilHook            = ir.ErrCodeNilHook
	ErrCodeShadowedTransition = ir.ErrCodeShadowedTransition
	ErrCodeUnknownHookState   = ir.ErrCodeUnknownHookState
)

// ParseResult converts the output of Result.String back into a Result.
func ParseResult(s string) (Result, bool) {
	return ir.ParseResult(s)
}

// FireEvent describes one resolved Fire call. For failed calls To equals From.
type FireEvent[S, T comparable] struct {
	Machine string
	From    S
	To      S
	Trigger T
	Result  Result
	Depth   int // 1 for an outermost call, +1 for each re-entrant level
}

// Observer is notified of every resolved Fire call
type Observer[S, T comparable] interface {
	ObserveFire(e FireEvent[S, T])
}

// ObserverFunc adapts a function to Observer
type ObserverFunc[S, T comparable] func(e FireEvent[S, T])

// ObserveFire calls f(e)
func (f ObserverFunc[S, T]) ObserveFire(e FireEvent[S, T]) {
	f(e)
}
