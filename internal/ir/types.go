package ir

// Result is the outcome of firing a trigger
type Result int

const (
	// Success means a transition was taken and its action has run
	Success Result = iota
	// InvalidTransition means the current state has no transition for the trigger
	InvalidTransition
	// ConditionNotMet means transitions exist for the trigger but every guard rejected it
	ConditionNotMet
)

// String returns the string representation of Result
func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case InvalidTransition:
		return "InvalidTransition"
	case ConditionNotMet:
		return "ConditionNotMet"
	default:
		return "unknown"
	}
}

// ParseResult is the inverse of Result.String
func ParseResult(s string) (Result, bool) {
	switch s {
	case "Success":
		return Success, true
	case "InvalidTransition":
		return InvalidTransition, true
	case "ConditionNotMet":
		return ConditionNotMet, true
	}
	return 0, false
}

// Handle is the view of a running machine handed to guards, actions and hooks
type Handle[S, T comparable] interface {
	CurrentState() S
	PossibleTriggers() []T
	Fire(trigger T) Result
}

// Guard is a predicate that determines if a transition may be taken
type Guard[S, T comparable, C any] func(ctx *C, trigger T, m Handle[S, T]) bool

// Action is a side effect run after a transition has been committed
type Action[S, T comparable, C any] func(ctx *C, trigger T, m Handle[S, T])
