package fsmkit

import "fmt"

// RecursionError is the panic value raised when nested Fire calls exceed
// the limit set with WithMaxDepth.
type RecursionError struct {
	Machine string
	Depth   int
	Trigger any
}

func (e *RecursionError) Error() string {
	if e.Machine == "" {
		return fmt.Sprintf("fsmkit: fire depth %d exceeded while firing %v", e.Depth, e.Trigger)
	}
	return fmt.Sprintf("fsmkit: machine %q: fire depth %d exceeded while firing %v", e.Machine, e.Depth, e.Trigger)
}
