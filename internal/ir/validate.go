package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationIssue represents a single validation problem
type ValidationIssue struct {
	Code    string   // e.g., "NIL_CONTEXT", "SHADOWED_TRANSITION"
	Message string   // Human-readable description
	Path    []string // e.g., ["states", "locked", "transitions", "1"]
}

// String returns a human-readable representation of the issue
func (v ValidationIssue) String() string {
	if len(v.Path) > 0 {
		return fmt.Sprintf("[%s] %s (at %s)", v.Code, v.Message, strings.Join(v.Path, "."))
	}
	return fmt.Sprintf("[%s] %s", v.Code, v.Message)
}

// ValidationError contains all validation issues found during validation
type ValidationError struct {
	Issues []ValidationIssue
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0].String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "validation failed with %d issues:\n", len(e.Issues))
	for i, issue := range e.Issues {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, issue.String())
	}
	return b.String()
}

// AddIssue adds a validation issue to the error
func (e *ValidationError) AddIssue(code, message string, path ...string) {
	e.Issues = append(e.Issues, ValidationIssue{
		Code:    code,
		Message: message,
		Path:    path,
	})
}

// HasIssues returns true if there are any validation issues
func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// HasCode reports whether any issue carries the given code
func (e *ValidationError) HasCode(code string) bool {
	for _, issue := range e.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

// Validation error codes
const (
	ErrCodeNilContext         = "NIL_CONTEXT"
	ErrCodeNilTable           = "NIL_TABLE"
	ErrCodeNilHooks           = "NIL_HOOKS"
	ErrCodeNilHook            = "NIL_HOOK"
	ErrCodeShadowedTransition = "SHADOWED_TRANSITION"
	ErrCodeUnknownHookState   = "UNKNOWN_HOOK_STATE"
)

// CheckRuntime verifies what a when-augmented machine needs to run
func CheckRuntime[S, T comparable, C any](ctx *C, table *Table[S, T, C], hooks *Hooks[S, T, C]) *ValidationError {
	errs := &ValidationError{}

	if ctx == nil {
		errs.AddIssue(ErrCodeNilContext, "context is required")
	}
	if table == nil {
		errs.AddIssue(ErrCodeNilTable, "transition table is required")
	}
	if hooks == nil {
		errs.AddIssue(ErrCodeNilHooks, "hook set is required")
	}

	if errs.HasIssues() {
		return errs
	}
	return nil
}

// Validate lints a table and its optional hook set. None of the issues it
// reports prevent a machine from running.
func Validate[S, T comparable, C any](table *Table[S, T, C], hooks *Hooks[S, T, C]) *ValidationError {
	errs := &ValidationError{}

	if table == nil {
		errs.AddIssue(ErrCodeNilTable, "transition table is required")
		return errs
	}

	for _, state := range table.states {
		statePath := []string{"states", fmt.Sprint(state)}
		unguarded := make(map[T]int)

		for i, tr := range table.transitions[state] {
			transPath := append(append([]string(nil), statePath...), "transitions", strconv.Itoa(i))

			if first, ok := unguarded[tr.Trigger]; ok {
				errs.AddIssue(ErrCodeShadowedTransition,
					fmt.Sprintf("transition on '%v' to '%v' is unreachable, transition %d has no guard", tr.Trigger, tr.To, first),
					transPath...)
				continue
			}
			if tr.Guard == nil {
				unguarded[tr.Trigger] = i
			}
		}
	}

	if hooks == nil {
		if errs.HasIssues() {
			return errs
		}
		return nil
	}

	for _, state := range hooks.states {
		hookPath := []string{"hooks", "enter", fmt.Sprint(state)}
		if !table.Has(state) {
			errs.AddIssue(ErrCodeUnknownHookState,
				fmt.Sprintf("enter hook registered for state '%v' that is never declared or targeted", state),
				hookPath...)
		}
		for i, action := range hooks.onEnter[state] {
			if action == nil {
				errs.AddIssue(ErrCodeNilHook, "enter hook is nil", append(hookPath, strconv.Itoa(i))...)
			}
		}
	}

	for _, trigger := range hooks.triggers {
		hookPath := []string{"hooks", "trigger", fmt.Sprint(trigger)}
		for i, action := range hooks.onTrigger[trigger] {
			if action == nil {
				errs.AddIssue(ErrCodeNilHook, "trigger hook is nil", append(hookPath, strconv.Itoa(i))...)
			}
		}
	}

	if errs.HasIssues() {
		return errs
	}
	return nil
}
