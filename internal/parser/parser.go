// Package parser parses the compact transition and call notation used by
// scenario files.
//
//	TRIGGER->target
//	TRIGGER->target:guard
//	TRIGGER->target/call1;call2
//	TRIGGER->target/call1;call2:guard
//
// A guard is a flag name, optionally negated with '!'. A call is a bare name
// such as "record" or a name with one argument such as "set(unlocked)".
package parser

import (
	"fmt"
	"strings"
)

// TransitionSchema represents a parsed transition definition.
type TransitionSchema struct {
	Trigger string
	Target  string
	Guard   *GuardSchema
	Calls   []CallSchema
}

// GuardSchema is a flag test.
type GuardSchema struct {
	Flag   string
	Negate bool
}

// String renders the guard back to its notation.
func (g GuardSchema) String() string {
	if g.Negate {
		return "!" + g.Flag
	}
	return g.Flag
}

// CallSchema is a named call with an optional argument.
type CallSchema struct {
	Name string
	Arg  string
}

// String renders the call back to its notation.
func (c CallSchema) String() string {
	if c.Arg == "" {
		return c.Name
	}
	return c.Name + "(" + c.Arg + ")"
}

// ParseTransitions parses a list of transitions.
func ParseTransitions(list []string) ([]TransitionSchema, error) {
	transitions := make([]TransitionSchema, 0, len(list))
	for i, s := range list {
		trans, err := ParseTransition(s)
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", i+1, err)
		}
		transitions = append(transitions, trans)
	}
	return transitions, nil
}

// ParseTransition parses a single transition.
func ParseTransition(s string) (TransitionSchema, error) {
	trans := TransitionSchema{}

	// Split on "->"
	arrowIdx := strings.Index(s, "->")
	if arrowIdx == -1 {
		return trans, fmt.Errorf("missing '->' in transition: %s", s)
	}

	trans.Trigger = strings.TrimSpace(s[:arrowIdx])
	rest := strings.TrimSpace(s[arrowIdx+2:])

	if trans.Trigger == "" {
		return trans, fmt.Errorf("empty trigger in transition: %s", s)
	}

	// Format: target:guard or target/calls:guard
	if colonIdx := strings.LastIndex(rest, ":"); colonIdx != -1 {
		guard, err := ParseGuard(rest[colonIdx+1:])
		if err != nil {
			return trans, fmt.Errorf("transition %s: %w", s, err)
		}
		trans.Guard = &guard
		rest = rest[:colonIdx]
	}

	if slashIdx := strings.Index(rest, "/"); slashIdx != -1 {
		trans.Target = strings.TrimSpace(rest[:slashIdx])
		calls, err := ParseCalls(splitTrim(rest[slashIdx+1:], ";"))
		if err != nil {
			return trans, fmt.Errorf("transition %s: %w", s, err)
		}
		if len(calls) == 0 {
			return trans, fmt.Errorf("empty call list in transition: %s", s)
		}
		trans.Calls = calls
	} else {
		trans.Target = strings.TrimSpace(rest)
	}

	if trans.Target == "" {
		return trans, fmt.Errorf("empty target in transition: %s", s)
	}

	return trans, nil
}

// ParseGuard parses "flag" or "!flag".
func ParseGuard(s string) (GuardSchema, error) {
	s = strings.TrimSpace(s)
	g := GuardSchema{}
	if strings.HasPrefix(s, "!") {
		g.Negate = true
		s = strings.TrimSpace(s[1:])
	}
	if s == "" {
		return g, fmt.Errorf("empty guard")
	}
	if strings.ContainsAny(s, "()/;:!") {
		return g, fmt.Errorf("invalid guard name %q", s)
	}
	g.Flag = s
	return g, nil
}

// ParseCalls parses each entry of list with ParseCall.
func ParseCalls(list []string) ([]CallSchema, error) {
	calls := make([]CallSchema, 0, len(list))
	for _, s := range list {
		call, err := ParseCall(s)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	return calls, nil
}

// ParseCall parses "name" or "name(arg)".
func ParseCall(s string) (CallSchema, error) {
	s = strings.TrimSpace(s)
	call := CallSchema{}

	open := strings.Index(s, "(")
	if open == -1 {
		if s == "" || strings.ContainsAny(s, ")/;:") {
			return call, fmt.Errorf("invalid call %q", s)
		}
		call.Name = s
		return call, nil
	}

	if !strings.HasSuffix(s, ")") {
		return call, fmt.Errorf("missing ')' in call %q", s)
	}
	call.Name = strings.TrimSpace(s[:open])
	call.Arg = strings.TrimSpace(s[open+1 : len(s)-1])

	if call.Name == "" {
		return call, fmt.Errorf("empty call name in %q", s)
	}
	if call.Arg == "" || strings.ContainsAny(call.Arg, "()") {
		return call, fmt.Errorf("invalid argument in call %q", s)
	}
	return call, nil
}

// splitTrim splits a string and trims whitespace from each part.
func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
