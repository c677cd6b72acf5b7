// Package scenario loads YAML descriptions of string-typed machines together
// with a trigger script, compiles them onto fsmkit.WhenBuilder and runs them.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/fsmkit"
	"github.com/felixgeelhaar/fsmkit/internal/parser"
)

// File is the document stored in a scenario file.
type File struct {
	ID       string        `yaml:"id"`
	Initial  string        `yaml:"initial"`
	Context  ContextSpec   `yaml:"context"`
	States   []StateSpec   `yaml:"states"`
	Triggers []TriggerSpec `yaml:"triggers"`
	Fire     []string      `yaml:"fire"`
	Expect   *Expect       `yaml:"expect"`
}

// ContextSpec seeds the context of every machine built from the file.
type ContextSpec struct {
	Flags    map[string]bool `yaml:"flags"`
	Counters map[string]int  `yaml:"counters"`
}

// StateSpec lists the transitions leaving a state and its enter hooks.
type StateSpec struct {
	Name  string   `yaml:"name"`
	On    []string `yaml:"on"`
	Enter []string `yaml:"enter"`
}

// TriggerSpec lists the hooks run before a trigger is resolved.
type TriggerSpec struct {
	Name string   `yaml:"name"`
	Do   []string `yaml:"do"`
}

// Expect is the outcome a run must produce. Empty fields are not checked.
type Expect struct {
	State    string          `yaml:"state"`
	Results  []string        `yaml:"results"`
	Flags    map[string]bool `yaml:"flags"`
	Counters map[string]int  `yaml:"counters"`
	History  []string        `yaml:"history"`
}

// Machine is a machine built from a scenario file.
type Machine = fsmkit.WhenMachine[string, string, Context]

// Builder is the builder a scenario file compiles to.
type Builder = fsmkit.WhenBuilder[string, string, Context]

type handle = fsmkit.Handle[string, string]

type action = fsmkit.Action[string, string, Context]

// Load decodes and checks a scenario document.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile reads a scenario from path.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer func() { _ = fh.Close() }()

	f, err := Load(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func (f *File) check() error {
	var errs []error
	if f.Initial == "" {
		errs = append(errs, errors.New("initial state is required"))
	}
	seen := make(map[string]bool)
	for i, s := range f.States {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("state %d has no name", i+1))
			continue
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("state %q listed twice", s.Name))
		}
		seen[s.Name] = true
	}
	for i, tr := range f.Triggers {
		if tr.Name == "" {
			errs = append(errs, fmt.Errorf("trigger %d has no name", i+1))
		}
	}
	if f.Expect != nil {
		for _, r := range f.Expect.Results {
			if _, ok := fsmkit.ParseResult(r); !ok {
				errs = append(errs, fmt.Errorf("unknown result %q in expect", r))
			}
		}
	}
	return errors.Join(errs...)
}

// NewContext returns a fresh context seeded from the file.
func (f *File) NewContext() *Context {
	ctx := &Context{}
	for k, v := range f.Context.Flags {
		ctx.SetFlag(k, v)
	}
	for k, v := range f.Context.Counters {
		ctx.SetCounter(k, v)
	}
	return ctx
}

// Compile turns the file into a builder. States are declared in file order
// and each state's transitions are added in listed order.
func Compile(f *File) (*Builder, error) {
	b := fsmkit.NewWhenBuilder[string, string, Context]()

	for _, s := range f.States {
		b.DeclareState(s.Name)
	}

	for _, s := range f.States {
		transitions, err := parser.ParseTransitions(s.On)
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", s.Name, err)
		}
		for _, tr := range transitions {
			var opts []fsmkit.TransitionOption[string, string, Context]
			if tr.Guard != nil {
				opts = append(opts, fsmkit.WithGuard(compileGuard(*tr.Guard)))
			}
			if len(tr.Calls) > 0 {
				a, err := compileCalls(tr.Calls)
				if err != nil {
					return nil, fmt.Errorf("state %q: transition %s: %w", s.Name, tr.Trigger, err)
				}
				opts = append(opts, fsmkit.WithAction(a))
			}
			b.AddTransition(tr.Trigger, s.Name, tr.Target, opts...)
		}

		if err := addHooks(s.Enter, func(a action) { b.OnEnter(s.Name, a) }); err != nil {
			return nil, fmt.Errorf("state %q: enter: %w", s.Name, err)
		}
	}

	for _, tr := range f.Triggers {
		if err := addHooks(tr.Do, func(a action) { b.OnTrigger(tr.Name, a) }); err != nil {
			return nil, fmt.Errorf("trigger %q: %w", tr.Name, err)
		}
	}

	return b, nil
}

func addHooks(list []string, add func(action)) error {
	calls, err := parser.ParseCalls(list)
	if err != nil {
		return err
	}
	for _, c := range calls {
		a, err := compileCall(c)
		if err != nil {
			return err
		}
		add(a)
	}
	return nil
}

func compileGuard(g parser.GuardSchema) fsmkit.Guard[string, string, Context] {
	return func(ctx *Context, _ string, _ handle) bool {
		return ctx.Flag(g.Flag) != g.Negate
	}
}

func compileCalls(calls []parser.CallSchema) (action, error) {
	actions := make([]action, 0, len(calls))
	for _, c := range calls {
		a, err := compileCall(c)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	if len(actions) == 1 {
		return actions[0], nil
	}
	return func(ctx *Context, trigger string, h handle) {
		for _, a := range actions {
			a(ctx, trigger, h)
		}
	}, nil
}

func compileCall(c parser.CallSchema) (action, error) {
	needArg := func() error {
		if c.Arg == "" {
			return fmt.Errorf("call %q needs an argument", c.Name)
		}
		return nil
	}

	switch c.Name {
	case "set", "clear":
		if err := needArg(); err != nil {
			return nil, err
		}
		v := c.Name == "set"
		return func(ctx *Context, _ string, _ handle) { ctx.SetFlag(c.Arg, v) }, nil
	case "inc":
		if err := needArg(); err != nil {
			return nil, err
		}
		return func(ctx *Context, _ string, _ handle) { ctx.Inc(c.Arg) }, nil
	case "fire":
		if err := needArg(); err != nil {
			return nil, err
		}
		return func(_ *Context, _ string, h handle) { h.Fire(c.Arg) }, nil
	case "record":
		if c.Arg != "" {
			return nil, fmt.Errorf("call %q takes no argument", c.Name)
		}
		return func(ctx *Context, _ string, h handle) { ctx.Record(h.CurrentState()) }, nil
	}
	return nil, fmt.Errorf("unknown call %q", c.String())
}

// Step is the outcome of one scripted trigger.
type Step struct {
	Trigger string
	Result  fsmkit.Result
	State   string
}

// Report is the outcome of Run.
type Report struct {
	ID      string
	Initial string
	Steps   []Step
	Final   string
	Context *Context
}

// Build compiles the file and builds a fresh machine named after it.
func Build(f *File, opts ...fsmkit.Option) (*Machine, error) {
	b, err := Compile(f)
	if err != nil {
		return nil, err
	}
	return b.BuildWhen(f.NewContext(), f.Initial, append([]fsmkit.Option{fsmkit.WithName(f.ID)}, opts...)...)
}

// Run builds a machine and fires the file's script on it. A script that
// exceeds the depth set with fsmkit.WithMaxDepth fails with the
// *fsmkit.RecursionError; any other panic propagates.
func Run(f *File, opts ...fsmkit.Option) (*Report, error) {
	m, err := Build(f, opts...)
	if err != nil {
		return nil, err
	}

	report := &Report{ID: f.ID, Initial: m.CurrentState()}
	for _, trigger := range f.Fire {
		result, err := fire(m, trigger)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.ID, err)
		}
		report.Steps = append(report.Steps, Step{Trigger: trigger, Result: result, State: m.CurrentState()})
	}
	report.Final = m.CurrentState()
	report.Context = m.Context()
	return report, nil
}

func fire(m *Machine, trigger string) (result fsmkit.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(*fsmkit.RecursionError)
			if !ok {
				panic(r)
			}
			err = rerr
		}
	}()
	return m.Fire(trigger), nil
}

// Results returns the result of every step.
func (r *Report) Results() []string {
	results := make([]string, 0, len(r.Steps))
	for _, s := range r.Steps {
		results = append(results, s.Result.String())
	}
	return results
}

// Check compares the report with e. A nil Expect always passes.
func (r *Report) Check(e *Expect) error {
	if e == nil {
		return nil
	}

	var errs []error
	if e.State != "" && e.State != r.Final {
		errs = append(errs, fmt.Errorf("final state: want %q, got %q", e.State, r.Final))
	}
	if len(e.Results) > 0 && !slices.Equal(e.Results, r.Results()) {
		errs = append(errs, fmt.Errorf("results: want %v, got %v", e.Results, r.Results()))
	}
	for k, want := range e.Flags {
		if got := r.Context.Flag(k); got != want {
			errs = append(errs, fmt.Errorf("flag %s: want %t, got %t", k, want, got))
		}
	}
	for k, want := range e.Counters {
		if got := r.Context.Counters[k]; got != want {
			errs = append(errs, fmt.Errorf("counter %s: want %d, got %d", k, want, got))
		}
	}
	if len(e.History) > 0 && !slices.Equal(e.History, r.Context.History) {
		errs = append(errs, fmt.Errorf("history: want %v, got %v", e.History, r.Context.History))
	}
	return errors.Join(errs...)
}
