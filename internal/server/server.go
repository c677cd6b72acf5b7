// Package server exposes machines built from one scenario file over HTTP.
//
// Every machine shares the compiled transition table; each has its own
// context and current state, guarded by its own mutex because machines are
// not safe for concurrent use.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/felixgeelhaar/fsmkit"
	"github.com/felixgeelhaar/fsmkit/internal/scenario"
	"github.com/felixgeelhaar/fsmkit/metrics"
)

// ErrNotFound is returned for unknown machine ids.
var ErrNotFound = errors.New("machine not found")

// Server owns the machines created through the API.
type Server struct {
	file      *scenario.File
	builder   *scenario.Builder
	registry  *prometheus.Registry
	collector *metrics.Collector[string, string]
	logger    *slog.Logger
	opts      []fsmkit.Option

	// mu guards machines and the builder; BuildWhen marks the builder's
	// tables as shared.
	mu       sync.RWMutex
	machines map[string]*instance
}

type instance struct {
	mu sync.Mutex
	m  *scenario.Machine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger and the machines' logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMachineOptions adds options applied to every machine.
func WithMachineOptions(opts ...fsmkit.Option) Option {
	return func(s *Server) {
		s.opts = append(s.opts, opts...)
	}
}

// New compiles the scenario and registers the metrics under namespace.
func New(f *scenario.File, namespace string, opts ...Option) (*Server, error) {
	b, err := scenario.Compile(f)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector[string, string](reg, namespace)
	if err != nil {
		return nil, err
	}

	s := &Server{
		file:      f,
		builder:   b,
		registry:  reg,
		collector: collector,
		logger:    slog.Default(),
		machines:  make(map[string]*instance),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create builds a new machine and returns its id.
func (s *Server) Create() (string, *scenario.Machine, error) {
	id := uuid.NewString()

	opts := append([]fsmkit.Option{
		fsmkit.WithName(s.file.ID),
		fsmkit.WithLogger(s.logger.With("instance", id)),
	}, s.opts...)

	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.builder.BuildWhen(s.file.NewContext(), s.file.Initial, opts...)
	if err != nil {
		return "", nil, err
	}
	m.AddObserver(s.collector)
	s.machines[id] = &instance{m: m}
	return id, m, nil
}

// fire holds the instance lock for the whole chain, so a panicking
// callback must not leave it locked.
func (i *instance) fire(trigger string) (fsmkit.Result, string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	result := i.m.Fire(trigger)
	return result, i.m.CurrentState()
}

func (i *instance) view(id string) MachineView {
	i.mu.Lock()
	defer i.mu.Unlock()
	ctx := i.m.Context()
	return MachineView{
		ID:       id,
		State:    i.m.CurrentState(),
		Triggers: i.m.PossibleTriggers(),
		Flags:    copyMap(ctx.Flags),
		Counters: copyMap(ctx.Counters),
		History:  append([]string(nil), ctx.History...),
	}
}

func (s *Server) lookup(id string) (*instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.machines[id]
	if !ok {
		return nil, ErrNotFound
	}
	return inst, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/machines", s.handleCreate)
	r.Get("/machines/{id}", s.handleGet)
	r.Post("/machines/{id}/fire/{trigger}", s.handleFire)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return r
}

// MachineView is the JSON form of a machine.
type MachineView struct {
	ID       string          `json:"id"`
	State    string          `json:"state"`
	Triggers []string        `json:"triggers,omitempty"`
	Flags    map[string]bool `json:"flags,omitempty"`
	Counters map[string]int  `json:"counters,omitempty"`
	History  []string        `json:"history,omitempty"`
}

// FireView is the JSON response of a fire request.
type FireView struct {
	ID     string `json:"id"`
	Result string `json:"result"`
	State  string `json:"state"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	id, m, err := s.Create()
	if err != nil {
		s.logger.Error("create machine failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger.Info("machine created", "instance", id, "state", m.CurrentState())
	writeJSON(w, http.StatusCreated, MachineView{ID: id, State: m.CurrentState()})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	inst, err := s.lookup(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, inst.view(id))
}

func (s *Server) handleFire(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	trigger := chi.URLParam(r, "trigger")

	inst, err := s.lookup(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	result, state := inst.fire(trigger)
	s.logger.Debug("fired", "instance", id, "trigger", trigger, "result", result, "state", state)
	writeJSON(w, http.StatusOK, FireView{ID: id, Result: result.String(), State: state})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	if len(in) == 0 {
		return nil
	}
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
