// Package metrics exports machine activity as Prometheus metrics.
//
// A Collector is an fsmkit.Observer; attach it with Machine.AddObserver:
//
//	c, err := metrics.NewCollector[State, Trigger](prometheus.DefaultRegisterer, "door")
//	m.AddObserver(c)
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/fsmkit"
)

// Collector counts fire results and state entries per machine.
type Collector[S, T comparable] struct {
	fires   *prometheus.CounterVec
	entries *prometheus.CounterVec
	depth   prometheus.Histogram
}

// NewCollector creates the metrics under namespace and registers them with reg.
// Metrics already registered by another collector with the same namespace are
// reused, so several machines can report into one registry.
func NewCollector[S, T comparable](reg prometheus.Registerer, namespace string) (*Collector[S, T], error) {
	fires := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fires_total",
			Help:      "Total number of fired triggers by result",
		},
		[]string{"machine", "trigger", "result"},
	)
	entries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_entries_total",
			Help:      "Total number of successful transitions into a state",
		},
		[]string{"machine", "state"},
	)
	depth := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fire_depth",
			Help:      "Nesting depth of resolved fire calls",
			Buckets:   []float64{1, 2, 3, 4, 8, 16, 32},
		},
	)

	c := &Collector[S, T]{}
	var err error
	if c.fires, err = register(reg, fires); err != nil {
		return nil, err
	}
	if c.entries, err = register(reg, entries); err != nil {
		return nil, err
	}
	if c.depth, err = register(reg, depth); err != nil {
		return nil, err
	}
	return c, nil
}

func register[M prometheus.Collector](reg prometheus.Registerer, m M) (M, error) {
	if err := reg.Register(m); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(M); ok {
				return existing, nil
			}
		}
		var zero M
		return zero, fmt.Errorf("register metric: %w", err)
	}
	return m, nil
}

// ObserveFire implements fsmkit.Observer.
func (c *Collector[S, T]) ObserveFire(e fsmkit.FireEvent[S, T]) {
	c.fires.WithLabelValues(e.Machine, fmt.Sprint(e.Trigger), e.Result.String()).Inc()
	c.depth.Observe(float64(e.Depth))
	if e.Result == fsmkit.Success {
		c.entries.WithLabelValues(e.Machine, fmt.Sprint(e.To)).Inc()
	}
}
