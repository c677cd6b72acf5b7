package fsmkit

import (
	"log/slog"

	"github.com/felixgeelhaar/fsmkit/internal/logging"
)

type machineOptions struct {
	name     string
	logger   *slog.Logger
	maxDepth int
}

func defaultOptions() machineOptions {
	return machineOptions{
		logger: logging.NewNop(),
	}
}

// Option configures a machine at build time
type Option func(*machineOptions)

// WithName labels the machine in logs, observer events and errors
func WithName(name string) Option {
	return func(o *machineOptions) {
		o.name = name
	}
}

// WithLogger sets the logger used for per-fire debug records
func WithLogger(logger *slog.Logger) Option {
	return func(o *machineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxDepth bounds the nesting of re-entrant Fire calls. Zero or a
// negative value disables the check.
func WithMaxDepth(depth int) Option {
	return func(o *machineOptions) {
		o.maxDepth = depth
	}
}
