// Package config reads the CLI configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/felixgeelhaar/fsmkit/internal/logging"
)

// Config holds the settings shared by all commands.
type Config struct {
	LogLevel         string `env:"FSMKIT_LOG_LEVEL" envDefault:"info"`
	MaxDepth         int    `env:"FSMKIT_MAX_DEPTH" envDefault:"64"`
	Addr             string `env:"FSMKIT_ADDR" envDefault:":8080"`
	MetricsNamespace string `env:"FSMKIT_METRICS_NAMESPACE" envDefault:"fsmkit"`
}

// ErrNegativeDepth is returned when FSMKIT_MAX_DEPTH is below zero.
var ErrNegativeDepth = errors.New("max depth must not be negative")

// Load reads the given dotenv files, if they exist, and then parses the
// environment. Variables already set in the environment win over the files.
func Load(dotenv ...string) (Config, error) {
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that env parsing cannot.
func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return ErrNegativeDepth
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level.
func (c Config) Level() slog.Level {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}
