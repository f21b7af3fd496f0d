package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joeycumines/logiface"
	"gopkg.in/yaml.v3"
)

// config is the stress profile, loaded from YAML, then overridden by flags.
type config struct {
	// Iterations is the number of flag-then-signal thread round trips.
	Iterations int `yaml:"iterations"`
	// Workers is the number of concurrent adders, each on its own Thread.
	Workers int `yaml:"workers"`
	// Adds is the number of increments per worker.
	Adds int `yaml:"adds"`
	// Nesting is the lock depth used by the mutex property.
	Nesting int `yaml:"nesting"`
	// TimeoutMs bounds the timed wait of the event property.
	TimeoutMs uint32 `yaml:"timeout_ms"`
	// LogLevel is a logiface level keyword, e.g. "info" or "debug".
	LogLevel string `yaml:"log_level"`
	// Properties optionally restricts which properties run, by name.
	Properties []string `yaml:"properties"`
}

func defaultConfig() *config {
	return &config{
		Iterations: 10_000,
		Workers:    8,
		Adds:       100_000,
		Nesting:    16,
		TimeoutMs:  50,
		LogLevel:   logiface.LevelInformational.String(),
	}
}

// loadConfig decodes the YAML profile at path over the defaults. Unknown
// keys are rejected.
func loadConfig(path string) (*config, error) {
	cfg := defaultConfig()
	if path == `` {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml decode %s: %w", path, err)
	}

	return cfg, nil
}

func (x *config) validate() error {
	switch {
	case x.Iterations <= 0:
		return fmt.Errorf("iterations must be positive, got %d", x.Iterations)
	case x.Workers <= 0:
		return fmt.Errorf("workers must be positive, got %d", x.Workers)
	case x.Adds <= 0:
		return fmt.Errorf("adds must be positive, got %d", x.Adds)
	case x.Nesting <= 0:
		return fmt.Errorf("nesting must be positive, got %d", x.Nesting)
	case x.TimeoutMs == 0:
		return errors.New("timeout_ms must be positive")
	}
	if _, err := parseLevel(x.LogLevel); err != nil {
		return err
	}
	for _, name := range x.Properties {
		if _, ok := propertyByName(name); !ok {
			return fmt.Errorf("unknown property %q", name)
		}
	}
	return nil
}

// parseLevel accepts the keywords produced by logiface.Level.String.
func parseLevel(s string) (logiface.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for level := logiface.LevelDisabled; level <= logiface.LevelTrace; level++ {
		if level.String() == s {
			return level, nil
		}
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
