// Package: main
// File: config.go
// Description: Service configuration. Defaults can be overridden by a YAML or JSON file and then by CLI flags.
//
// Author: Ivan Grega
// License: MIT
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/igrega348/brillouin_zone/conventions"
	"github.com/igrega348/brillouin_zone/engine"
	"github.com/igrega348/brillouin_zone/lattices"
	"github.com/igrega348/brillouin_zone/mesh"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	engine.Config  `yaml:",inline"`
	Listen         string        `yaml:"listen" json:"listen"`
	RequestTimeout Duration      `yaml:"request_timeout" json:"request_timeout"`
	LogLevel       string        `yaml:"log_level" json:"log_level"`
	AllowOrigins   []string      `yaml:"allow_origins" json:"allow_origins"`
}

func DefaultConfig() Config {
	return Config{
		Config:         engine.DefaultConfig(),
		Listen:         ":5000",
		RequestTimeout: Duration{5 * time.Second},
		LogLevel:       "info",
		AllowOrigins:   []string{"*"},
	}
}

// Duration is a time.Duration written as "5s" in both YAML and JSON.
// Plain JSON numbers are read as nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		d.Duration = time.Duration(t)
	case string:
		parsed, err := time.ParseDuration(t)
		if err != nil {
			return err
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration %s", data)
	}
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return value.Decode(&d.Duration)
}

// LoadConfig reads fn on top of the defaults. An empty fn returns the defaults.
func LoadConfig(fn string) (Config, error) {
	cfg := DefaultConfig()
	if fn == "" {
		return cfg, nil
	}
	if err := readStructured(fn, &cfg); err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %g", c.Epsilon)
	}
	if c.NeighborRadius < 1 || c.NeighborRadius > engine.MaxRadius {
		return fmt.Errorf("neighbor_radius must be in [1, %d], got %d", engine.MaxRadius, c.NeighborRadius)
	}
	if c.RadiusRetries < 0 {
		return fmt.Errorf("radius_retries must not be negative, got %d", c.RadiusRetries)
	}
	// retries double the radius
	for i, r := 0, c.NeighborRadius; i < c.RadiusRetries; i++ {
		if r *= 2; r > engine.MaxRadius {
			return fmt.Errorf("neighbor_radius %d doubled %d times exceeds %d", c.NeighborRadius, c.RadiusRetries, engine.MaxRadius)
		}
	}
	if c.DisplayRadius < 1 || c.DisplayRadius > engine.MaxRadius {
		return fmt.Errorf("display_radius must be in [1, %d], got %d", engine.MaxRadius, c.DisplayRadius)
	}
	if _, err := lattices.ParseShell(c.DisplayShell); err != nil {
		return err
	}
	if _, err := conventions.NewConvention(c.Convention); err != nil {
		return err
	}
	if _, err := mesh.ByName(c.Triangulation); err != nil {
		return err
	}
	if c.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", c.RequestTimeout)
	}
	return nil
}

// readStructured decodes a YAML or JSON file, chosen by extension.
func readStructured(fn string, out interface{}) error {
	data, err := os.ReadFile(fn)
	if err != nil {
		return err
	}
	switch ext := strings.ToLower(filepath.Ext(fn)); ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	case ".json":
		return json.Unmarshal(data, out)
	default:
		return fmt.Errorf("unknown file extension: %s", ext)
	}
}

// writeStructured encodes v as YAML or JSON by extension. An empty fn
// writes indented JSON to stdout.
func writeStructured(fn string, v interface{}) error {
	var data []byte
	var err error
	switch ext := strings.ToLower(filepath.Ext(fn)); ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(v)
	case ".json", "":
		data, err = json.MarshalIndent(v, "", "  ")
	default:
		return fmt.Errorf("unknown file extension: %s", ext)
	}
	if err != nil {
		return err
	}
	if fn == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(fn, data, 0644)
}

// configFromEnv names the config file for callers without CLI flags.
func configFromEnv() string {
	return os.Getenv("BZ_CONFIG")
}

// loadLibConfig loads fn for the C library. A bad file is logged and the
// defaults are used; the log level is applied either way.
func loadLibConfig(fn string) Config {
	cfg, err := LoadConfig(fn)
	if err != nil {
		cfg = DefaultConfig()
		setLogLevel(cfg.LogLevel)
		log.Error().Err(err).Msgf("Could not load config %q, using defaults", fn)
		return cfg
	}
	setLogLevel(cfg.LogLevel)
	return cfg
}
