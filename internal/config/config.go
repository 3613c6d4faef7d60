// Package config loads runtime configuration for a sweep run.
//
// Sources, in increasing precedence: built-in defaults, a YAML config file,
// and SEEDSWEEP_* environment variables (a .env file in the working
// directory is read first if present). The merged result is validated
// against an embedded CUE schema; any violation is fatal at startup, before
// a single worker spawns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration with YAML decoding of "2s"-style strings.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"2s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Backoff configures the shared failure backoff.
type Backoff struct {
	Base       Duration `yaml:"base"`
	Max        Duration `yaml:"max"`
	Jitter     Duration `yaml:"jitter"`
	DecayAfter int      `yaml:"decay_after"`
}

// Config is the full runtime configuration.
type Config struct {
	Wordlist      string   `yaml:"wordlist"`
	Database      string   `yaml:"database"`
	PhraseLength  int      `yaml:"phrase_length"`
	Workers       int      `yaml:"workers"`
	Endpoints     []string `yaml:"endpoints"`
	ProbeInterval Duration `yaml:"probe_interval"`
	Backoff       Backoff  `yaml:"backoff"`
}

// Default returns the built-in defaults. Wordlist, database, and endpoints
// have no sensible defaults and must come from the file or environment.
func Default() *Config {
	return &Config{
		PhraseLength:  12,
		Workers:       4,
		ProbeInterval: Duration(time.Second),
		Backoff: Backoff{
			Base:   Duration(2 * time.Second),
			Max:    Duration(60 * time.Second),
			Jitter: Duration(time.Second),
		},
	}
}

// Load builds the effective configuration. path may be empty, in which case
// only defaults and the environment apply.
func Load(path string) (*Config, error) {
	// A .env in the working directory is a convenience, not a requirement.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays SEEDSWEEP_* environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("SEEDSWEEP_WORDLIST"); v != "" {
		cfg.Wordlist = v
	}
	if v := os.Getenv("SEEDSWEEP_DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("SEEDSWEEP_ENDPOINTS"); v != "" {
		parts := strings.Split(v, ",")
		cfg.Endpoints = cfg.Endpoints[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Endpoints = append(cfg.Endpoints, p)
			}
		}
	}
	if v := os.Getenv("SEEDSWEEP_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SEEDSWEEP_WORKERS=%q: %w", v, err)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("SEEDSWEEP_PHRASE_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SEEDSWEEP_PHRASE_LENGTH=%q: %w", v, err)
		}
		cfg.PhraseLength = n
	}
	if v := os.Getenv("SEEDSWEEP_PROBE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SEEDSWEEP_PROBE_INTERVAL=%q: %w", v, err)
		}
		cfg.ProbeInterval = Duration(d)
	}
	return nil
}
