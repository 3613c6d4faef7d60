package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validYAML = `
wordlist: words.txt
database: sweep.db
phrase_length: 12
workers: 8
endpoints:
  - https://api.mainnet-beta.solana.com
probe_interval: 500ms
backoff:
  base: 1s
  max: 30s
  jitter: 250ms
  decay_after: 10
`

func TestLoad_FromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Wordlist != "words.txt" {
		t.Errorf("wordlist = %q, want words.txt", cfg.Wordlist)
	}
	if cfg.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Workers)
	}
	if cfg.ProbeInterval.Std() != 500*time.Millisecond {
		t.Errorf("probe_interval = %v, want 500ms", cfg.ProbeInterval.Std())
	}
	if cfg.Backoff.Base.Std() != time.Second {
		t.Errorf("backoff.base = %v, want 1s", cfg.Backoff.Base.Std())
	}
	if cfg.Backoff.DecayAfter != 10 {
		t.Errorf("backoff.decay_after = %d, want 10", cfg.Backoff.DecayAfter)
	}
}

func TestLoad_DefaultsFillUnsetFields(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
wordlist: words.txt
database: sweep.db
endpoints: [https://rpc.example.com]
`))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.PhraseLength != 12 {
		t.Errorf("phrase_length = %d, want default 12", cfg.PhraseLength)
	}
	if cfg.Workers != 4 {
		t.Errorf("workers = %d, want default 4", cfg.Workers)
	}
	if cfg.Backoff.Max.Std() != 60*time.Second {
		t.Errorf("backoff.max = %v, want default 60s", cfg.Backoff.Max.Std())
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("SEEDSWEEP_WORKERS", "16")
	t.Setenv("SEEDSWEEP_PHRASE_LENGTH", "15")
	t.Setenv("SEEDSWEEP_PROBE_INTERVAL", "2s")
	t.Setenv("SEEDSWEEP_ENDPOINTS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Workers != 16 {
		t.Errorf("workers = %d, want 16 from environment", cfg.Workers)
	}
	if cfg.PhraseLength != 15 {
		t.Errorf("phrase_length = %d, want 15 from environment", cfg.PhraseLength)
	}
	if cfg.ProbeInterval.Std() != 2*time.Second {
		t.Errorf("probe_interval = %v, want 2s from environment", cfg.ProbeInterval.Std())
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Endpoints) != 2 || cfg.Endpoints[0] != want[0] || cfg.Endpoints[1] != want[1] {
		t.Errorf("endpoints = %v, want %v", cfg.Endpoints, want)
	}
}

func TestLoad_EnvironmentAloneSuffices(t *testing.T) {
	t.Setenv("SEEDSWEEP_WORDLIST", "words.txt")
	t.Setenv("SEEDSWEEP_DATABASE", "sweep.db")
	t.Setenv("SEEDSWEEP_ENDPOINTS", "https://rpc.example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.Database != "sweep.db" {
		t.Errorf("database = %q, want sweep.db", cfg.Database)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() succeeded for a missing file")
	}
}

func TestLoad_BadDuration(t *testing.T) {
	_, err := Load(writeConfig(t, `
wordlist: words.txt
database: sweep.db
endpoints: [https://rpc.example.com]
probe_interval: fast
`))
	if err == nil || !strings.Contains(err.Error(), "parse duration") {
		t.Fatalf("Load() error = %v, want duration parse failure", err)
	}
}

func TestLoad_BadWorkerCountEnv(t *testing.T) {
	t.Setenv("SEEDSWEEP_WORKERS", "many")
	if _, err := Load(writeConfig(t, validYAML)); err == nil {
		t.Fatal("Load() accepted non-numeric SEEDSWEEP_WORKERS")
	}
}

func TestValidate_SchemaViolations(t *testing.T) {
	base := func() *Config {
		cfg := Default()
		cfg.Wordlist = "words.txt"
		cfg.Database = "sweep.db"
		cfg.Endpoints = []string{"https://rpc.example.com"}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty wordlist", func(c *Config) { c.Wordlist = "" }},
		{"empty database", func(c *Config) { c.Database = "" }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"too many workers", func(c *Config) { c.Workers = 1000 }},
		{"zero phrase length", func(c *Config) { c.PhraseLength = 0 }},
		{"phrase length over cap", func(c *Config) { c.PhraseLength = 25 }},
		{"no endpoints", func(c *Config) { c.Endpoints = nil }},
		{"blank endpoint", func(c *Config) { c.Endpoints = []string{""} }},
		{"negative probe interval", func(c *Config) { c.ProbeInterval = Duration(-time.Second) }},
		{"zero backoff base", func(c *Config) { c.Backoff.Base = 0 }},
		{"max below base", func(c *Config) {
			c.Backoff.Base = Duration(10 * time.Second)
			c.Backoff.Max = Duration(time.Second)
		}},
		{"negative jitter", func(c *Config) { c.Backoff.Jitter = Duration(-time.Second) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted invalid configuration")
			}
		})
	}
}

func TestValidate_AcceptsCompleteConfig(t *testing.T) {
	cfg := Default()
	cfg.Wordlist = "words.txt"
	cfg.Database = "sweep.db"
	cfg.Endpoints = []string{"https://rpc.example.com"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
}
