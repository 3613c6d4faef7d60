package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// schemaView is the subset of Config the CUE schema constrains. Durations
// are bounds-checked in Go (Validate) since their YAML form is a string.
type schemaView struct {
	Wordlist     string   `json:"wordlist"`
	Database     string   `json:"database"`
	PhraseLength int      `json:"phrase_length"`
	Workers      int      `json:"workers"`
	Endpoints    []string `json:"endpoints"`
}

// Validate checks the merged configuration against the embedded schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup config schema: %w", err)
	}

	view := ctx.Encode(schemaView{
		Wordlist:     c.Wordlist,
		Database:     c.Database,
		PhraseLength: c.PhraseLength,
		Workers:      c.Workers,
		Endpoints:    c.Endpoints,
	})

	unified := def.Unify(view)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid configuration:\n%s", cueerrors.Details(err, nil))
	}

	if c.ProbeInterval < 0 {
		return fmt.Errorf("invalid configuration: probe_interval must not be negative")
	}
	if c.Backoff.Base.Std() <= 0 {
		return fmt.Errorf("invalid configuration: backoff.base must be positive")
	}
	if c.Backoff.Max.Std() < c.Backoff.Base.Std() {
		return fmt.Errorf("invalid configuration: backoff.max must be at least backoff.base")
	}
	if c.Backoff.Jitter < 0 {
		return fmt.Errorf("invalid configuration: backoff.jitter must not be negative")
	}
	return nil
}
