package cli

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nirvanameow/seedsweep/internal/candidate"
	"github.com/nirvanameow/seedsweep/internal/config"
	"github.com/nirvanameow/seedsweep/internal/derive"
	"github.com/nirvanameow/seedsweep/internal/probe"
	"github.com/nirvanameow/seedsweep/internal/retry"
	"github.com/nirvanameow/seedsweep/internal/store"
	"github.com/nirvanameow/seedsweep/internal/supervisor"
	"github.com/nirvanameow/seedsweep/internal/vocab"
	"github.com/nirvanameow/seedsweep/internal/worker"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the sweep supervisor and worker pool",
		Long: `Start the sweep engine.

Loads the wordlist and checkpoint database, verifies every RPC endpoint is
reachable, then spawns the worker pool. The run ends on a found outcome, a
degraded checkpoint store, or SIGINT/SIGTERM.

Example:
  seedsweep run --config seedsweep.yaml
  SEEDSWEEP_WORKERS=8 seedsweep run --config seedsweep.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")

	return cmd
}

func runSweep(opts *RunOptions, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	slog.Info("loading wordlist", "path", cfg.Wordlist)
	list, err := vocab.Load(cfg.Wordlist)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load wordlist", err)
	}
	// Fail the k>N case here, not in some worker goroutine mid-run.
	if cfg.PhraseLength > list.Len() {
		return NewExitError(ExitCommandError, fmt.Sprintf(
			"phrase length %d exceeds wordlist size %d", cfg.PhraseLength, list.Len()))
	}
	slog.Info("wordlist ready", "words", list.Len(), "phrase_length", cfg.PhraseLength)

	slog.Info("opening checkpoint database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open checkpoint database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	pool, err := probe.NewPool(cfg.Endpoints)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build probe pool", err)
	}

	// Setup signal handling for graceful shutdown.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("checking endpoints", "count", len(cfg.Endpoints))
	pingCtx, pingCancel := context.WithTimeout(ctx, 20*time.Second)
	err = pool.PingAll(pingCtx)
	pingCancel()
	if err != nil {
		return WrapExitError(ExitCommandError, "endpoint unreachable", err)
	}

	coord := retry.NewCoordinator(retry.Config{
		Base:       cfg.Backoff.Base.Std(),
		Max:        cfg.Backoff.Max.Std(),
		Jitter:     cfg.Backoff.Jitter.Std(),
		DecayAfter: cfg.Backoff.DecayAfter,
	}, rand.New(rand.NewSource(time.Now().UnixNano())))

	factory := func(id int, tried candidate.TriedSet, outcomes chan<- worker.Outcome) *worker.Worker {
		// Each worker gets its own RNG: candidate.Source is not safe
		// for concurrent use.
		rng := rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(id)<<32))
		source, err := candidate.NewSource(list, cfg.PhraseLength, rng)
		if err != nil {
			// Unreachable: phrase length was validated against the
			// wordlist above.
			panic(fmt.Sprintf("worker %d: %v", id, err))
		}
		return worker.New(worker.Config{
			ID:       id,
			Source:   source,
			Tried:    tried,
			Derive:   derive.Address,
			Client:   pool.Next(),
			Coord:    coord,
			Interval: cfg.ProbeInterval.Std(),
			Outcomes: outcomes,
		})
	}

	sup := supervisor.New(st, coord, supervisor.Config{Workers: cfg.Workers}, factory)

	slog.Info("starting sweep, Ctrl-C to stop",
		"workers", cfg.Workers, "endpoints", len(cfg.Endpoints))

	summary, err := sup.Run(ctx)
	printSummary(cmd, opts.Format, summary)

	switch {
	case err == nil:
		return nil
	case err == context.Canceled || err == context.DeadlineExceeded:
		return nil
	default:
		return WrapExitError(ExitFailure, "sweep failed", err)
	}
}

// runReport is the run command's output payload.
type runReport struct {
	RunID         string `json:"run_id"`
	Tried         int    `json:"tried"`
	Found         int    `json:"found"`
	ProbeFailures int    `json:"probe_failures"`
	Respawns      int    `json:"respawns"`
	LastSeq       int64  `json:"last_seq"`
}

func (r runReport) String() string {
	return fmt.Sprintf("run %s: tried=%d found=%d probe_failures=%d respawns=%d last_seq=%d",
		r.RunID, r.Tried, r.Found, r.ProbeFailures, r.Respawns, r.LastSeq)
}

func printSummary(cmd *cobra.Command, format string, s *supervisor.Summary) {
	if s == nil {
		return
	}
	f := &OutputFormatter{Format: format, Writer: cmd.OutOrStdout()}
	if err := f.Success(runReport{
		RunID:         s.RunID,
		Tried:         s.Tried,
		Found:         s.Found,
		ProbeFailures: s.ProbeFailures,
		Respawns:      s.Respawns,
		LastSeq:       s.LastSeq,
	}); err != nil {
		slog.Error("error writing summary", "error", err)
	}
}
