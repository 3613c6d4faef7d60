// Package worker implements the candidate-generation/probe loop.
//
// A worker owns no durable state. It generates a candidate, skips it if the
// startup snapshot already has it, derives the address, probes the balance,
// and reports the outcome upward as a message. All writes happen in the
// supervisor; all backoff state lives in the retry coordinator.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/nirvanameow/seedsweep/internal/candidate"
	"github.com/nirvanameow/seedsweep/internal/probe"
	"github.com/nirvanameow/seedsweep/internal/retry"
)

// OutcomeKind distinguishes worker outcome messages.
type OutcomeKind int

const (
	// OutcomeTried is a definitive probe result (any balance, including 0).
	OutcomeTried OutcomeKind = iota + 1
	// OutcomeFound is a probe result with a positive balance.
	// Always preceded by the corresponding OutcomeTried.
	OutcomeFound
	// OutcomeProbeFailed is a retryable probe failure. Never persisted:
	// recording a failure as tried would permanently skip the candidate
	// despite no result having been obtained.
	OutcomeProbeFailed
)

// Outcome is one message from a worker to the supervisor.
type Outcome struct {
	Kind      OutcomeKind
	WorkerID  int
	Candidate candidate.Candidate
	Address   string
	Lamports  uint64
	Err       error
}

// DeriveFunc derives the address for a canonical phrase.
// Must be pure: deterministic, no I/O.
type DeriveFunc func(phrase string) string

// Generator produces candidate work items. Implemented by
// *candidate.Source in production and by scripted sources in tests.
type Generator interface {
	Generate() candidate.Candidate
}

// Config assembles a worker's collaborators.
type Config struct {
	ID       int
	Source   Generator
	Tried    candidate.TriedSet
	Derive   DeriveFunc
	Client   probe.Client
	Coord    *retry.Coordinator
	Interval time.Duration // happy-path inter-probe delay
	Outcomes chan<- Outcome
}

// Worker is one concurrency unit of the pool.
type Worker struct {
	cfg    Config
	delays <-chan time.Duration
	log    *slog.Logger
}

// New creates a worker and subscribes it to coordinator delay broadcasts.
func New(cfg Config) *Worker {
	return &Worker{
		cfg:    cfg,
		delays: cfg.Coord.Subscribe(),
		log:    slog.With("worker", cfg.ID),
	}
}

// Run executes the loop until ctx is cancelled or a found outcome ends this
// worker. The cancellation check is explicit at every iteration and inside
// every sleep; an in-flight probe is finished and its result discarded
// rather than aborted mid-call when cancellation races it.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		// Observe pool-wide backoff raised by sibling workers.
		select {
		case d := <-w.delays:
			if d > 0 && !w.sleep(ctx, d) {
				return
			}
		default:
		}

		cand := w.cfg.Source.Generate()
		if candidate.Known(cand, w.cfg.Tried) {
			if !w.sleep(ctx, w.cfg.Interval) {
				return
			}
			continue
		}

		address := w.cfg.Derive(cand.Phrase())

		lamports, err := w.cfg.Client.Balance(ctx, address)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Raise shared backoff first so the delay below reflects
			// this failure, then report upward for accounting.
			delay := w.cfg.Coord.ReportFailure()
			if !w.emit(ctx, Outcome{
				Kind:      OutcomeProbeFailed,
				WorkerID:  w.cfg.ID,
				Candidate: cand,
				Address:   address,
				Err:       err,
			}) {
				return
			}
			w.log.Warn("probe failed, backing off",
				"address", address, "delay", delay, "error", err)
			if !w.sleep(ctx, delay) {
				return
			}
			// The candidate was not recorded, so it stays eligible
			// for future re-selection. Re-enter generation.
			continue
		}

		w.cfg.Coord.ReportSuccess()

		if !w.emit(ctx, Outcome{
			Kind:      OutcomeTried,
			WorkerID:  w.cfg.ID,
			Candidate: cand,
			Address:   address,
			Lamports:  lamports,
		}) {
			return
		}

		if lamports > 0 {
			w.emit(ctx, Outcome{
				Kind:      OutcomeFound,
				WorkerID:  w.cfg.ID,
				Candidate: cand,
				Address:   address,
				Lamports:  lamports,
			})
			// Terminal: the supervisor halts the whole pool once the
			// found record is durable.
			return
		}

		if !w.sleep(ctx, w.cfg.Interval) {
			return
		}
	}
}

// emit sends an outcome unless cancellation wins first.
func (w *Worker) emit(ctx context.Context, o Outcome) bool {
	select {
	case w.cfg.Outcomes <- o:
		return true
	case <-ctx.Done():
		return false
	}
}

// sleep waits d, honoring cancellation. Returns false if cancelled.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
