// Package supervisor owns the worker pool and the single-writer checkpoint
// discipline.
//
// The supervisor loads the tried-set snapshot, spawns N workers, and routes
// their outcome messages to the checkpoint store. It is the only goroutine
// that writes durable state. Pool-wide decisions — halting on a found
// outcome, degrading on persistent storage failure, respawning a crashed
// worker — are made here and nowhere else.
//
// The one ordering guarantee everything hangs on: a found record is durably
// committed before any worker sees a termination signal. A crash between
// "balance observed" and "record saved" therefore cannot pass silently — the
// worker would simply re-report on the next run.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nirvanameow/seedsweep/internal/candidate"
	"github.com/nirvanameow/seedsweep/internal/retry"
	"github.com/nirvanameow/seedsweep/internal/store"
	"github.com/nirvanameow/seedsweep/internal/worker"
)

// ErrStorageDegraded is returned when checkpoint appends keep failing after
// bounded retries. The supervisor stops accepting outcomes rather than
// silently dropping records.
var ErrStorageDegraded = errors.New("checkpoint store degraded")

// Checkpointer is the durable ledger capability the supervisor consumes.
// Implemented by *store.Store.
type Checkpointer interface {
	Load(ctx context.Context) (candidate.TriedSet, int64, error)
	AppendTried(ctx context.Context, rec store.TriedRecord) (int64, error)
	AppendFound(ctx context.Context, rec store.FoundRecord) error
}

// WorkerFactory builds a worker with its tried-set snapshot and outcome
// channel. Called once per slot at startup and again on respawn after a
// crash; each call must produce a worker with its own candidate source.
type WorkerFactory func(id int, tried candidate.TriedSet, outcomes chan<- worker.Outcome) *worker.Worker

// Config controls pool size and storage-failure handling.
type Config struct {
	Workers        int
	StorageRetries int           // append attempts before degrading (default 3)
	StorageBackoff time.Duration // delay between append attempts (default 500ms)
}

func (c Config) withDefaults() Config {
	if c.StorageRetries <= 0 {
		c.StorageRetries = 3
	}
	if c.StorageBackoff <= 0 {
		c.StorageBackoff = 500 * time.Millisecond
	}
	return c
}

// Summary reports what a run accomplished.
type Summary struct {
	RunID         string
	Tried         int
	Found         int
	ProbeFailures int
	Respawns      int
	LastSeq       int64
}

// Supervisor orchestrates the worker pool.
type Supervisor struct {
	store   Checkpointer
	coord   *retry.Coordinator
	cfg     Config
	factory WorkerFactory
	log     *slog.Logger
}

// New creates a supervisor. The factory is invoked lazily in Run.
func New(cp Checkpointer, coord *retry.Coordinator, cfg Config, factory WorkerFactory) *Supervisor {
	return &Supervisor{
		store:   cp,
		coord:   coord,
		cfg:     cfg.withDefaults(),
		factory: factory,
		log:     slog.With("component", "supervisor"),
	}
}

// workerExit signals that a worker goroutine returned. panicVal is non-nil
// when it crashed rather than exiting cleanly.
type workerExit struct {
	id       int
	panicVal any
}

// Run executes the pool until a found outcome, a degraded halt, or external
// cancellation. Blocks until every worker has exited.
func (s *Supervisor) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.Must(uuid.NewV7()).String()
	summary := &Summary{RunID: runID}

	snapshot, nextSeq, err := s.store.Load(ctx)
	if err != nil {
		return summary, fmt.Errorf("load checkpoint: %w", err)
	}
	summary.LastSeq = nextSeq - 1
	s.log.Info("checkpoint loaded",
		"run_id", runID, "tried", snapshot.Len(), "next_seq", nextSeq)

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan worker.Outcome, s.cfg.Workers*2)
	exits := make(chan workerExit, s.cfg.Workers)

	spawn := func(id int, tried candidate.TriedSet) {
		w := s.factory(id, tried, outcomes)
		go func() {
			defer func() {
				exit := workerExit{id: id}
				if r := recover(); r != nil {
					exit.panicVal = r
				}
				exits <- exit
			}()
			w.Run(wctx)
		}()
	}

	for i := 0; i < s.cfg.Workers; i++ {
		spawn(i, snapshot)
	}
	live := s.cfg.Workers

	// halted means no further outcomes are applied: either the work is
	// satisfied (found committed) or the store is degraded. Workers are
	// cancelled; remaining messages are drained and discarded.
	halted := false
	var runErr error

	// done is nilled after the first receipt; a closed channel would
	// otherwise win every select while workers drain out.
	done := wctx.Done()

	for live > 0 {
		select {
		case <-done:
			// External shutdown (or our own cancel). Keep looping:
			// workers still need to exit, and pending tried outcomes
			// are applied below unless halted.
			done = nil

		case exit := <-exits:
			live--
			if exit.panicVal == nil {
				continue
			}
			s.log.Error("worker crashed",
				"worker", exit.id, "panic", exit.panicVal)
			if halted || wctx.Err() != nil {
				continue
			}
			// Respawn with a fresh snapshot so the replacement
			// benefits from everything recorded since startup.
			fresh, _, err := s.store.Load(wctx)
			if err != nil {
				s.log.Warn("respawn snapshot reload failed, reusing startup snapshot",
					"worker", exit.id, "error", err)
				fresh = snapshot
			}
			spawn(exit.id, fresh)
			live++
			summary.Respawns++

		case o := <-outcomes:
			if halted {
				continue
			}
			switch o.Kind {
			case worker.OutcomeProbeFailed:
				summary.ProbeFailures++
				s.log.Debug("probe failure reported",
					"worker", o.WorkerID,
					"delay", s.coord.Current(),
					"error", o.Err)

			case worker.OutcomeTried:
				seq, err := s.appendTried(wctx, runID, o)
				if err != nil {
					s.log.Error("tried append failed after retries, degrading",
						"phrase_len", o.Candidate.Len(),
						"address", o.Address,
						"error", err)
					runErr = fmt.Errorf("%w: %v", ErrStorageDegraded, err)
					halted = true
					cancel()
					continue
				}
				summary.Tried++
				summary.LastSeq = seq
				s.log.Debug("tried recorded",
					"worker", o.WorkerID, "seq", seq,
					"address", o.Address, "lamports", o.Lamports)

			case worker.OutcomeFound:
				// Commit first, halt second. Losing this record is
				// the single worst failure mode of the system.
				if err := s.appendFound(runID, o); err != nil {
					s.log.Error("FOUND RECORD NOT DURABLE",
						"address", o.Address,
						"lamports", o.Lamports,
						"phrase", o.Candidate.Phrase(),
						"error", err)
					runErr = fmt.Errorf("%w: found append: %v", ErrStorageDegraded, err)
				} else {
					summary.Found++
					s.log.Info("found outcome committed, halting pool",
						"run_id", runID,
						"address", o.Address,
						"lamports", o.Lamports)
				}
				halted = true
				cancel()
			}
		}
	}

	if runErr == nil && ctx.Err() != nil && summary.Found == 0 {
		runErr = ctx.Err()
	}
	return summary, runErr
}

// appendTried writes a tried record with bounded retry.
func (s *Supervisor) appendTried(ctx context.Context, runID string, o worker.Outcome) (int64, error) {
	rec := store.TriedRecord{
		Phrase:   o.Candidate.Phrase(),
		Address:  o.Address,
		Lamports: o.Lamports,
		RunID:    runID,
	}
	var lastErr error
	for attempt := 1; attempt <= s.cfg.StorageRetries; attempt++ {
		seq, err := s.store.AppendTried(ctx, rec)
		if err == nil {
			return seq, nil
		}
		lastErr = err
		s.log.Warn("tried append failed",
			"attempt", attempt, "max", s.cfg.StorageRetries, "error", err)
		if attempt < s.cfg.StorageRetries && !sleepCtx(ctx, s.cfg.StorageBackoff) {
			break
		}
	}
	return 0, lastErr
}

// appendFound writes a found record with bounded retry on a detached
// context: external shutdown must not be able to abort the one write whose
// loss cannot be repaired by a rerun's at-least-once replay alone.
func (s *Supervisor) appendFound(runID string, o worker.Outcome) error {
	rec := store.FoundRecord{
		Address:  o.Address,
		Phrase:   o.Candidate.Phrase(),
		Lamports: o.Lamports,
		RunID:    runID,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= s.cfg.StorageRetries; attempt++ {
		if err := s.store.AppendFound(ctx, rec); err == nil {
			return nil
		} else {
			lastErr = err
		}
		s.log.Warn("found append failed",
			"attempt", attempt, "max", s.cfg.StorageRetries, "error", lastErr)
		if attempt < s.cfg.StorageRetries && !sleepCtx(ctx, s.cfg.StorageBackoff) {
			break
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
