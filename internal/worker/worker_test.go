package worker

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirvanameow/seedsweep/internal/candidate"
	"github.com/nirvanameow/seedsweep/internal/retry"
	"github.com/nirvanameow/seedsweep/internal/testutil"
)

func testDerive(phrase string) string {
	return "addr:" + phrase
}

func newTestCoordinator() *retry.Coordinator {
	return retry.NewCoordinator(retry.Config{
		Base: time.Millisecond,
		Max:  5 * time.Millisecond,
	}, rand.New(rand.NewSource(1)))
}

func TestWorker_ProbesFreshCandidate(t *testing.T) {
	client := testutil.NewScriptedClient()
	outcomes := make(chan Outcome, 8)
	w := New(Config{
		ID:       1,
		Source:   testutil.NewScriptedSource("alpha beta"),
		Tried:    candidate.NewTriedSet(nil),
		Derive:   testDerive,
		Client:   client,
		Coord:    newTestCoordinator(),
		Outcomes: outcomes,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { w.Run(ctx); close(done) }()

	o := receiveOutcome(t, outcomes)
	cancel()
	<-done

	assert.Equal(t, OutcomeTried, o.Kind)
	assert.Equal(t, "alpha beta", o.Candidate.Phrase())
	assert.Equal(t, "addr:alpha beta", o.Address)
	assert.Equal(t, uint64(0), o.Lamports)
	assert.Equal(t, 1, o.WorkerID)
}

func TestWorker_SkipsKnownCandidate(t *testing.T) {
	client := testutil.NewScriptedClient()
	outcomes := make(chan Outcome, 8)
	w := New(Config{
		ID:       1,
		Source:   testutil.NewScriptedSource("alpha beta", "gamma delta"),
		Tried:    candidate.NewTriedSet([]string{"alpha beta"}),
		Derive:   testDerive,
		Client:   client,
		Coord:    newTestCoordinator(),
		Outcomes: outcomes,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { w.Run(ctx); close(done) }()

	o := receiveOutcome(t, outcomes)
	cancel()
	<-done

	// The known phrase produced no probe at all; the first outcome comes
	// from the fresh one.
	assert.Equal(t, "gamma delta", o.Candidate.Phrase())
	assert.Zero(t, client.CallCount("addr:alpha beta"))
	assert.Equal(t, 1, client.CallCount("addr:gamma delta"))
}

func TestWorker_ProbeFailureReportsAndContinues(t *testing.T) {
	client := testutil.NewScriptedClient()
	probeErr := errors.New("backend unavailable")
	client.FailNext(1, probeErr)

	coord := newTestCoordinator()
	outcomes := make(chan Outcome, 8)
	w := New(Config{
		ID:       1,
		Source:   testutil.NewScriptedSource("alpha beta", "gamma delta"),
		Tried:    candidate.NewTriedSet(nil),
		Derive:   testDerive,
		Client:   client,
		Coord:    coord,
		Outcomes: outcomes,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { w.Run(ctx); close(done) }()

	first := receiveOutcome(t, outcomes)
	second := receiveOutcome(t, outcomes)
	cancel()
	<-done

	require.Equal(t, OutcomeProbeFailed, first.Kind)
	assert.Equal(t, "alpha beta", first.Candidate.Phrase())
	assert.ErrorIs(t, first.Err, probeErr)

	// After the failure the worker re-enters generation with a fresh
	// candidate instead of hammering the failed one.
	assert.Equal(t, OutcomeTried, second.Kind)
	assert.Equal(t, "gamma delta", second.Candidate.Phrase())

	// The failure raised the shared backoff.
	assert.GreaterOrEqual(t, coord.Current(), time.Millisecond)
}

func TestWorker_FoundIsTerminal(t *testing.T) {
	client := testutil.NewScriptedClient()
	client.SetBalance("addr:alpha beta", 1500)

	outcomes := make(chan Outcome, 8)
	w := New(Config{
		ID:       1,
		Source:   testutil.NewScriptedSource("alpha beta"),
		Tried:    candidate.NewTriedSet(nil),
		Derive:   testDerive,
		Client:   client,
		Coord:    newTestCoordinator(),
		Outcomes: outcomes,
	})

	done := make(chan struct{})
	go func() { w.Run(context.Background()); close(done) }()

	first := receiveOutcome(t, outcomes)
	second := receiveOutcome(t, outcomes)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not terminate after found outcome")
	}

	// Tried always precedes Found for the same candidate.
	require.Equal(t, OutcomeTried, first.Kind)
	require.Equal(t, OutcomeFound, second.Kind)
	assert.Equal(t, first.Candidate.Phrase(), second.Candidate.Phrase())
	assert.Equal(t, uint64(1500), second.Lamports)

	// No further probes after the terminal outcome.
	assert.Equal(t, 1, client.CallCount("addr:alpha beta"))
}

func TestWorker_StopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := New(Config{
		ID:       1,
		Source:   testutil.NewScriptedSource("alpha beta"),
		Tried:    candidate.NewTriedSet(nil),
		Derive:   testDerive,
		Client:   testutil.NewScriptedClient(),
		Coord:    newTestCoordinator(),
		Outcomes: make(chan Outcome), // unbuffered: a send would deadlock
	})

	done := make(chan struct{})
	go func() { w.Run(ctx); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on pre-cancelled context")
	}
}

func TestWorker_HonorsBroadcastDelay(t *testing.T) {
	coord := newTestCoordinator()
	outcomes := make(chan Outcome, 8)
	w := New(Config{
		ID:       1,
		Source:   testutil.NewScriptedSource("alpha beta"),
		Tried:    candidate.NewTriedSet(nil),
		Derive:   testDerive,
		Client:   testutil.NewScriptedClient(),
		Coord:    coord,
		Outcomes: outcomes,
	})
	// Raise the shared delay after subscribing so the worker's channel
	// already carries a value on its first iteration.
	delay := coord.ReportFailure()
	require.Greater(t, delay, time.Duration(0))

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	done := make(chan struct{})
	go func() { w.Run(ctx); close(done) }()

	receiveOutcome(t, outcomes)
	elapsed := time.Since(start)
	cancel()
	<-done

	assert.GreaterOrEqual(t, elapsed, delay)
}

func receiveOutcome(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return Outcome{}
	}
}
