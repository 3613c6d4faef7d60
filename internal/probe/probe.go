// Package probe queries external RPC state for a derived address.
//
// The production client speaks Solana JSON-RPC over HTTP (getBalance,
// getVersion). Failures are classified into a small taxonomy so the worker
// loop can decide uniformly: every kind except Fatal is retryable and must
// never be recorded as a tried outcome.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a probe failure.
type Kind int

const (
	// KindTimeout is a request that exceeded its deadline.
	KindTimeout Kind = iota + 1
	// KindRateLimited is an explicit throttle response from the backend.
	KindRateLimited
	// KindTransient is any other network-level or server-side failure
	// expected to clear on its own.
	KindTransient
	// KindFatal is a definitive rejection (malformed request, RPC error).
	// Not retryable; given a well-formed address it should not occur.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a classified probe failure.
type Error struct {
	Kind     Kind
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("probe %s (%s): %v", e.Endpoint, e.Kind, e.Err)
	}
	return fmt.Sprintf("probe %s (%s)", e.Endpoint, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure should trigger backoff and retry
// rather than being treated as a definitive result.
func (e *Error) Retryable() bool {
	return e.Kind != KindFatal
}

// Retryable reports whether err is a retryable probe failure.
// Unclassified errors are treated as retryable: the safe failure mode is a
// redundant probe, never a silently skipped candidate.
func Retryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return true
}

// classify wraps a transport-level error with a Kind.
func classify(endpoint string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Endpoint: endpoint, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Kind: KindTimeout, Endpoint: endpoint, Err: err}
	}
	return &Error{Kind: KindTransient, Endpoint: endpoint, Err: err}
}

// Client is the probing capability the worker loop consumes.
type Client interface {
	// Balance returns the observed balance in lamports for an address.
	Balance(ctx context.Context, address string) (uint64, error)

	// Ping verifies the backend is reachable. Used at startup to fail
	// fast before any worker spawns.
	Ping(ctx context.Context) error
}
