// Package retry holds the process-wide backoff state shared by all workers.
//
// One Coordinator exists per run. When any worker reports a probe failure the
// coordinator raises the shared delay and broadcasts it to every subscriber,
// so a struggling backend throttles the whole pool at once instead of each
// worker rediscovering the same backpressure.
//
// Broadcast channels are buffered size 1 and coalesce to the latest value:
// a slow worker never blocks the coordinator, and on wake it observes the
// newest delay, which is the only one that matters.
package retry

import (
	"math/rand"
	"sync"
	"time"
)

// Config controls backoff behavior.
type Config struct {
	// Base is the delay floor applied on the first failure.
	Base time.Duration
	// Max caps the shared delay.
	Max time.Duration
	// Jitter is the upper bound of the random component added to Base.
	Jitter time.Duration
	// DecayAfter is the number of consecutive successes after which the
	// delay halves. Zero disables decay: the delay never drops within a
	// run, matching the strict contract.
	DecayAfter int
}

// Coordinator is the single shared backoff instance for a worker pool.
type Coordinator struct {
	cfg Config

	mu        sync.Mutex
	delay     time.Duration
	successes int
	subs      []chan time.Duration
	rng       *rand.Rand
}

// NewCoordinator creates a coordinator with delay 0 (no backoff until the
// first failure). The rng is used only under the coordinator lock.
func NewCoordinator(cfg Config, rng *rand.Rand) *Coordinator {
	return &Coordinator{cfg: cfg, rng: rng}
}

// Subscribe returns a channel carrying delay updates. Each worker subscribes
// once before the pool starts; values are coalesced, never dropped behind a
// newer one.
func (c *Coordinator) Subscribe() <-chan time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Duration, 1)
	c.subs = append(c.subs, ch)
	return ch
}

// ReportFailure raises the shared delay and returns the new value.
// New delay = max(current, base + jitter), capped at Max. The delay never
// decreases here; consecutive-success decay is the only path down.
func (c *Coordinator) ReportFailure() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	proposed := c.cfg.Base
	if c.cfg.Jitter > 0 {
		proposed += time.Duration(c.rng.Int63n(int64(c.cfg.Jitter) + 1))
	}
	if proposed > c.delay {
		c.delay = proposed
	}
	if c.cfg.Max > 0 && c.delay > c.cfg.Max {
		c.delay = c.cfg.Max
	}
	c.successes = 0
	c.publishLocked()
	return c.delay
}

// ReportSuccess notes a successful probe. After DecayAfter consecutive
// successes the delay halves; once below Base it snaps to zero (no backoff).
// No-op when decay is disabled.
func (c *Coordinator) ReportSuccess() {
	if c.cfg.DecayAfter <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.delay == 0 {
		return
	}
	c.successes++
	if c.successes < c.cfg.DecayAfter {
		return
	}
	c.successes = 0
	c.delay /= 2
	if c.delay < c.cfg.Base {
		c.delay = 0
	}
	c.publishLocked()
}

// Current returns the shared delay.
func (c *Coordinator) Current() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delay
}

// publishLocked pushes the current delay to every subscriber, replacing any
// unread older value. Caller holds c.mu.
func (c *Coordinator) publishLocked() {
	for _, ch := range c.subs {
		select {
		case ch <- c.delay:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- c.delay:
			default:
			}
		}
	}
}
