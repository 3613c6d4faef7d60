// Package testutil provides scripted collaborators for worker and
// supervisor tests: a probe client with predetermined balances and failure
// injection, and a candidate source that replays a fixed phrase sequence.
package testutil

import (
	"context"
	"sync"
)

// ScriptedClient is a probe.Client returning predetermined balances.
// Unknown addresses read as balance 0, which matches the overwhelmingly
// common backend answer. All methods are safe for concurrent use.
type ScriptedClient struct {
	mu       sync.Mutex
	balances map[string]uint64
	calls    []string
	failures int
	failErr  error
	pingErr  error
}

// NewScriptedClient creates an empty scripted client.
func NewScriptedClient() *ScriptedClient {
	return &ScriptedClient{balances: make(map[string]uint64)}
}

// SetBalance scripts the balance for an address.
func (c *ScriptedClient) SetBalance(address string, lamports uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[address] = lamports
}

// FailNext makes the next n Balance calls return err.
func (c *ScriptedClient) FailNext(n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = n
	c.failErr = err
}

// SetPingErr makes Ping return err.
func (c *ScriptedClient) SetPingErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pingErr = err
}

// Balance implements probe.Client. Every attempt is recorded, including
// injected failures.
func (c *ScriptedClient) Balance(ctx context.Context, address string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, address)
	if c.failures > 0 {
		c.failures--
		return 0, c.failErr
	}
	return c.balances[address], nil
}

// Ping implements probe.Client.
func (c *ScriptedClient) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pingErr
}

// Calls returns a copy of every probed address in order.
func (c *ScriptedClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns how many times address was probed.
func (c *ScriptedClient) CallCount(address string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, a := range c.calls {
		if a == address {
			n++
		}
	}
	return n
}
