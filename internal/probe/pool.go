package probe

import (
	"context"
	"fmt"
	"sync"
)

// Pool assigns clients to workers round-robin across configured endpoints.
type Pool struct {
	mu      sync.Mutex
	clients []Client
	next    int
}

// NewPool builds a pool from endpoint URLs.
// At least one endpoint is required; that invariant is also enforced by
// config validation, so this is a programming-error guard.
func NewPool(endpoints []string) (*Pool, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("probe pool: no endpoints configured")
	}
	clients := make([]Client, len(endpoints))
	for i, ep := range endpoints {
		clients[i] = NewRPCClient(ep)
	}
	return &Pool{clients: clients}, nil
}

// NewPoolOf builds a pool from pre-constructed clients. Used by tests to
// substitute scripted clients.
func NewPoolOf(clients ...Client) *Pool {
	return &Pool{clients: clients}
}

// Next hands out the next client round-robin. Safe for concurrent use.
func (p *Pool) Next() Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.clients[p.next%len(p.clients)]
	p.next++
	return c
}

// Len returns the number of clients in the pool.
func (p *Pool) Len() int {
	return len(p.clients)
}

// PingAll checks every endpoint and fails on the first unreachable one.
func (p *Pool) PingAll(ctx context.Context) error {
	for _, c := range p.clients {
		if err := c.Ping(ctx); err != nil {
			return fmt.Errorf("endpoint check: %w", err)
		}
	}
	return nil
}
