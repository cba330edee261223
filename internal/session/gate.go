package session

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultGateCapacity bounds simultaneous in-flight sessions. Each session
// costs a muxer process plus two remote fetches, so the cap protects CPU,
// sockets, and disk on the host.
const DefaultGateCapacity = 30

// Gate is the global admission bound for streaming sessions. Every request
// must acquire a permit before any network or subprocess work and release it
// on every exit path.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate returns a Gate with the given capacity; non-positive capacities fall
// back to DefaultGateCapacity.
func NewGate(capacity int) *Gate {
	if capacity <= 0 {
		capacity = DefaultGateCapacity
	}
	return &Gate{sem: semaphore.NewWeighted(int64(capacity))}
}

// Acquire blocks until a permit is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// Release returns a permit.
func (g *Gate) Release() {
	g.sem.Release(1)
}
