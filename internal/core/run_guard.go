package core

// run_guard.go implements mutual exclusion between runs.
//
// Two overlapping runs would read the same pending set and could notify the
// same record twice before either marker write lands. The guard is a
// semaphore with a single slot: a second caller waits up to maxWait for the
// active run to finish and then fails with ErrRunInProgress. Because every
// run reads a fresh snapshot after acquiring the slot, a queued run sees the
// markers written by the run before it.
//
// WaitForDrain lets shutdown block until the active run completes.

import (
	"context"
	"sync"
	"time"
)

// DefaultRunWait is how long a caller waits for the active run by default.
const DefaultRunWait = 5 * time.Second

// RunGuard allows at most one run at a time.
type RunGuard struct {
	slot    chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active bool
	since  time.Time
}

// NewRunGuard creates a guard. A negative maxWait means callers never wait
// and are rejected immediately while a run is active; zero uses DefaultRunWait.
func NewRunGuard(maxWait time.Duration) *RunGuard {
	if maxWait == 0 {
		maxWait = DefaultRunWait
	}
	return &RunGuard{
		slot:    make(chan struct{}, 1),
		maxWait: maxWait,
	}
}

// Acquire takes the run slot, waiting up to maxWait.
// Returns ErrRunInProgress if the slot stays busy, or ctx.Err() if ctx ends first.
// The caller MUST call Release when the run completes (use defer).
func (g *RunGuard) Acquire(ctx context.Context) error {
	if g.maxWait < 0 {
		if g.TryAcquire() {
			return nil
		}
		return ErrRunInProgress
	}

	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	select {
	case g.slot <- struct{}{}:
		g.markActive(true)
		return nil

	case <-waitCtx.Done():
		// Distinguish caller cancellation from our own wait timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrRunInProgress
	}
}

// TryAcquire takes the slot without blocking.
func (g *RunGuard) TryAcquire() bool {
	select {
	case g.slot <- struct{}{}:
		g.markActive(true)
		return true
	default:
		return false
	}
}

// Release frees the slot. Must be called exactly once per successful acquire.
func (g *RunGuard) Release() {
	g.markActive(false)
	<-g.slot
}

// Active reports whether a run currently holds the slot, and since when.
func (g *RunGuard) Active() (bool, time.Time) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active, g.since
}

// WaitForDrain blocks until no run is active or ctx is cancelled.
func (g *RunGuard) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if active, _ := g.Active(); !active {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (g *RunGuard) markActive(active bool) {
	g.mu.Lock()
	g.active = active
	if active {
		g.since = time.Now()
	} else {
		g.since = time.Time{}
	}
	g.mu.Unlock()
}
