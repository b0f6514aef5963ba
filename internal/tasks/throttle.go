package tasks

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDelay is the gap enforced between reconciliation lookups during an import.
const DefaultDelay = 300 * time.Millisecond

// Throttle is a bounded-rate task queue: one task in flight, and consecutive task starts
// separated by at least the configured gap.
type Throttle struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	gap     time.Duration
}

// NewThrottle creates a throttle with the given gap. A non-positive gap disables waiting.
func NewThrottle(gap time.Duration) *Throttle {
	limit := rate.Inf
	if gap > 0 {
		limit = rate.Every(gap)
	}
	return &Throttle{limiter: rate.NewLimiter(limit, 1), gap: gap}
}

// Gap returns the configured minimum spacing.
func (t *Throttle) Gap() time.Duration { return t.gap }

// Do waits for the previous task to finish and for the gap to elapse, then runs fn.
//
// Returns ctx's error without running fn if ctx ends while waiting.
func (t *Throttle) Do(ctx context.Context, fn func(context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return fn(ctx)
}
