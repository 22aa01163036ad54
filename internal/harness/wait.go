// File: internal/harness/wait.go
package harness

import (
	"context"
	"time"
)

// DefaultPollInterval is the fallback polling cadence when a caller passes a
// non-positive interval.
const DefaultPollInterval = 250 * time.Millisecond

// Await polls cond at a fixed interval until it holds or timeout elapses.
// The first evaluation happens immediately, so a condition that already
// holds returns without waiting out an interval, and the call returns no
// later than timeout plus one interval.
//
// Never an unbounded wait and never a blind sleep: render timing under a
// client-rendered SPA is tied to network and script execution, not to any
// fixed delay.
//
// Evaluation errors are treated as "not yet": a mid-render document
// routinely fails queries that succeed one poll later. Context cancellation
// is surfaced as-is.
func Await(ctx context.Context, cond Condition, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	start := time.Now()
	deadline := start.Add(timeout)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond.Evaluate(ctx)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil && ok {
			return nil
		}

		if !time.Now().Before(deadline) {
			return &WaitTimeoutError{
				Condition: cond.Description(),
				Timeout:   timeout,
				Elapsed:   time.Since(start),
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
