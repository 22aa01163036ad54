// File: internal/harness/errors.go
package harness

import (
	"errors"
	"fmt"
	"time"
)

// ErrInsufficientConfiguration signals that a scenario lacks required
// configuration (e.g. credentials). The dependent scenario is skipped, not
// failed.
var ErrInsufficientConfiguration = errors.New("insufficient configuration")

// StartupError indicates the browser process could not be launched or never
// became responsive. This is an environment problem: fatal for the test
// case, never retried.
type StartupError struct {
	Err error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("browser session startup failed: %v", e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// WaitTimeoutError reports a condition that never held within its bound.
// This is the dominant failure mode against a flaky UI, so it carries the
// attempted condition and the elapsed time; the report must be enough to
// diagnose without re-running.
type WaitTimeoutError struct {
	Condition string
	Timeout   time.Duration
	Elapsed   time.Duration
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s (limit %s) waiting for %s",
		e.Elapsed.Round(time.Millisecond), e.Timeout, e.Condition)
}

// InteractionError is terminal for the enclosing check: the element would
// not stabilize even after the single permitted retry. Both attempt errors
// are preserved so a stale reference can be told apart from a
// not-interactable element in the report.
type InteractionError struct {
	Locator string
	First   error
	Retry   error
}

func (e *InteractionError) Error() string {
	return fmt.Sprintf("interaction with %s failed after retry: %v (first attempt: %v)",
		e.Locator, e.Retry, e.First)
}

func (e *InteractionError) Unwrap() error { return e.Retry }
