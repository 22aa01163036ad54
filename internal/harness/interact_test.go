// File: internal/harness/interact_test.go
package harness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAttempt fails for the first n calls, then succeeds.
func scriptedAttempt(failures int, err error) (func(context.Context) error, *int) {
	calls := new(int)
	return func(context.Context) error {
		*calls++
		if *calls <= failures {
			return err
		}
		return nil
	}, calls
}

func noopResolve(context.Context) error { return nil }

func TestRetryOnceSucceedsFirstTry(t *testing.T) {
	attempt, calls := scriptedAttempt(0, nil)

	first, final := retryOnce(context.Background(), time.Millisecond, attempt, noopResolve)

	assert.NoError(t, first)
	assert.NoError(t, final)
	assert.Equal(t, 1, *calls)
}

func TestRetryOnceAbsorbsSingleTransientFailure(t *testing.T) {
	stale := errors.New("node resolution failed: stale")
	attempt, calls := scriptedAttempt(1, stale)

	first, final := retryOnce(context.Background(), time.Millisecond, attempt, noopResolve)

	assert.ErrorIs(t, first, stale)
	assert.NoError(t, final, "a single transient failure followed by a clean retry must succeed overall")
	assert.Equal(t, 2, *calls)
}

func TestRetryOnceIsBoundedToExactlyOneRetry(t *testing.T) {
	stale := errors.New("node resolution failed: stale")
	attempt, calls := scriptedAttempt(5, stale)

	first, final := retryOnce(context.Background(), time.Millisecond, attempt, noopResolve)

	assert.ErrorIs(t, first, stale)
	assert.ErrorIs(t, final, stale)
	assert.Equal(t, 2, *calls, "two consecutive failures must stop after the single retry, never loop")
}

func TestRetryOnceSurfacesReresolutionFailure(t *testing.T) {
	attempt, calls := scriptedAttempt(1, errors.New("not interactable"))
	waitErr := &WaitTimeoutError{Condition: "element visible", Timeout: time.Second}

	_, final := retryOnce(context.Background(), time.Millisecond, attempt, func(context.Context) error {
		return waitErr
	})

	var timeoutErr *WaitTimeoutError
	require.ErrorAs(t, final, &timeoutErr)
	assert.Equal(t, 1, *calls, "the retry must not run when re-resolution fails")
}

func TestRetryOnceHonorsCancellationDuringSettle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempt, calls := scriptedAttempt(5, errors.New("flaky"))

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, final := retryOnce(ctx, 5*time.Second, attempt, noopResolve)

	assert.ErrorIs(t, final, context.Canceled)
	assert.Equal(t, 1, *calls)
}

func TestInteractionErrorPreservesBothAttempts(t *testing.T) {
	first := errors.New("stale element reference")
	retry := errors.New("element not interactable")
	err := &InteractionError{Locator: `css="input[name='q']"`, First: first, Retry: retry}

	assert.ErrorIs(t, err, retry, "Unwrap should expose the terminal attempt")
	assert.Contains(t, err.Error(), "stale element reference")
	assert.Contains(t, err.Error(), "element not interactable")
	assert.Contains(t, err.Error(), `input[name='q']`)
}
