// File: internal/scenario/runner_test.go
package scenario

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/journeyman/internal/harness"
)

// fakeDriver satisfies Driver with programmable hooks; unset hooks succeed.
type fakeDriver struct {
	closeCalls   atomic.Int32
	evaluateFunc func(ctx context.Context, expr string, out interface{}) error
	textFunc     func(ctx context.Context, loc harness.Locator) (string, error)
}

func (f *fakeDriver) Navigate(ctx context.Context, url string) error { return nil }
func (f *fakeDriver) CurrentURL(ctx context.Context) (string, error) { return "about:blank", nil }
func (f *fakeDriver) WaitFor(ctx context.Context, cond harness.Condition, timeout time.Duration) error {
	return nil
}
func (f *fakeDriver) Click(ctx context.Context, loc harness.Locator) error { return nil }
func (f *fakeDriver) TypeInto(ctx context.Context, loc harness.Locator, text string) error {
	return nil
}
func (f *fakeDriver) SendKeys(ctx context.Context, loc harness.Locator, keys string) error {
	return nil
}
func (f *fakeDriver) Text(ctx context.Context, loc harness.Locator) (string, error) {
	if f.textFunc != nil {
		return f.textFunc(ctx, loc)
	}
	return "", nil
}
func (f *fakeDriver) Evaluate(ctx context.Context, expr string, out interface{}) error {
	if f.evaluateFunc != nil {
		return f.evaluateFunc(ctx, expr, out)
	}
	return nil
}
func (f *fakeDriver) ScrollToBottom(ctx context.Context) error { return nil }
func (f *fakeDriver) WithNewWindow(ctx context.Context, trigger func(context.Context) error, fn func(context.Context) error) error {
	if err := trigger(ctx); err != nil {
		return err
	}
	return fn(ctx)
}
func (f *fakeDriver) Close(ctx context.Context) error {
	f.closeCalls.Add(1)
	return nil
}

func fixedFactory(drv Driver) SessionFactory {
	return func(ctx context.Context) (Driver, error) { return drv, nil }
}

func TestRunnerClassifiesOutcomes(t *testing.T) {
	boom := errors.New("assertion failed")
	scenarios := []Scenario{
		{Name: "passes", Run: func(ctx context.Context, drv Driver) error { return nil }},
		{Name: "fails", Run: func(ctx context.Context, drv Driver) error { return boom }},
		{Name: "skips", Run: func(ctx context.Context, drv Driver) error {
			return fmt.Errorf("credentials absent: %w", harness.ErrInsufficientConfiguration)
		}},
	}

	r := NewRunner(fixedFactory(&fakeDriver{}), zap.NewNop(), scenarios...)
	results := r.Execute(context.Background())
	require.Len(t, results, 3)

	assert.Equal(t, OutcomePassed, results[0].Outcome)
	assert.NoError(t, results[0].Err)

	assert.Equal(t, OutcomeFailed, results[1].Outcome)
	assert.ErrorIs(t, results[1].Err, boom)

	assert.Equal(t, OutcomeSkipped, results[2].Outcome)
	assert.ErrorIs(t, results[2].Err, harness.ErrInsufficientConfiguration)

	assert.Equal(t, 1, FailedCount(results))
}

func TestRunnerFailureDoesNotBlockLaterScenarios(t *testing.T) {
	var order []string
	scenarios := []Scenario{
		{Name: "first", Run: func(ctx context.Context, drv Driver) error {
			order = append(order, "first")
			return errors.New("page never settled")
		}},
		{Name: "second", Run: func(ctx context.Context, drv Driver) error {
			order = append(order, "second")
			return nil
		}},
	}

	r := NewRunner(fixedFactory(&fakeDriver{}), zap.NewNop(), scenarios...)
	results := r.Execute(context.Background())

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, OutcomeFailed, results[0].Outcome)
	assert.Equal(t, OutcomePassed, results[1].Outcome)
}

func TestRunnerTearsDownEverySession(t *testing.T) {
	var drivers []*fakeDriver
	factory := func(ctx context.Context) (Driver, error) {
		drv := &fakeDriver{}
		drivers = append(drivers, drv)
		return drv, nil
	}

	scenarios := []Scenario{
		{Name: "ok", Run: func(ctx context.Context, drv Driver) error { return nil }},
		{Name: "broken", Run: func(ctx context.Context, drv Driver) error { return errors.New("nope") }},
	}

	NewRunner(factory, zap.NewNop(), scenarios...).Execute(context.Background())

	require.Len(t, drivers, 2, "each scenario gets its own session")
	for i, drv := range drivers {
		assert.Equal(t, int32(1), drv.closeCalls.Load(), "driver %d must be closed exactly once", i)
	}
}

func TestRunnerFactoryFailureIsAScenarioFailure(t *testing.T) {
	startup := &harness.StartupError{Err: errors.New("chrome executable not found")}
	factory := func(ctx context.Context) (Driver, error) { return nil, startup }

	ran := false
	r := NewRunner(factory, zap.NewNop(), Scenario{
		Name: "never-runs",
		Run:  func(ctx context.Context, drv Driver) error { ran = true; return nil },
	})
	results := r.Execute(context.Background())

	require.Len(t, results, 1)
	assert.Equal(t, OutcomeFailed, results[0].Outcome)
	assert.ErrorIs(t, results[0].Err, startup)
	assert.False(t, ran, "the scenario body must not run without a session")
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Name: "auth", Outcome: OutcomePassed, Elapsed: 1200 * time.Millisecond},
		{Name: "search", Outcome: OutcomeFailed, Err: errors.New("badge missing"), Elapsed: 3 * time.Second},
		{Name: "tags", Outcome: OutcomeSkipped, Err: errors.New("no creds")},
	}

	out := Summarize(results)
	assert.Contains(t, out, "PASS  auth")
	assert.Contains(t, out, "FAIL  search")
	assert.Contains(t, out, "badge missing")
	assert.Contains(t, out, "SKIP  tags")
	assert.Contains(t, out, "1 passed, 1 failed, 1 skipped")
}
