// File: internal/scenario/scenario.go
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/journeyman/internal/config"
	"github.com/xkilldash9x/journeyman/internal/harness"
)

// Driver is the slice of the harness surface the journeys consume.
// *harness.Session satisfies it.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	WaitFor(ctx context.Context, cond harness.Condition, timeout time.Duration) error
	Click(ctx context.Context, loc harness.Locator) error
	TypeInto(ctx context.Context, loc harness.Locator, text string) error
	SendKeys(ctx context.Context, loc harness.Locator, keys string) error
	Text(ctx context.Context, loc harness.Locator) (string, error)
	Evaluate(ctx context.Context, expr string, out interface{}) error
	ScrollToBottom(ctx context.Context) error
	WithNewWindow(ctx context.Context, trigger func(context.Context) error, fn func(context.Context) error) error
	Close(ctx context.Context) error
}

var _ Driver = (*harness.Session)(nil)

// Outcome classifies one scenario result.
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Result is the per-scenario verdict.
type Result struct {
	Name    string
	Outcome Outcome
	Err     error
	Elapsed time.Duration
}

// Scenario is one end-to-end journey-level check built atop the harness.
type Scenario struct {
	Name string
	Run  func(ctx context.Context, drv Driver) error
}

// SessionFactory provisions one fresh driver per scenario.
type SessionFactory func(ctx context.Context) (Driver, error)

// HarnessFactory returns the production factory backed by a real browser
// session.
func HarnessFactory(cfg *config.Config, logger *zap.Logger) SessionFactory {
	return func(ctx context.Context) (Driver, error) {
		return harness.NewSession(ctx, cfg, logger)
	}
}

// Runner executes scenarios strictly sequentially, one browser session per
// scenario, with teardown guaranteed on every exit path.
type Runner struct {
	factory   SessionFactory
	logger    *zap.Logger
	scenarios []Scenario
}

// NewRunner builds a runner over the given scenarios.
func NewRunner(factory SessionFactory, logger *zap.Logger, scenarios ...Scenario) *Runner {
	return &Runner{
		factory:   factory,
		logger:    logger.Named("runner"),
		scenarios: scenarios,
	}
}

// Execute runs every scenario in order. One scenario's failure never blocks
// execution of the rest; results are reported per scenario, not aggregated.
func (r *Runner) Execute(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.scenarios))
	for _, sc := range r.scenarios {
		results = append(results, r.runOne(ctx, sc))
	}
	return results
}

func (r *Runner) runOne(ctx context.Context, sc Scenario) Result {
	log := r.logger.With(zap.String("scenario", sc.Name))
	log.Info("Scenario starting")
	start := time.Now()

	drv, err := r.factory(ctx)
	if err != nil {
		log.Error("Session startup failed", zap.Error(err))
		return Result{Name: sc.Name, Outcome: OutcomeFailed, Err: err, Elapsed: time.Since(start)}
	}
	defer func() {
		// Teardown runs on every exit path so no browser process outlives
		// its scenario. A fresh context: the scenario's own may be dead.
		closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if cerr := drv.Close(closeCtx); cerr != nil {
			log.Warn("Session teardown reported an error", zap.Error(cerr))
		}
	}()

	err = sc.Run(ctx, drv)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		log.Info("Scenario passed", zap.Duration("elapsed", elapsed))
		return Result{Name: sc.Name, Outcome: OutcomePassed, Elapsed: elapsed}
	case errors.Is(err, harness.ErrInsufficientConfiguration):
		log.Warn("Scenario skipped", zap.String("reason", err.Error()))
		return Result{Name: sc.Name, Outcome: OutcomeSkipped, Err: err, Elapsed: elapsed}
	default:
		log.Error("Scenario failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return Result{Name: sc.Name, Outcome: OutcomeFailed, Err: err, Elapsed: elapsed}
	}
}

// FailedCount returns how many results are failures.
func FailedCount(results []Result) int {
	n := 0
	for _, res := range results {
		if res.Outcome == OutcomeFailed {
			n++
		}
	}
	return n
}

// Summarize renders a one-line verdict per scenario plus a totals line.
func Summarize(results []Result) string {
	var passed, failed, skipped int
	out := ""
	for _, res := range results {
		switch res.Outcome {
		case OutcomePassed:
			passed++
			out += fmt.Sprintf("  PASS  %s (%s)\n", res.Name, res.Elapsed.Round(time.Millisecond))
		case OutcomeSkipped:
			skipped++
			out += fmt.Sprintf("  SKIP  %s: %v\n", res.Name, res.Err)
		default:
			failed++
			out += fmt.Sprintf("  FAIL  %s (%s): %v\n", res.Name, res.Elapsed.Round(time.Millisecond), res.Err)
		}
	}
	out += fmt.Sprintf("%d passed, %d failed, %d skipped", passed, failed, skipped)
	return out
}
