// File: internal/harness/interact.go
package harness

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// TypeInto focuses the field, clears any existing content, and types text.
// React-style controlled inputs re-render between focus and input, so a
// first failure (stale node, not yet interactable) is absorbed once: settle
// briefly, re-resolve the element through the synchronized locator, and
// repeat the whole sequence. A second failure is terminal.
func (s *Session) TypeInto(ctx context.Context, loc Locator, text string) error {
	return s.interact(ctx, loc, func(c context.Context) error {
		return chromedp.Run(c,
			chromedp.Click(loc.Expression, loc.queryOption()),
			chromedp.Clear(loc.Expression, loc.queryOption()),
			chromedp.SendKeys(loc.Expression, text, loc.queryOption()),
		)
	})
}

// Click waits for the element to be clickable, then clicks it, with the
// same single-retry policy as TypeInto.
func (s *Session) Click(ctx context.Context, loc Locator) error {
	if err := s.WaitFor(ctx, ElementClickable(loc), 0); err != nil {
		return err
	}
	return s.interact(ctx, loc, func(c context.Context) error {
		return chromedp.Run(c, chromedp.Click(loc.Expression, loc.queryOption()))
	})
}

// SendKeys types raw key input (including control keys such as kb.Enter)
// into the element without clearing it first.
func (s *Session) SendKeys(ctx context.Context, loc Locator, keys string) error {
	return s.interact(ctx, loc, func(c context.Context) error {
		return chromedp.Run(c, chromedp.SendKeys(loc.Expression, keys, loc.queryOption()))
	})
}

// interact applies the bounded retry policy to one interaction sequence and
// maps the outcome onto the harness error taxonomy.
func (s *Session) interact(ctx context.Context, loc Locator, sequence func(context.Context) error) error {
	attempt := func(c context.Context) error {
		attemptCtx, cancel := context.WithTimeout(s.ctx, s.harness.InteractionTimeout)
		defer cancel()
		if err := c.Err(); err != nil {
			return err
		}
		return sequence(attemptCtx)
	}
	reresolve := func(c context.Context) error {
		// The original node may have been replaced by a re-render; a fresh
		// bounded wait re-queries the live DOM.
		return s.WaitFor(c, ElementVisible(loc), 0)
	}

	first, final := retryOnce(ctx, s.harness.SettleDelay, attempt, reresolve)
	if final == nil {
		if first != nil {
			s.logger.Debug("Interaction recovered on retry",
				zap.String("locator", loc.String()), zap.NamedError("first_attempt", first))
		}
		return nil
	}
	if err := ctx.Err(); err != nil {
		// Caller cancellation is not an interaction failure.
		return err
	}
	return &InteractionError{Locator: loc.String(), First: first, Retry: final}
}

// retryOnce runs attempt and, if it fails, settles, re-resolves, and runs
// attempt exactly once more. Exactly one retry, not a loop: that bounds the
// worst-case latency per interaction while covering the common
// single-re-render race.
//
// Returns (nil, nil) on success. On failure, first is the error from the
// initial attempt and final is whichever of settling, re-resolving, or
// retrying went wrong.
func retryOnce(ctx context.Context, settle time.Duration, attempt, reresolve func(context.Context) error) (first, final error) {
	first = attempt(ctx)
	if first == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return first, err
	}

	select {
	case <-time.After(settle):
	case <-ctx.Done():
		return first, ctx.Err()
	}

	if err := reresolve(ctx); err != nil {
		return first, err
	}
	if err := attempt(ctx); err != nil {
		return first, err
	}
	return first, nil
}
