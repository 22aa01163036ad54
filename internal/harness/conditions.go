// File: internal/harness/conditions.go
package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// Condition is a predicate over observable browser state: rendered DOM,
// document URL, or the open-window set. Evaluate must be side-effect free;
// Await polls it repeatedly against the live session context.
type Condition interface {
	Evaluate(ctx context.Context) (bool, error)
	Description() string
}

// condFunc adapts a closure into a Condition.
type condFunc struct {
	desc string
	eval func(ctx context.Context) (bool, error)
}

func (c condFunc) Evaluate(ctx context.Context) (bool, error) { return c.eval(ctx) }
func (c condFunc) Description() string                        { return c.desc }

// Predicate wraps an arbitrary check over the driver context into a
// Condition. desc is what a timeout report will show.
func Predicate(desc string, eval func(ctx context.Context) (bool, error)) Condition {
	return condFunc{desc: desc, eval: eval}
}

// evalBool runs a JavaScript expression expected to yield a boolean.
func evalBool(ctx context.Context, expr string) (bool, error) {
	var ok bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(expr, &ok)); err != nil {
		return false, err
	}
	return ok, nil
}

// ElementPresent holds once the locator matches at least one node in the
// DOM, visible or not.
func ElementPresent(loc Locator) Condition {
	return condFunc{
		desc: fmt.Sprintf("element present: %s", loc),
		eval: func(ctx context.Context) (bool, error) {
			return evalBool(ctx, fmt.Sprintf("(%s) !== null", loc.jsLookup()))
		},
	}
}

// ElementVisible requires a matching node with a non-zero rendered size.
func ElementVisible(loc Locator) Condition {
	return condFunc{
		desc: fmt.Sprintf("element visible: %s", loc),
		eval: func(ctx context.Context) (bool, error) {
			expr := fmt.Sprintf(`(() => {
				const el = %s;
				return !!el && el.getClientRects().length > 0 && el.offsetWidth > 0 && el.offsetHeight > 0;
			})()`, loc.jsLookup())
			return evalBool(ctx, expr)
		},
	}
}

// ElementClickable requires visibility plus an enabled target whose center
// point is not obscured by another element.
func ElementClickable(loc Locator) Condition {
	return condFunc{
		desc: fmt.Sprintf("element clickable: %s", loc),
		eval: func(ctx context.Context) (bool, error) {
			expr := fmt.Sprintf(`(() => {
				const el = %s;
				if (!el || el.disabled) return false;
				const r = el.getBoundingClientRect();
				if (r.width <= 0 || r.height <= 0) return false;
				const hit = document.elementFromPoint(r.x + r.width / 2, r.y + r.height / 2);
				return hit === el || (hit !== null && el.contains(hit));
			})()`, loc.jsLookup())
			return evalBool(ctx, expr)
		},
	}
}

// URLContains holds while the current document URL contains substr.
func URLContains(substr string) Condition {
	return condFunc{
		desc: fmt.Sprintf("url contains %q", substr),
		eval: func(ctx context.Context) (bool, error) {
			url, err := location(ctx)
			if err != nil {
				return false, err
			}
			return strings.Contains(url, substr), nil
		},
	}
}

// URLNotContains holds once the current document URL no longer contains
// substr (e.g. leaving a /login route after a successful sign-in).
func URLNotContains(substr string) Condition {
	return condFunc{
		desc: fmt.Sprintf("url does not contain %q", substr),
		eval: func(ctx context.Context) (bool, error) {
			url, err := location(ctx)
			if err != nil {
				return false, err
			}
			return !strings.Contains(url, substr), nil
		},
	}
}

// WindowCount holds when the number of open tabs/windows equals n.
func WindowCount(n int) Condition {
	return condFunc{
		desc: fmt.Sprintf("window count == %d", n),
		eval: func(ctx context.Context) (bool, error) {
			infos, err := chromedp.Targets(ctx)
			if err != nil {
				return false, err
			}
			return len(pageTargets(infos)) == n, nil
		},
	}
}

func location(ctx context.Context) (string, error) {
	var url string
	if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}
