// File: internal/harness/locator.go
package harness

import (
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp"
)

// Strategy selects the selector language used to resolve a locator.
type Strategy string

const (
	StrategyCSS   Strategy = "css"
	StrategyXPath Strategy = "xpath"
)

// Locator identifies zero or more DOM elements at evaluation time. Locators
// are never cached across polls: every evaluation re-queries the live DOM,
// so a re-render replacing the underlying node cannot leave the harness
// holding a stale reference.
type Locator struct {
	Strategy   Strategy
	Expression string
}

// ByCSS builds a locator using a CSS selector.
func ByCSS(expr string) Locator {
	return Locator{Strategy: StrategyCSS, Expression: expr}
}

// ByXPath builds a locator using an XPath expression.
func ByXPath(expr string) Locator {
	return Locator{Strategy: StrategyXPath, Expression: expr}
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%q", l.Strategy, l.Expression)
}

// queryOption maps the locator strategy onto the matching chromedp query
// option.
func (l Locator) queryOption() chromedp.QueryOption {
	if l.Strategy == StrategyXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// jsLookup returns a JavaScript expression evaluating to the first matching
// element, or null.
func (l Locator) jsLookup() string {
	// json.Marshal gives us a safely quoted JS string literal.
	expr, _ := json.Marshal(l.Expression)
	if l.Strategy == StrategyXPath {
		return fmt.Sprintf(
			"document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue",
			expr)
	}
	return fmt.Sprintf("document.querySelector(%s)", expr)
}
