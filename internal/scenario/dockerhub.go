// File: internal/scenario/dockerhub.go
package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp/kb"

	"github.com/xkilldash9x/journeyman/internal/config"
	"github.com/xkilldash9x/journeyman/internal/harness"
)

// Selector inventory for hub.docker.com. The markup is MUI-generated, so
// these lean on data-testid/autocomplete attributes rather than generated
// class names wherever possible.
var (
	locUsername  = harness.ByCSS("input[name='username'], *[autocomplete='username']")
	locPassword  = harness.ByCSS("input[name='password'], *[autocomplete='current-password']")
	locSubmit    = harness.ByXPath("//button[@type='submit']")
	locAvatar    = harness.ByCSS("header .MuiAvatar-root, header div[class*='Avatar']")
	locSearchBtn = harness.ByCSS("button[data-heap='header-search-button']")
	locSearchBox = harness.ByCSS("input[placeholder='Search Docker Hub']")
	locFirstCard = harness.ByCSS("a[data-testid='product-card-link']")
	locTagsTab   = harness.ByXPath("//a[contains(@href,'tags')]")
	locAnyTag    = harness.ByCSS("*[data-testid*='tag'], *[class*='tag']")
	locPullCmd   = harness.ByXPath("//*[contains(text(),'docker pull')] | //input[contains(@value,'docker pull')]")
	locDocsLink  = harness.ByXPath("//footer//*[self::a and contains(@href,'docs.docker.com')]")
)

// All returns the full journey suite in execution order.
func All(cfg *config.Config) []Scenario {
	return []Scenario{
		Authentication(cfg),
		Search(cfg),
		RepoTags(cfg),
		PullCommand(cfg),
		DocsNavigation(cfg),
	}
}

// Authentication signs in through the two-step login form and verifies the
// avatar appears. Skipped when credentials are not configured.
func Authentication(cfg *config.Config) Scenario {
	return Scenario{
		Name: "authentication_flow",
		Run: func(ctx context.Context, drv Driver) error {
			if !cfg.Credentials.HasCredentials() {
				return fmt.Errorf("DOCKER_USER / DOCKER_PASS not set: %w", harness.ErrInsufficientConfiguration)
			}

			if err := drv.Navigate(ctx, cfg.Harness.BaseURL+"/login"); err != nil {
				return err
			}

			if err := drv.WaitFor(ctx, harness.ElementClickable(locUsername), 0); err != nil {
				return err
			}
			if err := drv.TypeInto(ctx, locUsername, cfg.Credentials.Username); err != nil {
				return err
			}
			if err := drv.Click(ctx, locSubmit); err != nil {
				return err
			}

			if err := drv.WaitFor(ctx, harness.ElementClickable(locPassword), 0); err != nil {
				return err
			}
			if err := drv.TypeInto(ctx, locPassword, cfg.Credentials.Password); err != nil {
				return err
			}
			if err := drv.Click(ctx, locSubmit); err != nil {
				return err
			}

			// A successful sign-in redirects away from /login and renders
			// the account avatar in the header.
			if err := drv.WaitFor(ctx, harness.URLNotContains("/login"), 0); err != nil {
				return err
			}
			return drv.WaitFor(ctx, harness.ElementPresent(locAvatar), 0)
		},
	}
}

// Search runs a "python" query and verifies the first result is the
// official python image.
func Search(cfg *config.Config) Scenario {
	return Scenario{
		Name: "search_functionality",
		Run: func(ctx context.Context, drv Driver) error {
			if err := drv.Navigate(ctx, cfg.Harness.BaseURL); err != nil {
				return err
			}

			if err := drv.Click(ctx, locSearchBtn); err != nil {
				return err
			}
			if err := drv.WaitFor(ctx, harness.ElementVisible(locSearchBox), 0); err != nil {
				return err
			}
			if err := drv.TypeInto(ctx, locSearchBox, "python"); err != nil {
				return err
			}
			if err := drv.SendKeys(ctx, locSearchBox, kb.Enter); err != nil {
				return err
			}

			if err := drv.WaitFor(ctx, harness.ElementVisible(locFirstCard), 0); err != nil {
				return err
			}
			text, err := drv.Text(ctx, locFirstCard)
			if err != nil {
				return err
			}
			if !strings.Contains(strings.ToLower(text), "python") {
				return fmt.Errorf("first search result %q does not mention python", text)
			}

			return assertOfficialBadge(ctx, drv)
		},
	}
}

// assertOfficialBadge checks that the card enclosing the first result
// exposes at least one official-image indicator.
func assertOfficialBadge(ctx context.Context, drv Driver) error {
	const expr = `(() => {
		const link = document.querySelector("a[data-testid='product-card-link']");
		if (!link) return false;
		const card = link.closest("div[class*='MuiPaper-root']") || link.parentElement;
		if (!card) return false;
		return card.querySelector("div[data-testid='productBadge'], svg[data-testid='official-icon']") !== null;
	})()`
	var hasBadge bool
	if err := drv.Evaluate(ctx, expr, &hasBadge); err != nil {
		return err
	}
	if !hasBadge {
		return fmt.Errorf("official badge missing on first search result")
	}
	return nil
}

// RepoTags opens the alpine repository's tags tab and verifies the "latest"
// tag is listed.
func RepoTags(cfg *config.Config) Scenario {
	return Scenario{
		Name: "repo_tags_verification",
		Run: func(ctx context.Context, drv Driver) error {
			if err := drv.Navigate(ctx, cfg.Harness.BaseURL+"/_/alpine"); err != nil {
				return err
			}

			if err := drv.Click(ctx, locTagsTab); err != nil {
				return err
			}
			if err := drv.WaitFor(ctx, harness.ElementPresent(locAnyTag), 0); err != nil {
				return err
			}

			var hasLatest bool
			expr := `document.documentElement.innerText.toLowerCase().includes("latest")`
			if err := drv.Evaluate(ctx, expr, &hasLatest); err != nil {
				return err
			}
			if !hasLatest {
				return fmt.Errorf("'latest' tag not found on the tags page")
			}
			return nil
		},
	}
}

// PullCommand verifies the nginx repository page shows its docker pull
// command.
func PullCommand(cfg *config.Config) Scenario {
	return Scenario{
		Name: "pull_command_verification",
		Run: func(ctx context.Context, drv Driver) error {
			if err := drv.Navigate(ctx, cfg.Harness.BaseURL+"/_/nginx"); err != nil {
				return err
			}

			if err := drv.WaitFor(ctx, harness.ElementPresent(locPullCmd), 0); err != nil {
				return err
			}

			// The command lives either in an input's value or in element
			// text, depending on the page revision.
			const expr = `(() => {
				const byText = document.evaluate(
					"//*[contains(text(),'docker pull')]",
					document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
				if (byText) return byText.textContent;
				const byValue = document.querySelector("input[value*='docker pull']");
				return byValue ? byValue.value : "";
			})()`
			var command string
			if err := drv.Evaluate(ctx, expr, &command); err != nil {
				return err
			}
			if !strings.Contains(strings.ToLower(command), "docker pull nginx") {
				return fmt.Errorf("unexpected pull command %q", command)
			}
			return nil
		},
	}
}

// DocsNavigation follows the footer documentation link into its new window
// and verifies the coordinator hands the original window back.
func DocsNavigation(cfg *config.Config) Scenario {
	return Scenario{
		Name: "docs_navigation",
		Run: func(ctx context.Context, drv Driver) error {
			if err := drv.Navigate(ctx, cfg.Harness.BaseURL); err != nil {
				return err
			}
			if err := drv.ScrollToBottom(ctx); err != nil {
				return err
			}
			if err := drv.WaitFor(ctx, harness.ElementClickable(locDocsLink), 0); err != nil {
				return err
			}

			err := drv.WithNewWindow(ctx,
				func(c context.Context) error {
					return drv.Click(c, locDocsLink)
				},
				func(winCtx context.Context) error {
					return harness.Await(winCtx,
						harness.URLContains("docs.docker.com"),
						cfg.Harness.WaitTimeout, cfg.Harness.PollInterval)
				},
			)
			if err != nil {
				return err
			}

			// Exactly the original window remains open afterwards.
			return drv.WaitFor(ctx, harness.WindowCount(1), 0)
		},
	}
}
