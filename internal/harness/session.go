// File: internal/harness/session.go
package harness

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/journeyman/internal/config"
	"github.com/xkilldash9x/journeyman/internal/harness/stealth"
)

// closeWaitCap bounds how long Close waits for a wedged browser process.
const closeWaitCap = 10 * time.Second

// Session owns one browser process for the duration of one scenario. It is
// created in scenario setup, used strictly sequentially, and torn down
// unconditionally afterwards. Operations execute in the order issued; the
// harness never reorders or parallelizes interactions within a session.
type Session struct {
	id      string
	logger  *zap.Logger
	harness config.HarnessConfig

	// allocCtx manages the browser process; ctx is the original tab, which
	// is always the active context between interactions.
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	closed bool
	mu     sync.Mutex
}

// NewSession launches a browser with the anti-detection posture applied
// before any page script can execute, and navigates it to the configured
// base URL. A failure here is a *StartupError: an environment problem,
// never retried.
func NewSession(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	id := uuid.New().String()
	s := &Session{
		id:      id,
		logger:  logger.Named("session").With(zap.String("session_id", id[:8])),
		harness: cfg.Harness,
	}

	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(ctx, buildAllocatorOptions(cfg)...)
	s.ctx, s.cancel = chromedp.NewContext(s.allocCtx)

	persona := stealth.PersonaFromConfig(cfg.Stealth)

	// The stealth overrides must land before the first navigation;
	// fingerprinting scripts run on page load and would otherwise observe
	// the unmodified environment.
	navCtx, cancelNav := context.WithTimeout(s.ctx, cfg.Harness.NavigationTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx,
		stealth.Apply(persona, s.logger),
		chromedp.Navigate(cfg.Harness.BaseURL),
	); err != nil {
		s.teardown()
		return nil, &StartupError{Err: err}
	}

	s.logger.Info("Browser session ready", zap.String("base_url", cfg.Harness.BaseURL))
	return s, nil
}

// buildAllocatorOptions assembles the browser launch flags, suppressing the
// ones that advertise automation.
func buildAllocatorOptions(cfg *config.Config) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	opts = append(opts,
		chromedp.Flag("headless", cfg.Browser.Headless),
		chromedp.Flag("disable-gpu", cfg.Browser.Headless),
		chromedp.Flag("ignore-certificate-errors", cfg.Browser.IgnoreTLSErrors),
		chromedp.Flag("disable-extensions", true),
		chromedp.WindowSize(cfg.Browser.WindowWidth, cfg.Browser.WindowHeight),
	)

	if cfg.Browser.DisableAutomationFlags {
		// Chrome advertises itself through --enable-automation (infobar and
		// navigator.webdriver); both have to be gone before first paint.
		opts = append(opts,
			chromedp.Flag("enable-automation", false),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
		)
	}

	// Custom arguments from the config file, "--flag" or "--flag=value".
	for _, arg := range cfg.Browser.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(name, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	// Flags required for running inside containers (e.g. Docker on Linux).
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
	}

	return opts
}

// ID returns the unique identifier for this session.
func (s *Session) ID() string { return s.id }

// Context returns the chromedp context of the original tab, for condition
// evaluation and advanced CDP operations.
func (s *Session) Context() context.Context { return s.ctx }

// Navigate loads a URL in the active tab and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Debug("Navigating", zap.String("url", url))
	navCtx, cancel := context.WithTimeout(s.ctx, s.harness.NavigationTimeout)
	defer cancel()
	return chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// CurrentURL returns the document URL of the active tab.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return location(s.ctx)
}

// WaitFor blocks until cond holds, bounded by timeout. A non-positive
// timeout selects the configured default.
func (s *Session) WaitFor(ctx context.Context, cond Condition, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = s.harness.WaitTimeout
	}
	return Await(s.ctx, cond, timeout, s.harness.PollInterval)
}

// Evaluate runs a JavaScript expression in the active tab, unmarshaling the
// result into out (which may be nil to discard it).
func (s *Session) Evaluate(ctx context.Context, expr string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(s.ctx, chromedp.Evaluate(expr, out))
}

// Text returns the rendered text of the first element the locator matches.
func (s *Session) Text(ctx context.Context, loc Locator) (string, error) {
	var text string
	expr := fmt.Sprintf(`(() => { const el = %s; return el ? el.innerText : ""; })()`, loc.jsLookup())
	if err := s.Evaluate(ctx, expr, &text); err != nil {
		return "", err
	}
	return text, nil
}

// ScrollToBottom scrolls the active tab to the end of the document, pulling
// lazily-rendered footers into the viewport.
func (s *Session) ScrollToBottom(ctx context.Context) error {
	return s.Evaluate(ctx, `window.scrollTo(0, document.body.scrollHeight)`, nil)
}

// Close terminates the tab and the browser process, releasing all OS
// resources. Safe to call more than once; later calls are no-ops.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.teardown()

	// Wait for the process to actually go away, bounded by the caller's
	// deadline and a hard cap, so a wedged browser cannot leak past the
	// scenario.
	waitCtx, cancel := context.WithTimeout(ctx, closeWaitCap)
	defer cancel()
	select {
	case <-s.ctx.Done():
		s.logger.Debug("Browser session closed")
	case <-waitCtx.Done():
		s.logger.Warn("Deadline exceeded waiting for browser shutdown", zap.Error(waitCtx.Err()))
	}
	return nil
}

func (s *Session) teardown() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}
