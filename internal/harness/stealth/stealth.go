// File: internal/harness/stealth/stealth.go
package stealth

import (
	"context"
	_ "embed" // Required for the go:embed directive
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/journeyman/internal/config"
)

//go:embed evasions.js
var evasionsScript string

// Persona defines the identity the browser presents to fingerprinting
// scripts: an immutable profile applied atomically at session construction,
// before the first navigation.
type Persona struct {
	UserAgent     string   `json:"userAgent,omitempty"`
	Platform      string   `json:"platform"`
	Vendor        string   `json:"vendor"`
	Languages     []string `json:"languages"`
	WebGLVendor   string   `json:"webglVendor"`
	WebGLRenderer string   `json:"webglRenderer"`
	FixHairline   bool     `json:"fixHairline"`
}

// DefaultPersona matches a stock Chrome on a MacBook.
var DefaultPersona = Persona{
	Platform:      "MacIntel",
	Vendor:        "Google Inc.",
	Languages:     []string{"uk"},
	WebGLVendor:   "Intel Inc.",
	WebGLRenderer: "Intel Iris OpenGL Engine",
	FixHairline:   true,
}

// PersonaFromConfig builds a Persona from the stealth configuration
// section, falling back to DefaultPersona for unset fields.
func PersonaFromConfig(cfg config.StealthConfig) Persona {
	p := DefaultPersona
	if cfg.UserAgent != "" {
		p.UserAgent = cfg.UserAgent
	}
	if cfg.Platform != "" {
		p.Platform = cfg.Platform
	}
	if cfg.Vendor != "" {
		p.Vendor = cfg.Vendor
	}
	if len(cfg.Languages) > 0 {
		p.Languages = cfg.Languages
	}
	if cfg.WebGLVendor != "" {
		p.WebGLVendor = cfg.WebGLVendor
	}
	if cfg.WebGLRenderer != "" {
		p.WebGLRenderer = cfg.WebGLRenderer
	}
	p.FixHairline = cfg.FixHairline
	return p
}

// Apply orchestrates the stealth actions using chromedp.Tasks for
// sequential execution. Must run before the first navigation: the injected
// script only takes effect for documents created after registration.
func Apply(persona Persona, logger *zap.Logger) chromedp.Action {
	l := logger.Named("stealth")
	return chromedp.Tasks{
		network.Enable(),
		setAcceptLanguage(persona, l),
		setUserAgent(persona, l),
		injectEvasionScript(persona, l),

		chromedp.ActionFunc(func(ctx context.Context) error {
			l.Debug("Stealth profile applied",
				zap.String("platform", persona.Platform),
				zap.Strings("languages", persona.Languages))
			return nil
		}),
	}
}

// injectEvasionScript registers the JS evasion script, parameterized by the
// persona, to run on every new document before page scripts execute.
func injectEvasionScript(persona Persona, logger *zap.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		personaJSON, err := json.Marshal(persona)
		if err != nil {
			return fmt.Errorf("stealth: failed to marshal persona: %w", err)
		}

		scriptWithPersona := fmt.Sprintf(
			"const JOURNEYMAN_PERSONA = %s;\n%s",
			string(personaJSON),
			evasionsScript,
		)

		if _, err = page.AddScriptToEvaluateOnNewDocument(scriptWithPersona).Do(ctx); err != nil {
			logger.Error("Failed to register evasion script with CDP", zap.Error(err))
			return fmt.Errorf("stealth: failed to add script on new document: %w", err)
		}
		return nil
	})
}

// setUserAgent overrides the UA string and legacy navigator.platform when a
// user agent is part of the persona.
func setUserAgent(persona Persona, logger *zap.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if persona.UserAgent == "" {
			return nil
		}
		err := emulation.SetUserAgentOverride(persona.UserAgent).
			WithPlatform(persona.Platform).
			WithAcceptLanguage(strings.Join(persona.Languages, ",")).
			Do(ctx)
		if err != nil {
			logger.Error("Failed to set UserAgent override via CDP", zap.Error(err))
			return fmt.Errorf("stealth: failed to set user agent override: %w", err)
		}
		return nil
	})
}

// setAcceptLanguage configures a persistent Accept-Language header matching
// the persona's language list.
func setAcceptLanguage(persona Persona, logger *zap.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if len(persona.Languages) == 0 {
			return nil
		}
		headers := map[string]interface{}{"Accept-Language": acceptLanguage(persona.Languages)}
		if err := network.SetExtraHTTPHeaders(network.Headers(headers)).Do(ctx); err != nil {
			logger.Error("Failed to set extra HTTP headers via CDP", zap.Error(err))
			return fmt.Errorf("stealth: failed to set extra http headers: %w", err)
		}
		return nil
	})
}

// acceptLanguage renders the language list with descending q-values,
// floored at 0.7 the way real browsers do.
func acceptLanguage(languages []string) string {
	formatted := languages[0]
	for i := 1; i < len(languages); i++ {
		qValue := 1.0 - float64(i)*0.1
		if qValue < 0.7 {
			qValue = 0.7
		}
		formatted += fmt.Sprintf(",%s;q=%.1f", languages[i], qValue)
	}
	return formatted
}
