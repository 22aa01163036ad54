// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire harness configuration.
type Config struct {
	Logger      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	Browser     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	Harness     HarnessConfig     `mapstructure:"harness" yaml:"harness"`
	Stealth     StealthConfig     `mapstructure:"stealth" yaml:"stealth"`
	Credentials CredentialsConfig `mapstructure:"credentials" yaml:"-"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds launch settings for the driven browser instance.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// DisableAutomationFlags strips the launch flags that advertise the
	// browser as automated (the --enable-automation infobar and the Blink
	// AutomationControlled feature behind navigator.webdriver).
	DisableAutomationFlags bool     `mapstructure:"disable_automation_flags" yaml:"disable_automation_flags"`
	IgnoreTLSErrors        bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	WindowWidth            int      `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight           int      `mapstructure:"window_height" yaml:"window_height"`
	Args                   []string `mapstructure:"args" yaml:"args"`
}

// HarnessConfig tunes the synchronization engine.
type HarnessConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// WaitTimeout is the ceiling for every bounded wait. Timing under a
	// client-rendered SPA is non-deterministic, so waits poll up to this
	// limit instead of sleeping a fixed delay.
	WaitTimeout  time.Duration `mapstructure:"wait_timeout" yaml:"wait_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// SettleDelay is the pause before the single interaction retry.
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	// InteractionTimeout bounds one click/clear/type attempt.
	InteractionTimeout time.Duration `mapstructure:"interaction_timeout" yaml:"interaction_timeout"`
	NavigationTimeout  time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// StealthConfig defines the spoofed identity presented to fingerprinting
// scripts on the target application.
type StealthConfig struct {
	UserAgent     string   `mapstructure:"user_agent" yaml:"user_agent"`
	Platform      string   `mapstructure:"platform" yaml:"platform"`
	Vendor        string   `mapstructure:"vendor" yaml:"vendor"`
	Languages     []string `mapstructure:"languages" yaml:"languages"`
	WebGLVendor   string   `mapstructure:"webgl_vendor" yaml:"webgl_vendor"`
	WebGLRenderer string   `mapstructure:"webgl_renderer" yaml:"webgl_renderer"`
	FixHairline   bool     `mapstructure:"fix_hairline" yaml:"fix_hairline"`
}

// CredentialsConfig carries the login credentials for the authentication
// journey. Populated from the environment, never from the config file.
type CredentialsConfig struct {
	Username string `mapstructure:"username" yaml:"-"`
	Password string `mapstructure:"password" yaml:"-"`
}

// HasCredentials reports whether both credential values are present. When
// either is missing the authentication scenario is skipped, not failed.
func (c CredentialsConfig) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "journeyman")
	v.SetDefault("logger.log_file", "journeyman.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_automation_flags", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)

	// -- Harness --
	v.SetDefault("harness.base_url", "https://hub.docker.com")
	v.SetDefault("harness.wait_timeout", "25s")
	v.SetDefault("harness.poll_interval", "250ms")
	v.SetDefault("harness.settle_delay", "300ms")
	v.SetDefault("harness.interaction_timeout", "10s")
	v.SetDefault("harness.navigation_timeout", "60s")

	// -- Stealth --
	v.SetDefault("stealth.platform", "MacIntel")
	v.SetDefault("stealth.vendor", "Google Inc.")
	v.SetDefault("stealth.languages", []string{"uk"})
	v.SetDefault("stealth.webgl_vendor", "Intel Inc.")
	v.SetDefault("stealth.webgl_renderer", "Intel Iris OpenGL Engine")
	v.SetDefault("stealth.fix_hairline", true)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Credentials come from the environment only; absence is a skip, not an
	// error, so they bypass Validate.
	v.BindEnv("credentials.username", "DOCKER_USER")
	v.BindEnv("credentials.password", "DOCKER_PASS")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Harness.BaseURL == "" {
		return fmt.Errorf("harness.base_url is a required configuration field")
	}
	if !strings.HasPrefix(c.Harness.BaseURL, "http://") && !strings.HasPrefix(c.Harness.BaseURL, "https://") {
		return fmt.Errorf("harness.base_url must include an http(s) scheme")
	}
	if c.Harness.WaitTimeout <= 0 {
		return fmt.Errorf("harness.wait_timeout must be a positive duration")
	}
	if c.Harness.PollInterval <= 0 {
		return fmt.Errorf("harness.poll_interval must be a positive duration")
	}
	if c.Harness.PollInterval >= c.Harness.WaitTimeout {
		return fmt.Errorf("harness.poll_interval must be shorter than harness.wait_timeout")
	}
	if c.Harness.SettleDelay < 0 {
		return fmt.Errorf("harness.settle_delay must not be negative")
	}
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must be positive")
	}
	return nil
}
