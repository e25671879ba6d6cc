package config

import "time"

// AppConfig is the main client configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Login and challenge configuration
//   - cache.go: Session cache configuration
//   - browser.go: Browser fallback configuration
type AppConfig struct {
	// RootURL is the upstream dashboard origin.
	RootURL string `env:"PC_ROOT_URL" envDefault:"https://home.personalcapital.com"`

	// UserAgent is sent on every request. The upstream blocks clients that
	// do not present a realistic browser identifier.
	UserAgent string `env:"PC_USER_AGENT" envDefault:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/98.0.4758.102 Safari/537.36"`

	// HTTPTimeout bounds each individual request. There is no retry layer;
	// a timeout surfaces as a transport error.
	HTTPTimeout time.Duration `env:"PC_HTTP_TIMEOUT" envDefault:"30s"`

	// Auth configuration
	Auth AuthConfig `envPrefix:"PC_AUTH_"`

	// Session cache configuration
	Cache CacheConfig `envPrefix:"PC_CACHE_"`

	// Browser fallback configuration
	Browser BrowserConfig `envPrefix:"PC_BROWSER_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment
// variables and before constructing a session.
func (c *AppConfig) Sanitize() {
	if c.RootURL == "" {
		c.RootURL = "https://home.personalcapital.com"
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	c.Auth.Sanitize()
	c.Browser.Sanitize()
}
