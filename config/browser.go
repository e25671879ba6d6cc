package config

import (
	"os"
	"time"
)

// BrowserConfig controls the browser-driven fallback login. The polling
// loop (attempts × interval) is the only timeout mechanism the fallback
// has; an in-progress login cannot otherwise be aborted.
type BrowserConfig struct {
	// Headless runs the browser without a window. Turn off to watch the
	// login happen when debugging.
	Headless bool `env:"HEADLESS" envDefault:"true"`

	// PollAttempts is the number of passes the login loop makes over the
	// challenge/password/success probes.
	PollAttempts int `env:"POLL_ATTEMPTS" envDefault:"10"`

	// PollInterval is the sleep between passes.
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`

	// FailFastProbes makes a probe error (anything other than "element not
	// present") fatal instead of tolerated like a miss. The original
	// behavior tolerates them for the full attempt budget.
	FailFastProbes bool `env:"FAIL_FAST_PROBES" envDefault:"false"`

	// ScreenshotDir is where diagnostic screenshots are written when a
	// required element cannot be found.
	ScreenshotDir string `env:"SCREENSHOT_DIR"`
}

// Sanitize applies guardrails to browser configuration.
func (c *BrowserConfig) Sanitize() {
	if c.PollAttempts < 1 {
		c.PollAttempts = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = os.TempDir()
	}
}
