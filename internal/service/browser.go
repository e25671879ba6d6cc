package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/openfintools/personalcapital/config"
	"github.com/openfintools/personalcapital/internal/domain/auth"
	"github.com/openfintools/personalcapital/internal/pcerr"
	"github.com/openfintools/personalcapital/internal/ports"
	"github.com/openfintools/personalcapital/internal/transport"
)

// Page locators for the upstream login form. XPath, matching the markup the
// upstream serves to browsers.
const (
	locEmailInput     = `//*[@id="form-email"]//input[@name="username"]`
	locContinueButton = `//button[@name="continue"]`

	locChallengeSMSButton   = `//button[@value="challengeSMS"]`
	locChallengeEmailButton = `//button[@value="challengeEmail"]`

	locSMSCodeInput    = `//form[@id="form-challengeResponse-sms"]//input[@name="code"]`
	locSMSCodeSubmit   = `//form[@id="form-challengeResponse-sms"]//button[@type="submit"]`
	locEmailCodeInput  = `//form[@id="form-challengeResponse-email"]//input[@name="code"]`
	locEmailCodeSubmit = `//form[@id="form-challengeResponse-email"]//button[@type="submit"]`

	locPasswordInput = `//form[@id="form-password"]//input[@name="passwd"]`
	locSignInButton  = `//form[@id="form-password"]//button[@name="sign-in"]`
)

// dashboardSuffix marks a successful login by URL shape.
const dashboardSuffix = "dashboard"

// BrowserLoginOptions groups the fallback strategy's collaborators.
type BrowserLoginOptions struct {
	Driver    ports.BrowserDriver
	Transport *transport.Transport
	Executor  *Executor
	Context   *auth.Context
	Store     ports.SessionStore
	Codes     ports.CodeProvider
	Method    config.AuthMethod
	Browser   config.BrowserConfig
	Logger    *slog.Logger
}

// BrowserLogin drives a real browser through the same logical login steps
// as the direct API strategy. It exists for the cases where the API flow is
// blocked (new bot countermeasures, markup-only challenges); both
// strategies end with the same postcondition.
type BrowserLogin struct {
	driver    ports.BrowserDriver
	transport *transport.Transport
	executor  *Executor
	authz     *auth.Context
	store     ports.SessionStore
	codes     ports.CodeProvider
	method    config.AuthMethod
	policy    pollPolicy
	shotDir   string
	logger    *slog.Logger
}

// NewBrowserLogin builds the fallback strategy.
func NewBrowserLogin(opts BrowserLoginOptions) *BrowserLogin {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserLogin{
		driver:    opts.Driver,
		transport: opts.Transport,
		executor:  opts.Executor,
		authz:     opts.Context,
		store:     opts.Store,
		codes:     opts.Codes,
		method:    opts.Method,
		policy: pollPolicy{
			Attempts: opts.Browser.PollAttempts,
			Interval: opts.Browser.PollInterval,
			FailFast: opts.Browser.FailFastProbes,
		},
		shotDir: opts.Browser.ScreenshotDir,
		logger:  logger,
	}
}

// Login executes the browser-driven sequence: identity, optional SMS/email
// challenge, password, success detection by URL, then token scrape and
// cookie handoff to the shared transport.
func (b *BrowserLogin) Login(ctx context.Context, creds Credentials) error {
	if !b.method.Valid() {
		return fmt.Errorf("auth method %q: %w", b.method, pcerr.ErrUnsupportedAuthMethod)
	}

	if err := b.driver.Navigate(ctx, b.transport.RootURL()); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	// Seed whatever remembered-device cookies the transport already holds
	// so a cached device skips the challenge in the browser too.
	if cookies := b.transport.Cookies(); len(cookies) > 0 {
		if err := b.driver.SetCookies(ctx, cookies); err != nil {
			return fmt.Errorf("seed browser cookies: %w", err)
		}
	}

	b.logger.InfoContext(ctx, "waiting for login page")
	if err := b.waitFill(ctx, locEmailInput, creds.Email); err != nil {
		return err
	}
	if err := b.waitClick(ctx, locContinueButton); err != nil {
		return err
	}

	b.authz.ClearCsrf()
	b.logger.InfoContext(ctx, "logging in")
	for attempt := 0; attempt < b.policy.Attempts && !b.authz.Authenticated(); attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, b.policy.Interval); err != nil {
				return err
			}
		}
		b.logger.DebugContext(ctx, "login loop", "attempt", attempt)

		if err := b.tryChallenge(ctx); err != nil {
			return err
		}
		if err := b.tryPassword(ctx, creds.Password); err != nil {
			return err
		}
		if err := b.tryDetectSuccess(ctx); err != nil {
			return err
		}
	}

	if !b.authz.Authenticated() {
		return b.automationErr(ctx, dashboardSuffix, errors.New("login never reached the dashboard"))
	}
	b.authz.Email = creds.Email

	cookies, err := b.driver.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("export browser cookies: %w", err)
	}
	if err := b.transport.SetCookies(cookies); err != nil {
		return err
	}
	if b.store != nil {
		rec := auth.CachedSession{Cookies: cookies, Email: b.authz.Email}
		if err := b.store.Save(ctx, rec); err != nil {
			return fmt.Errorf("cache session: %w", err)
		}
	}

	// Same post-login refresh as the API strategy: the server change
	// identifier must be echoed on subsequent requests.
	env, err := b.executor.ExecuteEnvelope(ctx, http.MethodPost, pathQuerySession, nil)
	if err != nil {
		return fmt.Errorf("session refresh: %w", err)
	}
	if env.SPHeader.Version != nil {
		b.authz.LastServerChangeID = *env.SPHeader.Version
	}

	b.logger.InfoContext(ctx, "browser login complete", "email", b.authz.Email)
	return nil
}

// tryChallenge performs one pass of the multi-factor leg: when the
// challenge button is present, request the code, obtain it from the
// provider, and submit it. A missing button is a normal transient outcome:
// remembered devices never show one.
func (b *BrowserLogin) tryChallenge(ctx context.Context) error {
	button, codeInput, codeSubmit := locChallengeSMSButton, locSMSCodeInput, locSMSCodeSubmit
	if b.method == config.AuthMethodEmail {
		button, codeInput, codeSubmit = locChallengeEmailButton, locEmailCodeInput, locEmailCodeSubmit
	}

	if err := b.driver.Click(ctx, button); err != nil {
		return b.tolerate(ctx, button, err)
	}

	b.logger.InfoContext(ctx, "waiting for challenge code")
	code, err := b.codes.Code(ctx)
	if err != nil {
		return fmt.Errorf("obtain challenge code: %w", err)
	}

	if err := b.waitSendKeys(ctx, codeInput, code); err != nil {
		return err
	}
	if err := b.waitClick(ctx, codeSubmit); err != nil {
		return err
	}
	return sleep(ctx, b.policy.Interval)
}

// tryPassword performs one pass of the password leg. The password form is
// only present once the challenge (if any) has been passed.
func (b *BrowserLogin) tryPassword(ctx context.Context, password string) error {
	if err := b.driver.Fill(ctx, locPasswordInput, password); err != nil {
		return b.tolerate(ctx, locPasswordInput, err)
	}
	if err := b.waitClick(ctx, locSignInButton); err != nil {
		return err
	}
	return sleep(ctx, b.policy.Interval)
}

// tryDetectSuccess checks whether the browser landed on the dashboard and,
// if so, scrapes the embedded token from the rendered page.
func (b *BrowserLogin) tryDetectSuccess(ctx context.Context) error {
	current, err := b.driver.CurrentURL(ctx)
	if err != nil {
		return b.tolerate(ctx, "current url", err)
	}
	if !strings.HasSuffix(strings.TrimSuffix(current, "/"), dashboardSuffix) {
		return nil
	}

	html, err := b.driver.PageSource(ctx)
	if err != nil {
		return b.tolerate(ctx, "page source", err)
	}
	token, err := ExtractEmbeddedToken(html)
	if err != nil {
		// Dashboard URL without a scrapeable token: upstream markup
		// changed, not a transient condition.
		return err
	}
	b.authz.Csrf = token
	return nil
}

// waitClick polls for the element and clicks it, failing with an
// AutomationError once the attempt budget is exhausted.
func (b *BrowserLogin) waitClick(ctx context.Context, locator string) error {
	return b.wait(ctx, locator, func(ctx context.Context) error {
		return b.driver.Click(ctx, locator)
	})
}

// waitFill polls for the element and sets its value.
func (b *BrowserLogin) waitFill(ctx context.Context, locator, value string) error {
	return b.wait(ctx, locator, func(ctx context.Context) error {
		return b.driver.Fill(ctx, locator, value)
	})
}

// waitSendKeys polls for the element and types into it.
func (b *BrowserLogin) waitSendKeys(ctx context.Context, locator, text string) error {
	return b.wait(ctx, locator, func(ctx context.Context) error {
		return b.driver.SendKeys(ctx, locator, text)
	})
}

func (b *BrowserLogin) wait(ctx context.Context, locator string, probe func(context.Context) error) error {
	err := b.policy.poll(ctx, probe)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return b.automationErr(ctx, locator, err)
}

// tolerate applies the configured transient-failure policy to a single
// probe: under FailFastProbes anything but "element not present" is fatal,
// otherwise every probe failure is treated like a miss and the loop moves on.
func (b *BrowserLogin) tolerate(ctx context.Context, what string, err error) error {
	if errors.Is(err, ports.ErrElementNotFound) {
		return nil
	}
	if b.policy.FailFast {
		return b.automationErr(ctx, what, err)
	}
	b.logger.DebugContext(ctx, "tolerating probe failure", "probe", what, "error", err)
	return nil
}

// automationErr captures a diagnostic screenshot (best effort) and wraps
// the cause as an AutomationError.
func (b *BrowserLogin) automationErr(ctx context.Context, locator string, cause error) error {
	path := b.screenshot(ctx)
	return &pcerr.AutomationError{Locator: locator, ScreenshotPath: path, Err: cause}
}

func (b *BrowserLogin) screenshot(ctx context.Context) string {
	data, err := b.driver.Screenshot(ctx)
	if err != nil {
		b.logger.DebugContext(ctx, "screenshot capture failed", "error", err)
		return ""
	}
	path := filepath.Join(b.shotDir, "pcdash-login-"+uuid.NewString()+".png")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		b.logger.DebugContext(ctx, "screenshot write failed", "path", path, "error", err)
		return ""
	}
	b.logger.InfoContext(ctx, "captured diagnostic screenshot", "path", path)
	return path
}
