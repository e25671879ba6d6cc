// Package browser contains a simple hand-written test double for the
// browser driver port. It models just enough of the login page state
// machine to exercise the fallback login flow without a real browser.
package browser

import (
	"context"
	"fmt"

	"github.com/openfintools/personalcapital/internal/domain/auth"
	"github.com/openfintools/personalcapital/internal/ports"
)

// Compile-time conformance to the port.
var _ ports.BrowserDriver = (*ScriptedDriver)(nil)

// Locators the double recognizes, matching the login page markup.
const (
	locEmail         = `//*[@id="form-email"]//input[@name="username"]`
	locContinue      = `//button[@name="continue"]`
	locChallengeSMS  = `//button[@value="challengeSMS"]`
	locChallengeMail = `//button[@value="challengeEmail"]`
	locCodeSMS       = `//form[@id="form-challengeResponse-sms"]//input[@name="code"]`
	locCodeSMSSubmit = `//form[@id="form-challengeResponse-sms"]//button[@type="submit"]`
	locCodeMail      = `//form[@id="form-challengeResponse-email"]//input[@name="code"]`
	locCodeMailSend  = `//form[@id="form-challengeResponse-email"]//button[@type="submit"]`
	locPassword      = `//form[@id="form-password"]//input[@name="passwd"]`
	locSignIn        = `//form[@id="form-password"]//button[@name="sign-in"]`
)

// ScriptedDriver walks a scripted login page: email form, optional
// challenge form, password form, then the dashboard. Elements "appear"
// as the script advances; anything not currently on the page reports
// ports.ErrElementNotFound, exactly like a real driver probing the DOM.
type ScriptedDriver struct {
	// RequireChallenge controls whether the challenge form is part of the
	// script. False models a remembered device.
	RequireChallenge bool

	// DashboardURL is the URL reported once sign-in completes.
	DashboardURL string

	// DashboardHTML is the page source served on the dashboard.
	DashboardHTML string

	// SessionCookies are exported by Cookies after sign-in.
	SessionCookies []auth.Cookie

	// Broken, when set, makes every element lookup miss. It simulates an
	// upstream markup change.
	Broken bool

	// ScreenshotData is returned by Screenshot.
	ScreenshotData []byte

	// Calls records every driver call in order, as "Method locator".
	Calls []string

	// Imported records cookies passed to SetCookies.
	Imported []auth.Cookie

	Closed bool

	navigated   bool
	emailDone   bool
	challenged  bool
	codeEntered bool
	codeOK      bool
	passwordSet bool
	signedIn    bool

	// EnteredCode is the last code typed into the challenge input.
	EnteredCode string
}

// NewScriptedDriver returns a driver scripted for a challenge-free login.
func NewScriptedDriver() *ScriptedDriver {
	return &ScriptedDriver{
		DashboardURL:   "https://upstream.example/page/login/dashboard",
		DashboardHTML:  "<html><script>window.csrf = 'deadbeef-0000-1111-2222-333344445555';</script></html>",
		ScreenshotData: []byte("\x89PNG\r\n\x1a\n"),
	}
}

func (d *ScriptedDriver) record(method, target string) {
	d.Calls = append(d.Calls, method+" "+target)
}

// Navigate implements ports.BrowserDriver.
func (d *ScriptedDriver) Navigate(ctx context.Context, url string) error {
	d.record("Navigate", url)
	d.navigated = true
	return nil
}

// Click implements ports.BrowserDriver.
func (d *ScriptedDriver) Click(ctx context.Context, locator string) error {
	d.record("Click", locator)
	if d.Broken || !d.navigated {
		return ports.ErrElementNotFound
	}
	switch locator {
	case locContinue:
		if !d.emailDone {
			return ports.ErrElementNotFound
		}
		return nil
	case locChallengeSMS, locChallengeMail:
		if !d.RequireChallenge || !d.emailDone || d.challenged {
			return ports.ErrElementNotFound
		}
		d.challenged = true
		return nil
	case locCodeSMSSubmit, locCodeMailSend:
		if !d.codeEntered {
			return ports.ErrElementNotFound
		}
		d.codeOK = true
		return nil
	case locSignIn:
		if !d.passwordSet {
			return ports.ErrElementNotFound
		}
		d.signedIn = true
		return nil
	}
	return fmt.Errorf("unscripted click %q: %w", locator, ports.ErrElementNotFound)
}

// Fill implements ports.BrowserDriver.
func (d *ScriptedDriver) Fill(ctx context.Context, locator, value string) error {
	d.record("Fill", locator)
	if d.Broken || !d.navigated {
		return ports.ErrElementNotFound
	}
	switch locator {
	case locEmail:
		d.emailDone = true
		return nil
	case locPassword:
		// The password form only renders once the challenge leg is done
		// (or was never required).
		if d.RequireChallenge && !d.codeOK {
			return ports.ErrElementNotFound
		}
		if !d.emailDone {
			return ports.ErrElementNotFound
		}
		d.passwordSet = true
		return nil
	}
	return fmt.Errorf("unscripted fill %q: %w", locator, ports.ErrElementNotFound)
}

// SendKeys implements ports.BrowserDriver.
func (d *ScriptedDriver) SendKeys(ctx context.Context, locator, text string) error {
	d.record("SendKeys", locator)
	if d.Broken {
		return ports.ErrElementNotFound
	}
	switch locator {
	case locCodeSMS, locCodeMail:
		if !d.challenged {
			return ports.ErrElementNotFound
		}
		d.codeEntered = true
		d.EnteredCode = text
		return nil
	}
	return fmt.Errorf("unscripted sendkeys %q: %w", locator, ports.ErrElementNotFound)
}

// CurrentURL implements ports.BrowserDriver.
func (d *ScriptedDriver) CurrentURL(ctx context.Context) (string, error) {
	d.record("CurrentURL", "")
	if d.signedIn {
		return d.DashboardURL, nil
	}
	return "https://upstream.example/page/login", nil
}

// PageSource implements ports.BrowserDriver.
func (d *ScriptedDriver) PageSource(ctx context.Context) (string, error) {
	d.record("PageSource", "")
	return d.DashboardHTML, nil
}

// Cookies implements ports.BrowserDriver.
func (d *ScriptedDriver) Cookies(ctx context.Context) ([]auth.Cookie, error) {
	d.record("Cookies", "")
	return d.SessionCookies, nil
}

// SetCookies implements ports.BrowserDriver.
func (d *ScriptedDriver) SetCookies(ctx context.Context, cookies []auth.Cookie) error {
	d.record("SetCookies", "")
	d.Imported = append(d.Imported, cookies...)
	return nil
}

// Screenshot implements ports.BrowserDriver.
func (d *ScriptedDriver) Screenshot(ctx context.Context) ([]byte, error) {
	d.record("Screenshot", "")
	return d.ScreenshotData, nil
}

// Close implements ports.BrowserDriver.
func (d *ScriptedDriver) Close() error {
	d.Closed = true
	return nil
}
