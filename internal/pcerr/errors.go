package pcerr

// Package pcerr defines the client's error taxonomy. Classification, not
// retry policy: nothing in the client retries automatically, callers decide
// what is recoverable (ErrSessionExpired always is, via a fresh login).

import (
	"errors"
	"fmt"
	"net/http"
)

// Shared sentinel errors.
var (
	// ErrSessionExpired signals that the upstream rejected the session's
	// authorization. The executor clears the csrf token before returning it.
	ErrSessionExpired = errors.New("login session expired")

	// ErrUnsupportedAuthMethod is returned when the configured challenge
	// method is not one the upstream supports. Checked before any network
	// call is made.
	ErrUnsupportedAuthMethod = errors.New("unsupported auth method")

	// ErrCacheMiss is returned by session stores when no usable record
	// exists: absent, unreadable, or written under a different schema
	// version. All three cases are deliberately indistinguishable.
	ErrCacheMiss = errors.New("no cached session")
)

// TransportError reports a response that never reached envelope parsing:
// a non-2xx status or a non-JSON body. It carries the status and headers
// for diagnosis of upstream outages and bot-blocking.
type TransportError struct {
	Status int
	Header http.Header
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream request failed: status %d, content-type %q", e.Status, e.Header.Get("Content-Type"))
}

// APIError reports an unsuccessful envelope that is not a session expiry.
// Generally not retried automatically.
type APIError struct {
	Code   int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api request failed: %s", e.Detail)
}

// AuthenticationError reports a hard failure during a login step (wrong
// credentials or challenge code). One wrong code ends the attempt; there is
// no retry loop.
type AuthenticationError struct {
	Step   string
	Detail string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("login failed at %s: %s", e.Step, e.Detail)
}

// ProtocolError signals that the upstream markup no longer matches the
// pattern used to recover the embedded anti-forgery token.
type ProtocolError struct {
	Pattern string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("embedded token pattern %q not found; upstream markup may have changed", e.Pattern)
}

// AutomationError reports that the browser-driven login could not locate an
// expected page element. ScreenshotPath points at a diagnostic capture when
// one could be taken.
type AutomationError struct {
	Locator        string
	ScreenshotPath string
	Err            error
}

func (e *AutomationError) Error() string {
	msg := fmt.Sprintf("browser login failed locating %q", e.Locator)
	if e.ScreenshotPath != "" {
		msg += fmt.Sprintf(" (screenshot: %s)", e.ScreenshotPath)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AutomationError) Unwrap() error { return e.Err }
