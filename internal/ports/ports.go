package ports

// Package ports defines interfaces (hexagonal ports) for the session's
// collaborators. Implementations live in internal/adapters; orchestration
// in internal/service.

import (
	"context"
	"errors"

	"github.com/openfintools/personalcapital/internal/domain/auth"
)

// SessionStore persists the authenticated session between process runs.
type SessionStore interface {
	// Load returns the cached record, or pcerr.ErrCacheMiss when the record
	// is absent, unreadable, or written under a different schema version.
	Load(ctx context.Context) (auth.CachedSession, error)

	// Save overwrites any prior record under the current schema version,
	// creating whatever directory structure the backend needs. Concurrent
	// writers race; last write wins.
	Save(ctx context.Context, sess auth.CachedSession) error
}

// CodeProvider supplies the one-time challenge code. Code blocks until the
// caller has obtained the code out of band; the authenticator imposes no
// timeout around it.
type CodeProvider interface {
	Code(ctx context.Context) (string, error)
}

// CodeFunc adapts a plain function to CodeProvider.
type CodeFunc func(ctx context.Context) (string, error)

// Code implements CodeProvider.
func (f CodeFunc) Code(ctx context.Context) (string, error) { return f(ctx) }

// ErrElementNotFound is returned by BrowserDriver lookups when the locator
// matches nothing yet. The login poller treats it as a normal transient
// outcome, not a failure.
var ErrElementNotFound = errors.New("element not found")

// BrowserDriver abstracts the automation backend used by the fallback login
// strategy. Locators are XPath expressions. Any conforming backend is
// substitutable.
type BrowserDriver interface {
	// Navigate loads the given URL in the driven browser.
	Navigate(ctx context.Context, url string) error

	// Click clicks the element matching the locator, or returns
	// ErrElementNotFound when it is not (yet) present.
	Click(ctx context.Context, locator string) error

	// Fill sets the value of the input matching the locator directly,
	// without synthesizing keystrokes.
	Fill(ctx context.Context, locator, value string) error

	// SendKeys types text into the element matching the locator.
	SendKeys(ctx context.Context, locator, text string) error

	// CurrentURL returns the page URL the browser is currently on.
	CurrentURL(ctx context.Context) (string, error)

	// PageSource returns the rendered HTML of the current page.
	PageSource(ctx context.Context) (string, error)

	// Cookies exports all browser cookies.
	Cookies(ctx context.Context) ([]auth.Cookie, error)

	// SetCookies imports cookies into the browser before navigation.
	SetCookies(ctx context.Context, cookies []auth.Cookie) error

	// Screenshot captures the current page as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close releases the browser.
	Close() error
}
