package auth

// Package auth contains domain-level types for the dashboard session.
// It is pure and free of transport/adapter concerns.

import (
	"net/http"
	"time"
)

// CacheVersion tags the persisted session record schema. Bump it whenever the
// cookie or field set changes; a record carrying any other version is read
// back as a cache miss, never partially trusted.
const CacheVersion = 1

// AuthLevel is the authentication level reported by the identify endpoint.
// Keep string form to match the wire value exactly.
type AuthLevel string

const (
	// LevelUserRemembered means the device is already trusted and the
	// challenge steps can be skipped.
	LevelUserRemembered AuthLevel = "USER_REMEMBERED"
	// LevelUserIdentified means the username was accepted but a challenge
	// is still required.
	LevelUserIdentified AuthLevel = "USER_IDENTIFIED"
	// LevelSessionAuthenticated means the session is fully authenticated.
	LevelSessionAuthenticated AuthLevel = "SESSION_AUTHENTICATED"
)

// Remembered reports whether the level allows skipping the challenge.
func (l AuthLevel) Remembered() bool { return l == LevelUserRemembered }

// Context is the authorization state shared by the authenticator and the
// request executor. One Context belongs to exactly one session and is not
// safe for concurrent use.
type Context struct {
	// Csrf is the anti-forgery token attached to every authorized request.
	// Empty means the session is not authenticated.
	Csrf string

	// LastServerChangeID is the server version token echoed back on
	// requests after authentication. -1 until the first session refresh.
	LastServerChangeID int

	// Email is the identity the session was authenticated as.
	Email string
}

// NewContext returns an empty, unauthenticated context.
func NewContext() *Context {
	return &Context{LastServerChangeID: -1}
}

// Authenticated reports whether the context holds a csrf token.
func (c *Context) Authenticated() bool { return c.Csrf != "" }

// ClearCsrf drops the token. The executor calls this when the upstream
// signals session expiry so callers know to re-authenticate.
func (c *Context) ClearCsrf() { c.Csrf = "" }

// Cookie is the serializable subset of a session cookie. Attributes the
// upstream does not need back (httpOnly, sameSite) are dropped on purpose.
type Cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Domain  string    `json:"domain,omitempty"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitzero"`
	Secure  bool      `json:"secure,omitempty"`
}

// HTTP converts the record to a net/http cookie.
func (c Cookie) HTTP() *http.Cookie {
	return &http.Cookie{
		Name:    c.Name,
		Value:   c.Value,
		Domain:  c.Domain,
		Path:    c.Path,
		Expires: c.Expires,
		Secure:  c.Secure,
	}
}

// FromHTTP converts a net/http cookie to the serializable record.
func FromHTTP(c *http.Cookie) Cookie {
	return Cookie{
		Name:    c.Name,
		Value:   c.Value,
		Domain:  c.Domain,
		Path:    c.Path,
		Expires: c.Expires,
		Secure:  c.Secure,
	}
}

// CachedSession is the record persisted between process runs so a
// remembered device can skip multi-factor verification.
type CachedSession struct {
	Version int      `json:"version"`
	Cookies []Cookie `json:"cookies"`
	Email   string   `json:"email,omitempty"`
}
