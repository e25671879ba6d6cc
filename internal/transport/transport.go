package transport

// Package transport holds the long-lived HTTP context shared by every
// upstream call: one cookie jar and a fixed set of default headers. It does
// no retrying and no backoff; a transport failure propagates immediately.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/openfintools/personalcapital/internal/domain/auth"
)

// Options configures a Transport. Callers should pass a sanitized config.
type Options struct {
	RootURL   string
	UserAgent string
	Timeout   time.Duration

	// Client is optional; when nil a client with Timeout is built. The
	// client's jar is always replaced with the transport's own.
	Client *http.Client

	Logger *slog.Logger
}

// Transport is the session-scoped HTTP client. Not safe for concurrent use;
// the design assumes one logical session per actor.
type Transport struct {
	root      *url.URL
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// New builds a Transport with a publicsuffix-aware cookie jar and the fixed
// default headers the upstream requires.
func New(opts Options) (*Transport, error) {
	if opts.RootURL == "" {
		return nil, errors.New("root URL is required")
	}
	root, err := url.Parse(opts.RootURL)
	if err != nil {
		return nil, fmt.Errorf("parse root URL: %w", err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("build cookie jar: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	client.Jar = jar

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.UserAgent == "" {
		// The zero value would let net/http advertise Go-http-client,
		// which the upstream blocks as a bot.
		return nil, errors.New("user agent is required")
	}

	return &Transport{
		root:      root,
		client:    client,
		userAgent: opts.UserAgent,
		logger:    logger,
	}, nil
}

// RootURL returns the upstream origin this transport talks to.
func (t *Transport) RootURL() string { return t.root.String() }

// Do issues a single request against the upstream. Form fields are sent
// urlencoded in the body for non-GET methods and as the query string for
// GET. The response body is the caller's to close.
func (t *Transport) Do(ctx context.Context, method, path string, form url.Values) (*http.Response, error) {
	u := t.root.JoinPath(strings.TrimPrefix(path, "/"))

	var body *strings.Reader
	if method == http.MethodGet {
		if form != nil {
			u.RawQuery = form.Encode()
		}
		body = strings.NewReader("")
	} else {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "*/*")
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	t.logger.DebugContext(ctx, "upstream request", "method", method, "path", path)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// SetCookies replaces the jar contents wholesale. Used when hydrating from
// the session cache or from a browser-driven login.
func (t *Transport) SetCookies(cookies []auth.Cookie) error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("build cookie jar: %w", err)
	}
	httpCookies := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		httpCookies = append(httpCookies, c.HTTP())
	}
	jar.SetCookies(t.root, httpCookies)
	t.client.Jar = jar
	return nil
}

// Cookies exports the cookies the jar would send to the upstream origin.
func (t *Transport) Cookies() []auth.Cookie {
	httpCookies := t.client.Jar.Cookies(t.root)
	cookies := make([]auth.Cookie, 0, len(httpCookies))
	for _, c := range httpCookies {
		cookies = append(cookies, auth.FromHTTP(c))
	}
	return cookies
}
