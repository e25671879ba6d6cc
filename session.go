package personalcapital

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/openfintools/personalcapital/config"
	"github.com/openfintools/personalcapital/internal/adapters/chromedriver"
	"github.com/openfintools/personalcapital/internal/bootstrap"
	"github.com/openfintools/personalcapital/internal/domain/auth"
	"github.com/openfintools/personalcapital/internal/pcerr"
	"github.com/openfintools/personalcapital/internal/ports"
	"github.com/openfintools/personalcapital/internal/service"
	"github.com/openfintools/personalcapital/internal/transport"
)

// Credentials identify the user to log in as.
type Credentials struct {
	Email    string
	Password string
}

// Cookie is one browser cookie of the authenticated session.
type Cookie = auth.Cookie

// SessionStore persists the authenticated session between process runs.
type SessionStore = ports.SessionStore

// BrowserDriver abstracts the automation backend used by LoginWithBrowser.
type BrowserDriver = ports.BrowserDriver

// CodeProvider supplies the one-time challenge code during login. Code
// blocks until the code has been obtained out of band.
type CodeProvider interface {
	Code(ctx context.Context) (string, error)
}

// CodeFunc adapts a plain function to CodeProvider.
type CodeFunc func(ctx context.Context) (string, error)

// Code implements CodeProvider.
func (f CodeFunc) Code(ctx context.Context) (string, error) { return f(ctx) }

// LoadConfig loads configuration from environment variables, honoring a
// .env file when one is present.
func LoadConfig() (config.AppConfig, error) {
	return bootstrap.LoadConfig()
}

type options struct {
	logger *slog.Logger
	client *http.Client
	store  ports.SessionStore
	codes  ports.CodeProvider
	driver ports.BrowserDriver
}

// Option customizes a Session at construction time.
type Option func(*options)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithHTTPClient substitutes the underlying HTTP client. The client's
// cookie jar is replaced with the session's own.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.client = client }
}

// WithSessionStore overrides the configured session store backend.
func WithSessionStore(store SessionStore) Option {
	return func(o *options) { o.store = store }
}

// WithCodeProvider overrides where the one-time challenge code comes from.
// Without it, a configured TOTP secret is used when present, otherwise the
// code is read interactively from standard input.
func WithCodeProvider(p CodeProvider) Option {
	return func(o *options) { o.codes = p }
}

// WithBrowserDriver injects the browser used by LoginWithBrowser instead of
// launching one.
func WithBrowserDriver(d BrowserDriver) Option {
	return func(o *options) { o.driver = d }
}

// Session owns one authenticated relationship with the upstream: the shared
// cookie jar, the rotating csrf token, and the strategies for establishing
// both. Not safe for concurrent use.
type Session struct {
	cfg    config.AppConfig
	logger *slog.Logger

	transport *transport.Transport
	authz     *auth.Context
	store     ports.SessionStore
	codes     ports.CodeProvider
	driver    ports.BrowserDriver

	executor      *service.Executor
	accessors     *service.Accessors
	authenticator *service.Authenticator
}

// New builds a Session from configuration and hydrates it from the session
// cache when a usable record exists. A cache miss is not an error; the
// session simply starts unauthenticated.
func New(ctx context.Context, cfg config.AppConfig, opts ...Option) (*Session, error) {
	cfg.Sanitize()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	tr, err := transport.New(transport.Options{
		RootURL:   cfg.RootURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.HTTPTimeout,
		Client:    o.client,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	store := o.store
	if store == nil {
		store, err = bootstrap.NewSessionStore(cfg.Cache, logger)
		if err != nil {
			return nil, err
		}
	}

	codes := o.codes
	if codes == nil {
		codes, err = bootstrap.NewCodeProvider(cfg.Auth)
		if err != nil {
			return nil, err
		}
	}
	if codes == nil {
		codes = stdinCodeProvider()
	}

	authz := auth.NewContext()
	executor := service.NewExecutor(service.ExecutorOptions{
		Transport: tr,
		Context:   authz,
		Logger:    logger,
	})

	s := &Session{
		cfg:       cfg,
		logger:    logger,
		transport: tr,
		authz:     authz,
		store:     store,
		codes:     codes,
		driver:    o.driver,
		executor:  executor,
		accessors: service.NewAccessors(executor),
		authenticator: service.NewAuthenticator(service.AuthenticatorOptions{
			Transport: tr,
			Executor:  executor,
			Context:   authz,
			Store:     store,
			Codes:     codes,
			Method:    cfg.Auth.Method,
			Remember:  cfg.Auth.RememberDevice,
			Logger:    logger,
		}),
	}

	s.hydrate(ctx)
	return s, nil
}

// hydrate restores cached cookies into the transport. The restored session
// holds no csrf token: data calls work off the cookies alone, and a full
// Login (cheap for a remembered device) re-establishes the token when an
// authorized call is needed.
func (s *Session) hydrate(ctx context.Context) {
	if s.store == nil {
		return
	}
	rec, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, pcerr.ErrCacheMiss) {
			s.logger.DebugContext(ctx, "session cache load failed", "error", err)
		}
		return
	}
	if err := s.transport.SetCookies(rec.Cookies); err != nil {
		s.logger.DebugContext(ctx, "session cache restore failed", "error", err)
		return
	}
	s.authz.Email = rec.Email
	s.logger.DebugContext(ctx, "restored cached session", "email", rec.Email)
}

// Login authenticates against the upstream API directly: identify, pass
// the one-time-code challenge unless the device is remembered, submit the
// password. On success the session is persisted to the cache.
func (s *Session) Login(ctx context.Context, creds Credentials) error {
	return s.authenticator.Login(ctx, service.Credentials{
		Email:    creds.Email,
		Password: creds.Password,
	})
}

// LoginWithBrowser authenticates by driving a real browser through the
// login pages, for when the direct API flow is blocked. Without an injected
// driver a headless browser is launched for the duration of the call.
func (s *Session) LoginWithBrowser(ctx context.Context, creds Credentials) error {
	driver := s.driver
	if driver == nil {
		d, err := chromedriver.New(ctx, chromedriver.Options{
			Headless: s.cfg.Browser.Headless,
			Logger:   s.logger,
		})
		if err != nil {
			return fmt.Errorf("launch browser: %w", err)
		}
		defer func() {
			if cerr := d.Close(); cerr != nil {
				s.logger.DebugContext(ctx, "browser close failed", "error", cerr)
			}
		}()
		driver = d
	}

	strategy := service.NewBrowserLogin(service.BrowserLoginOptions{
		Driver:    driver,
		Transport: s.transport,
		Executor:  s.executor,
		Context:   s.authz,
		Store:     s.store,
		Codes:     s.codes,
		Method:    s.cfg.Auth.Method,
		Browser:   s.cfg.Browser,
		Logger:    s.logger,
	})
	return strategy.Login(ctx, service.Credentials{
		Email:    creds.Email,
		Password: creds.Password,
	})
}

// IsLoggedIn reports whether the session currently holds authorization the
// upstream accepts. It never triggers a login.
func (s *Session) IsLoggedIn(ctx context.Context) (bool, error) {
	return s.executor.IsLoggedIn(ctx)
}

// Accounts returns the accounts overview payload as the upstream sends it.
func (s *Session) Accounts(ctx context.Context) (json.RawMessage, error) {
	return s.accessors.Accounts(ctx)
}

// Transactions returns the transactions between startDate and endDate
// (YYYY-MM-DD, inclusive). Empty bounds cover the full account history.
func (s *Session) Transactions(ctx context.Context, startDate, endDate string) (json.RawMessage, error) {
	return s.accessors.Transactions(ctx, startDate, endDate)
}

// Email returns the identity the session was authenticated (or hydrated)
// as, or the empty string.
func (s *Session) Email() string { return s.authz.Email }
