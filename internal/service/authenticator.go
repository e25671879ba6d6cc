package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/openfintools/personalcapital/config"
	"github.com/openfintools/personalcapital/internal/domain/auth"
	"github.com/openfintools/personalcapital/internal/domain/envelope"
	"github.com/openfintools/personalcapital/internal/pcerr"
	"github.com/openfintools/personalcapital/internal/ports"
	"github.com/openfintools/personalcapital/internal/transport"
)

// Credentials identify the user to log in as.
type Credentials struct {
	Email    string
	Password string
}

// loginState tracks progress through the challenge sequence. It exists only
// while Login runs and is gone when Login returns.
type loginState int

const (
	stateUnauthenticated loginState = iota
	stateIdentityKnown
	stateChallengeIssued
	stateChallengeVerified
	statePasswordVerified
	stateAuthenticated
)

func (s loginState) String() string {
	switch s {
	case stateUnauthenticated:
		return "unauthenticated"
	case stateIdentityKnown:
		return "identity known"
	case stateChallengeIssued:
		return "challenge issued"
	case stateChallengeVerified:
		return "challenge verified"
	case statePasswordVerified:
		return "password verified"
	case stateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// AuthenticatorOptions groups the authenticator's collaborators. Store may
// be nil to disable session caching.
type AuthenticatorOptions struct {
	Transport *transport.Transport
	Executor  *Executor
	Context   *auth.Context
	Store     ports.SessionStore
	Codes     ports.CodeProvider
	Method    config.AuthMethod
	Remember  bool
	Logger    *slog.Logger
}

// Authenticator executes the direct API login sequence: identify the user,
// pass the one-time-code challenge unless the device is remembered, submit
// the password, then persist and refresh the session. Postcondition of a
// successful Login: the shared context holds a csrf token and the transport
// holds server-authenticated cookies.
type Authenticator struct {
	transport *transport.Transport
	executor  *Executor
	authz     *auth.Context
	store     ports.SessionStore
	codes     ports.CodeProvider
	method    config.AuthMethod
	remember  bool
	logger    *slog.Logger
}

// NewAuthenticator builds an Authenticator.
func NewAuthenticator(opts AuthenticatorOptions) *Authenticator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		transport: opts.Transport,
		executor:  opts.Executor,
		authz:     opts.Context,
		store:     opts.Store,
		codes:     opts.Codes,
		method:    opts.Method,
		remember:  opts.Remember,
		logger:    logger,
	}
}

// Login runs the state machine to completion. Each failed step aborts the
// attempt; there is no retry loop and one wrong challenge code ends the
// attempt with an AuthenticationError.
func (a *Authenticator) Login(ctx context.Context, creds Credentials) error {
	if !a.method.Valid() {
		return fmt.Errorf("auth method %q: %w", a.method, pcerr.ErrUnsupportedAuthMethod)
	}

	var state loginState

	// Bootstrap a provisional csrf token from the landing page. Without it
	// the identify call is rejected outright.
	token, err := a.fetchLandingToken(ctx)
	if err != nil {
		return err
	}
	a.authz.Csrf = token

	env, err := a.step(ctx, "identify", pathIdentifyUser, url.Values{
		"username": {creds.Email},
	})
	if err != nil {
		return err
	}
	a.adoptHeader(env)
	state = stateIdentityKnown
	level := auth.AuthLevel(env.SPHeader.AuthLevel)
	a.logger.DebugContext(ctx, "identified user", "state", state.String(), "auth_level", string(level))

	if level.Remembered() {
		a.logger.DebugContext(ctx, "device remembered, skipping challenge")
	} else if err := a.challenge(ctx); err != nil {
		return err
	}

	form := url.Values{
		"passwd":     {creds.Password},
		"deviceName": {""},
	}
	if a.remember {
		form.Set("bindDevice", "true")
	}
	env, err = a.step(ctx, "password", pathAuthenticatePassword, form)
	if err != nil {
		return err
	}
	a.adoptHeader(env)
	state = statePasswordVerified
	a.logger.DebugContext(ctx, "password accepted", "state", state.String())
	a.authz.Email = creds.Email

	if err := a.persist(ctx); err != nil {
		return err
	}

	// The upstream expects the current server change identifier echoed on
	// subsequent requests; a session refresh returns it.
	env, err = a.step(ctx, "session refresh", pathQuerySession, nil)
	if err != nil {
		return err
	}
	a.adoptHeader(env)

	state = stateAuthenticated
	a.logger.InfoContext(ctx, "login complete", "state", state.String(), "email", creds.Email)
	return nil
}

// challenge runs the ChallengeIssued → ChallengeVerified leg for the
// configured factor.
func (a *Authenticator) challenge(ctx context.Context) error {
	challengePath, verifyPath := pathChallengeSMS, pathAuthenticateSMS
	if a.method == config.AuthMethodEmail {
		challengePath, verifyPath = pathChallengeEmail, pathAuthenticateEmail
	}

	env, err := a.step(ctx, "challenge request", challengePath, url.Values{
		"challengeReason": {challengeReasonDeviceAuth},
		"challengeMethod": {challengeMethodOTP},
	})
	if err != nil {
		return err
	}
	a.adoptHeader(env)
	state := stateChallengeIssued
	a.logger.DebugContext(ctx, "challenge requested", "state", state.String(), "method", string(a.method))

	// Blocking suspension point owned entirely by the caller; no timeout
	// is imposed here.
	code, err := a.codes.Code(ctx)
	if err != nil {
		return fmt.Errorf("obtain challenge code: %w", err)
	}

	env, err = a.step(ctx, "challenge verify", verifyPath, url.Values{
		"challengeReason": {challengeReasonDeviceAuth},
		"challengeMethod": {challengeMethodOTP},
		"code":            {code},
	})
	if err != nil {
		return err
	}
	a.adoptHeader(env)
	state = stateChallengeVerified
	a.logger.DebugContext(ctx, "challenge verified", "state", state.String())
	return nil
}

// step executes one login request, converting any unsuccessful envelope
// into an AuthenticationError. Session expiry cannot meaningfully occur
// mid-login, so the executor's expiry signal is folded in as well.
func (a *Authenticator) step(ctx context.Context, name, path string, form url.Values) (*envelope.Envelope, error) {
	env, err := a.executor.ExecuteEnvelope(ctx, http.MethodPost, path, form)
	if err == nil {
		return env, nil
	}

	var apiErr *pcerr.APIError
	if errors.As(err, &apiErr) {
		return nil, &pcerr.AuthenticationError{Step: name, Detail: apiErr.Detail}
	}
	if errors.Is(err, pcerr.ErrSessionExpired) {
		return nil, &pcerr.AuthenticationError{Step: name, Detail: err.Error()}
	}
	return nil, fmt.Errorf("%s: %w", name, err)
}

// adoptHeader copies the rotating authorization fields out of a response
// header block: the upstream replaces the csrf token at identify time and
// reports the server change identifier after authentication.
func (a *Authenticator) adoptHeader(env *envelope.Envelope) {
	if env.SPHeader.Csrf != "" {
		a.authz.Csrf = env.SPHeader.Csrf
	}
	if env.SPHeader.Version != nil {
		a.authz.LastServerChangeID = *env.SPHeader.Version
	}
}

// fetchLandingToken scrapes the provisional anti-forgery token from the
// landing page HTML.
func (a *Authenticator) fetchLandingToken(ctx context.Context) (string, error) {
	resp, err := a.transport.Do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read landing page: %w", err)
	}
	return ExtractEmbeddedToken(string(body))
}

// persist saves the authenticated cookies and identity when caching is
// enabled. A failed save is an error, not a silent degradation: the caller
// asked for cross-run persistence and should know it did not happen.
func (a *Authenticator) persist(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	rec := auth.CachedSession{
		Cookies: a.transport.Cookies(),
		Email:   a.authz.Email,
	}
	if err := a.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("cache session: %w", err)
	}
	return nil
}
