package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/openfintools/personalcapital/internal/domain/auth"
	"github.com/openfintools/personalcapital/internal/domain/envelope"
	"github.com/openfintools/personalcapital/internal/pcerr"
	"github.com/openfintools/personalcapital/internal/transport"
)

// Executor wraps every API call with the required authorization fields,
// interprets the response envelope, and raises a distinguished error on
// session expiry.
type Executor struct {
	transport *transport.Transport
	authz     *auth.Context
	logger    *slog.Logger
}

// ExecutorOptions groups the executor's collaborators.
type ExecutorOptions struct {
	Transport *transport.Transport
	Context   *auth.Context
	Logger    *slog.Logger
}

// NewExecutor builds an Executor around a shared authorization context.
func NewExecutor(opts ExecutorOptions) *Executor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		transport: opts.Transport,
		authz:     opts.Context,
		logger:    logger,
	}
}

// Execute issues an authorized request and returns the envelope's data
// payload unchanged. The payload schema is owned by the upstream service
// and is not validated here.
func (e *Executor) Execute(ctx context.Context, method, path string, form url.Values) (json.RawMessage, error) {
	env, err := e.ExecuteEnvelope(ctx, method, path, form)
	if err != nil {
		return nil, err
	}
	return env.SPData, nil
}

// ExecuteEnvelope issues an authorized request and returns the full parsed
// envelope. The authenticator uses this to read the header block (csrf,
// authLevel) during login; everything else should prefer Execute.
//
// Classification: a non-2xx status or non-JSON body is a *TransportError;
// an unsuccessful envelope with the upstream's expiry code clears the csrf
// token and returns ErrSessionExpired; any other unsuccessful envelope is
// an *APIError.
func (e *Executor) ExecuteEnvelope(ctx context.Context, method, path string, form url.Values) (*envelope.Envelope, error) {
	merged := url.Values{}
	for k, vs := range form {
		merged[k] = vs
	}
	merged.Set("csrf", e.authz.Csrf)
	merged.Set("apiClient", apiClientWeb)
	merged.Set("lastServerChangeId", strconv.Itoa(e.authz.LastServerChangeID))

	resp, err := e.transport.Do(ctx, method, path, merged)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 || !isJSON(resp.Header.Get("Content-Type")) {
		e.logger.ErrorContext(ctx, "upstream request failed",
			"path", path, "status", resp.StatusCode, "content_type", resp.Header.Get("Content-Type"))
		return nil, &pcerr.TransportError{Status: resp.StatusCode, Header: resp.Header}
	}

	env, err := envelope.Decode(resp.Body)
	if err != nil {
		// JSON content type but unparsable body; same class of failure as
		// a non-JSON response.
		e.logger.ErrorContext(ctx, "upstream response unparsable", "path", path, "error", err)
		return nil, &pcerr.TransportError{Status: resp.StatusCode, Header: resp.Header}
	}

	if !env.SPHeader.Success {
		if env.FirstErrorCode() == envelope.CodeSessionExpired {
			e.authz.ClearCsrf()
			return nil, fmt.Errorf("%s: %s: %w", path, env.SPHeader.ErrorDetail(), pcerr.ErrSessionExpired)
		}
		return nil, &pcerr.APIError{Code: env.FirstErrorCode(), Detail: env.SPHeader.ErrorDetail()}
	}

	return env, nil
}

// IsLoggedIn reports whether the session is currently authorized. It is
// false without any network call when no csrf token is held; otherwise a
// lightweight probe is issued and a session-expired outcome is downgraded
// to false rather than propagated. Any other probe failure is returned so
// an outage is not mistaken for a logged-out session.
func (e *Executor) IsLoggedIn(ctx context.Context) (bool, error) {
	if !e.authz.Authenticated() {
		return false, nil
	}
	_, err := e.Execute(ctx, http.MethodPost, pathQuerySession, nil)
	if errors.Is(err, pcerr.ErrSessionExpired) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || mediaType == "text/json"
}
