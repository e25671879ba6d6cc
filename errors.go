package personalcapital

import "github.com/openfintools/personalcapital/internal/pcerr"

// Sentinel errors surfaced by Session methods. Match with errors.Is.
var (
	// ErrSessionExpired means the upstream rejected the session's
	// authorization. Recover with a fresh Login.
	ErrSessionExpired = pcerr.ErrSessionExpired

	// ErrUnsupportedAuthMethod means the configured challenge method is not
	// one the upstream supports.
	ErrUnsupportedAuthMethod = pcerr.ErrUnsupportedAuthMethod

	// ErrCacheMiss is returned by session stores when no usable cached
	// record exists.
	ErrCacheMiss = pcerr.ErrCacheMiss
)

// Structured error types surfaced by Session methods. Aliases so errors.As
// works against the concrete values the client returns.
type (
	// TransportError reports a response that never reached envelope
	// parsing: a non-2xx status or a non-JSON body.
	TransportError = pcerr.TransportError

	// APIError reports an unsuccessful response envelope that is not a
	// session expiry.
	APIError = pcerr.APIError

	// AuthenticationError reports a hard failure during a login step.
	AuthenticationError = pcerr.AuthenticationError

	// ProtocolError signals that the upstream markup no longer matches the
	// pattern used to recover the embedded anti-forgery token.
	ProtocolError = pcerr.ProtocolError

	// AutomationError reports that the browser-driven login could not
	// locate an expected page element.
	AutomationError = pcerr.AutomationError
)
