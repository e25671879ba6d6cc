// Package testutil provides an in-process fake of the upstream dashboard
// API for tests: the envelope protocol, the csrf and challenge login
// sequence, and cookie-gated data endpoints.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
)

// Session cookie the fake upstream issues at password time.
const (
	SessionCookieName  = "PCSESSION"
	SessionCookieValue = "fake-session-cookie"
)

// Fixed tokens the fake upstream hands out.
const (
	PageCSRF      = "aaaaaaaa-1111-2222-3333-444444444444"
	HeaderCSRF    = "bbbbbbbb-5555-6666-7777-888888888888"
	ServerVersion = 87
)

// Upstream is a scripted stand-in for the dashboard API. Configure the
// exported fields before driving a login against Server.URL. Not safe for
// concurrent use, matching the client's one-session-per-actor model.
type Upstream struct {
	Server *httptest.Server

	// AuthLevel returned by the identify endpoint (e.g. USER_REMEMBERED to
	// skip the challenge).
	AuthLevel string

	// ExpectedCode is the one-time code the challenge verify endpoints
	// accept.
	ExpectedCode string

	// Password accepted by the credential endpoint.
	Password string

	// Requests records every API path hit, in order.
	Requests []string

	challengePassed bool
}

// NewUpstream starts the fake. The server is shut down with the test.
func NewUpstream(t TestingTB) *Upstream {
	t.Helper()

	u := &Upstream{
		AuthLevel:    "USER_IDENTIFIED",
		ExpectedCode: "123456",
		Password:     "hunter2",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", u.handleLanding)
	mux.HandleFunc("/api/login/identifyUser", u.handleIdentify)
	mux.HandleFunc("/api/credential/challengeSms", u.handleChallenge)
	mux.HandleFunc("/api/credential/challengeEmail", u.handleChallenge)
	mux.HandleFunc("/api/credential/authenticateSms", u.handleVerify)
	mux.HandleFunc("/api/credential/authenticateEmail", u.handleVerify)
	mux.HandleFunc("/api/credential/authenticatePassword", u.handlePassword)
	mux.HandleFunc("/api/login/querySession", u.handleQuerySession)
	mux.HandleFunc("/api/newaccount/getAccounts2", u.handleAccounts)
	mux.HandleFunc("/api/transaction/getUserTransactions", u.handleTransactions)

	u.Server = httptest.NewServer(mux)
	t.Cleanup(u.Server.Close)
	return u
}

// TestingTB is the subset of testing.TB the helpers need.
type TestingTB interface {
	Helper()
	Cleanup(func())
	Fatalf(format string, args ...any)
}

// URL returns the fake upstream's base URL.
func (u *Upstream) URL() string { return u.Server.URL }

// CountRequests returns how many times path was hit.
func (u *Upstream) CountRequests(path string) int {
	n := 0
	for _, p := range u.Requests {
		if p == path {
			n++
		}
	}
	return n
}

func (u *Upstream) handleLanding(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	u.Requests = append(u.Requests, r.URL.Path)
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, "<html><head><script>window.csrf = '%s';</script></head><body></body></html>", PageCSRF)
}

func (u *Upstream) handleIdentify(w http.ResponseWriter, r *http.Request) {
	u.record(r)
	if r.PostFormValue("csrf") != PageCSRF {
		u.writeError(w, 100, "bad csrf")
		return
	}
	u.writeEnvelope(w, header{
		Success:   true,
		Csrf:      HeaderCSRF,
		AuthLevel: u.AuthLevel,
		Username:  r.PostFormValue("username"),
	}, nil)
}

func (u *Upstream) handleChallenge(w http.ResponseWriter, r *http.Request) {
	u.record(r)
	if !u.authorized(r) {
		u.writeError(w, 100, "bad csrf")
		return
	}
	u.writeEnvelope(w, header{Success: true}, nil)
}

func (u *Upstream) handleVerify(w http.ResponseWriter, r *http.Request) {
	u.record(r)
	if !u.authorized(r) {
		u.writeError(w, 100, "bad csrf")
		return
	}
	if r.PostFormValue("code") != u.ExpectedCode {
		u.writeError(w, 101, "invalid code")
		return
	}
	u.challengePassed = true
	u.writeEnvelope(w, header{Success: true}, nil)
}

func (u *Upstream) handlePassword(w http.ResponseWriter, r *http.Request) {
	u.record(r)
	if !u.authorized(r) {
		u.writeError(w, 100, "bad csrf")
		return
	}
	if u.AuthLevel != "USER_REMEMBERED" && !u.challengePassed {
		u.writeError(w, 102, "challenge required")
		return
	}
	if r.PostFormValue("passwd") != u.Password {
		u.writeError(w, 103, "invalid credentials")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookieName, Value: SessionCookieValue, Path: "/"})
	u.writeEnvelope(w, header{Success: true, AuthLevel: "SESSION_AUTHENTICATED"}, nil)
}

func (u *Upstream) handleQuerySession(w http.ResponseWriter, r *http.Request) {
	u.record(r)
	if !u.sessionCookie(r) {
		u.writeExpired(w)
		return
	}
	v := ServerVersion
	u.writeEnvelope(w, header{Success: true, Version: &v}, nil)
}

func (u *Upstream) handleAccounts(w http.ResponseWriter, r *http.Request) {
	u.record(r)
	if !u.sessionCookie(r) {
		u.writeExpired(w)
		return
	}
	u.writeEnvelope(w, header{Success: true}, json.RawMessage(`{
		"networth": 125000.00,
		"accounts": [
			{"name": "Checking", "balance": 5000.00},
			{"name": "Brokerage", "balance": 120000.00}
		]
	}`))
}

func (u *Upstream) handleTransactions(w http.ResponseWriter, r *http.Request) {
	u.record(r)
	if !u.sessionCookie(r) {
		u.writeExpired(w)
		return
	}
	u.writeEnvelope(w, header{Success: true}, json.RawMessage(fmt.Sprintf(`{
		"startDate": %q,
		"endDate": %q,
		"transactions": [
			{"description": "Coffee", "amount": -4.50},
			{"description": "Paycheck", "amount": 3200.00}
		]
	}`, r.PostFormValue("startDate"), r.PostFormValue("endDate"))))
}

func (u *Upstream) record(r *http.Request) {
	u.Requests = append(u.Requests, r.URL.Path)
	_ = r.ParseForm()
}

// authorized checks the rotating csrf: the page token is only good for the
// identify call, everything after requires the header token.
func (u *Upstream) authorized(r *http.Request) bool {
	return r.PostFormValue("csrf") == HeaderCSRF
}

func (u *Upstream) sessionCookie(r *http.Request) bool {
	c, err := r.Cookie(SessionCookieName)
	return err == nil && c.Value == SessionCookieValue
}

type header struct {
	Success   bool          `json:"success"`
	Errors    []envelopeErr `json:"errors,omitempty"`
	Csrf      string        `json:"csrf,omitempty"`
	AuthLevel string        `json:"authLevel,omitempty"`
	Username  string        `json:"username,omitempty"`
	Version   *int          `json:"SP_HEADER_VERSION,omitempty"`
}

type envelopeErr struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

func (u *Upstream) writeEnvelope(w http.ResponseWriter, h header, data json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{"spHeader": h}
	if data != nil {
		body["spData"] = data
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (u *Upstream) writeError(w http.ResponseWriter, code int, message string) {
	u.writeEnvelope(w, header{
		Success: false,
		Errors:  []envelopeErr{{Code: code, Message: message}},
	}, nil)
}

func (u *Upstream) writeExpired(w http.ResponseWriter) {
	u.writeEnvelope(w, header{
		Success: false,
		Errors:  []envelopeErr{{Code: 201, Message: "session expired"}},
	}, nil)
}
