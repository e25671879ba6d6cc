package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfintools/personalcapital/internal/domain/auth"
	"github.com/openfintools/personalcapital/internal/pcerr"
	"github.com/openfintools/personalcapital/internal/testutil"
	"github.com/openfintools/personalcapital/internal/transport"
)

// newExecutor wires a Transport, a fresh authorization context, and an
// Executor against the given upstream base URL.
func newExecutor(t *testing.T, rootURL string) (*Executor, *auth.Context, *transport.Transport) {
	t.Helper()

	tr, err := transport.New(transport.Options{
		RootURL:   rootURL,
		UserAgent: "pcdash-test",
	})
	require.NoError(t, err)

	authz := auth.NewContext()
	exec := NewExecutor(ExecutorOptions{Transport: tr, Context: authz})
	return exec, authz, tr
}

func TestExecutor_MergesAuthorizationFields(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"spHeader":{"success":true},"spData":{"ok":true}}`)
	}))
	defer srv.Close()

	exec, authz, _ := newExecutor(t, srv.URL)
	authz.Csrf = "tok-123"
	authz.LastServerChangeID = 42

	data, err := exec.Execute(context.Background(), http.MethodPost, "/api/some/call", url.Values{
		"startDate": {"2020-01-01"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))

	assert.Equal(t, "tok-123", got.Get("csrf"))
	assert.Equal(t, "WEB", got.Get("apiClient"))
	assert.Equal(t, "42", got.Get("lastServerChangeId"))
	assert.Equal(t, "2020-01-01", got.Get("startDate"))
}

func TestExecutor_SessionExpiryClearsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"spHeader":{"success":false,"errors":[{"code":201,"message":"session expired"}]}}`)
	}))
	defer srv.Close()

	exec, authz, _ := newExecutor(t, srv.URL)
	authz.Csrf = "tok-123"

	_, err := exec.Execute(context.Background(), http.MethodPost, "/api/some/call", nil)
	require.ErrorIs(t, err, pcerr.ErrSessionExpired)
	assert.False(t, authz.Authenticated(), "expiry must drop the csrf token")
}

func TestExecutor_APIErrorKeepsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"spHeader":{"success":false,"errors":[{"code":312,"message":"account locked"}]}}`)
	}))
	defer srv.Close()

	exec, authz, _ := newExecutor(t, srv.URL)
	authz.Csrf = "tok-123"

	_, err := exec.Execute(context.Background(), http.MethodPost, "/api/some/call", nil)
	require.Error(t, err)

	var apiErr *pcerr.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 312, apiErr.Code)
	assert.Contains(t, apiErr.Detail, "account locked")
	assert.True(t, authz.Authenticated(), "non-expiry failures must not drop the token")
}

func TestExecutor_TransportError(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name: "html body on 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				fmt.Fprint(w, "<html>maintenance page</html>")
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name: "json content type with broken body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"spHeader":`)
			},
			wantStatus: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			exec, _, _ := newExecutor(t, srv.URL)

			_, err := exec.Execute(context.Background(), http.MethodPost, "/api/some/call", nil)
			require.Error(t, err)

			var trErr *pcerr.TransportError
			require.ErrorAs(t, err, &trErr)
			assert.Equal(t, tt.wantStatus, trErr.Status)
		})
	}
}

func TestExecutor_IsLoggedIn_NoTokenSkipsNetwork(t *testing.T) {
	up := testutil.NewUpstream(t)
	exec, _, _ := newExecutor(t, up.URL())

	ok, err := exec.IsLoggedIn(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, up.Requests, "no csrf token means no probe request")
}

func TestExecutor_IsLoggedIn_ValidSession(t *testing.T) {
	up := testutil.NewUpstream(t)
	exec, authz, tr := newExecutor(t, up.URL())
	authz.Csrf = testutil.HeaderCSRF
	require.NoError(t, tr.SetCookies([]auth.Cookie{
		{Name: testutil.SessionCookieName, Value: testutil.SessionCookieValue, Path: "/"},
	}))

	ok, err := exec.IsLoggedIn(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, up.CountRequests("/api/login/querySession"))
}

func TestExecutor_IsLoggedIn_ExpiredSessionIsFalse(t *testing.T) {
	up := testutil.NewUpstream(t)
	exec, authz, _ := newExecutor(t, up.URL())
	// Token held but no session cookie: the probe comes back expired.
	authz.Csrf = testutil.HeaderCSRF

	ok, err := exec.IsLoggedIn(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, authz.Authenticated(), "the expired probe clears the token")
}

func TestExecutor_IsLoggedIn_OutagePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	exec, authz, _ := newExecutor(t, srv.URL)
	authz.Csrf = "tok-123"

	_, err := exec.IsLoggedIn(context.Background())
	require.Error(t, err)

	var trErr *pcerr.TransportError
	assert.ErrorAs(t, err, &trErr)
}
