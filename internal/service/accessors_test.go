package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfintools/personalcapital/internal/domain/auth"
	"github.com/openfintools/personalcapital/internal/pcerr"
	"github.com/openfintools/personalcapital/internal/testutil"
)

func newAccessors(t *testing.T, up *testutil.Upstream) *Accessors {
	t.Helper()

	exec, authz, tr := newExecutor(t, up.URL())
	authz.Csrf = testutil.HeaderCSRF
	require.NoError(t, tr.SetCookies([]auth.Cookie{
		{Name: testutil.SessionCookieName, Value: testutil.SessionCookieValue, Path: "/"},
	}))
	return NewAccessors(exec)
}

func TestAccessors_Accounts(t *testing.T) {
	up := testutil.NewUpstream(t)
	acc := newAccessors(t, up)

	data, err := acc.Accounts(context.Background())
	require.NoError(t, err)

	var payload struct {
		Networth float64 `json:"networth"`
		Accounts []struct {
			Name    string  `json:"name"`
			Balance float64 `json:"balance"`
		} `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.InDelta(t, 125000.00, payload.Networth, 0.001)
	require.Len(t, payload.Accounts, 2)
	assert.Equal(t, "Checking", payload.Accounts[0].Name)
}

func TestAccessors_Transactions(t *testing.T) {
	up := testutil.NewUpstream(t)
	acc := newAccessors(t, up)

	data, err := acc.Transactions(context.Background(), "2024-01-01", "2024-06-30")
	require.NoError(t, err)

	var txns []struct {
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(data, &txns))
	require.Len(t, txns, 2)
	assert.Equal(t, "Coffee", txns[0].Description)
	assert.InDelta(t, -4.50, txns[0].Amount, 0.001)
}

func TestAccessors_Transactions_DefaultWindow(t *testing.T) {
	var got struct{ start, end string }
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got.start = r.PostFormValue("startDate")
		got.end = r.PostFormValue("endDate")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"spHeader":{"success":true},"spData":{"transactions":[]}}`)
	}))
	defer srv.Close()

	exec, authz, _ := newExecutor(t, srv.URL)
	authz.Csrf = "tok-123"
	acc := NewAccessors(exec)

	data, err := acc.Transactions(context.Background(), "", "")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	assert.Equal(t, "2007-01-01", got.start)
	assert.Equal(t, "2030-01-01", got.end)
}

func TestAccessors_ExpiredSession(t *testing.T) {
	up := testutil.NewUpstream(t)

	// Token held but no session cookie: the upstream reports expiry.
	exec, authz, _ := newExecutor(t, up.URL())
	authz.Csrf = testutil.HeaderCSRF
	acc := NewAccessors(exec)

	_, err := acc.Accounts(context.Background())
	require.ErrorIs(t, err, pcerr.ErrSessionExpired)
}
