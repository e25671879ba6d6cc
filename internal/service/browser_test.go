package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/openfintools/personalcapital/config"
	"github.com/openfintools/personalcapital/internal/domain/auth"
	"github.com/openfintools/personalcapital/internal/mocks"
	browserfake "github.com/openfintools/personalcapital/internal/mocks/browser"
	"github.com/openfintools/personalcapital/internal/pcerr"
	"github.com/openfintools/personalcapital/internal/ports"
	"github.com/openfintools/personalcapital/internal/testutil"
	"github.com/openfintools/personalcapital/internal/transport"
)

func newBrowserLogin(t *testing.T, up *testutil.Upstream, driver ports.BrowserDriver, codes ports.CodeProvider, store ports.SessionStore) (*BrowserLogin, *auth.Context, *transport.Transport) {
	t.Helper()

	exec, authz, tr := newExecutor(t, up.URL())
	b := NewBrowserLogin(BrowserLoginOptions{
		Driver:    driver,
		Transport: tr,
		Executor:  exec,
		Context:   authz,
		Store:     store,
		Codes:     codes,
		Method:    config.AuthMethodSMS,
		Browser: config.BrowserConfig{
			PollAttempts:  3,
			PollInterval:  time.Millisecond,
			ScreenshotDir: t.TempDir(),
		},
	})
	return b, authz, tr
}

func TestBrowserLogin_ChallengeFlow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := testutil.NewUpstream(t)

	driver := browserfake.NewScriptedDriver()
	driver.RequireChallenge = true
	driver.SessionCookies = []auth.Cookie{
		{Name: testutil.SessionCookieName, Value: testutil.SessionCookieValue, Path: "/"},
	}

	codes := mocks.NewMockCodeProvider(ctrl)
	codes.EXPECT().Code(gomock.Any()).Return("123456", nil)

	var saved auth.CachedSession
	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, sess auth.CachedSession) error {
			saved = sess
			return nil
		})

	b, authz, _ := newBrowserLogin(t, up, driver, codes, store)

	err := b.Login(context.Background(), Credentials{Email: "user@example.com", Password: "hunter2"})
	require.NoError(t, err)

	assert.Equal(t, "deadbeef-0000-1111-2222-333344445555", authz.Csrf)
	assert.Equal(t, testutil.ServerVersion, authz.LastServerChangeID)
	assert.Equal(t, "user@example.com", authz.Email)
	assert.Equal(t, "123456", driver.EnteredCode)

	require.NotEmpty(t, saved.Cookies)
	assert.Equal(t, testutil.SessionCookieName, saved.Cookies[0].Name)
	assert.Equal(t, "user@example.com", saved.Email)

	// The scraped session must be usable by the shared transport: the
	// post-login refresh went through it.
	assert.Equal(t, 1, up.CountRequests("/api/login/querySession"))
}

func TestBrowserLogin_RememberedDeviceSkipsChallenge(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := testutil.NewUpstream(t)

	driver := browserfake.NewScriptedDriver()
	driver.SessionCookies = []auth.Cookie{
		{Name: testutil.SessionCookieName, Value: testutil.SessionCookieValue, Path: "/"},
	}

	// No expectations: a remembered device never asks for a code.
	codes := mocks.NewMockCodeProvider(ctrl)

	b, authz, _ := newBrowserLogin(t, up, driver, codes, nil)

	err := b.Login(context.Background(), Credentials{Email: "user@example.com", Password: "hunter2"})
	require.NoError(t, err)
	assert.True(t, authz.Authenticated())
	assert.Equal(t, "user@example.com", authz.Email)
	assert.Zero(t, driver.EnteredCode)
}

func TestBrowserLogin_SeedsRememberedCookies(t *testing.T) {
	up := testutil.NewUpstream(t)

	driver := browserfake.NewScriptedDriver()
	driver.SessionCookies = []auth.Cookie{
		{Name: testutil.SessionCookieName, Value: testutil.SessionCookieValue, Path: "/"},
	}

	b, _, tr := newBrowserLogin(t, up, driver, nil, nil)
	require.NoError(t, tr.SetCookies([]auth.Cookie{
		{Name: "remembered-device", Value: "abc", Path: "/"},
	}))

	err := b.Login(context.Background(), Credentials{Email: "user@example.com", Password: "hunter2"})
	require.NoError(t, err)

	require.NotEmpty(t, driver.Imported)
	assert.Equal(t, "remembered-device", driver.Imported[0].Name)
}

func TestBrowserLogin_MissingElementCapturesScreenshot(t *testing.T) {
	up := testutil.NewUpstream(t)

	driver := browserfake.NewScriptedDriver()
	driver.Broken = true

	b, _, _ := newBrowserLogin(t, up, driver, nil, nil)

	err := b.Login(context.Background(), Credentials{Email: "user@example.com", Password: "hunter2"})
	require.Error(t, err)

	var autoErr *pcerr.AutomationError
	require.ErrorAs(t, err, &autoErr)
	assert.Contains(t, autoErr.Locator, "username")
	require.NotEmpty(t, autoErr.ScreenshotPath)

	data, readErr := os.ReadFile(autoErr.ScreenshotPath)
	require.NoError(t, readErr)
	assert.Equal(t, driver.ScreenshotData, data)
}

func TestBrowserLogin_UnsupportedMethod(t *testing.T) {
	up := testutil.NewUpstream(t)
	exec, authz, tr := newExecutor(t, up.URL())

	b := NewBrowserLogin(BrowserLoginOptions{
		Driver:    browserfake.NewScriptedDriver(),
		Transport: tr,
		Executor:  exec,
		Context:   authz,
		Method:    config.AuthMethod("telegraph"),
		Browser:   config.BrowserConfig{PollAttempts: 1, PollInterval: time.Millisecond},
	})

	err := b.Login(context.Background(), Credentials{Email: "user@example.com", Password: "x"})
	require.ErrorIs(t, err, pcerr.ErrUnsupportedAuthMethod)
}
