package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/openfintools/personalcapital/config"
	"github.com/openfintools/personalcapital/internal/domain/auth"
	"github.com/openfintools/personalcapital/internal/mocks"
	"github.com/openfintools/personalcapital/internal/pcerr"
	"github.com/openfintools/personalcapital/internal/ports"
	"github.com/openfintools/personalcapital/internal/testutil"
)

func newAuthenticator(t *testing.T, up *testutil.Upstream, method config.AuthMethod, codes ports.CodeProvider, store ports.SessionStore) (*Authenticator, *auth.Context) {
	t.Helper()

	exec, authz, tr := newExecutor(t, up.URL())
	a := NewAuthenticator(AuthenticatorOptions{
		Transport: tr,
		Executor:  exec,
		Context:   authz,
		Store:     store,
		Codes:     codes,
		Method:    method,
		Remember:  true,
	})
	return a, authz
}

func TestAuthenticator_Login_SMSChallenge(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := testutil.NewUpstream(t)

	codes := mocks.NewMockCodeProvider(ctrl)
	codes.EXPECT().Code(gomock.Any()).Return(up.ExpectedCode, nil)

	var saved auth.CachedSession
	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, sess auth.CachedSession) error {
			saved = sess
			return nil
		})

	a, authz := newAuthenticator(t, up, config.AuthMethodSMS, codes, store)

	err := a.Login(context.Background(), Credentials{Email: "user@example.com", Password: up.Password})
	require.NoError(t, err)

	assert.Equal(t, testutil.HeaderCSRF, authz.Csrf)
	assert.Equal(t, testutil.ServerVersion, authz.LastServerChangeID)
	assert.Equal(t, "user@example.com", authz.Email)

	assert.Equal(t, []string{
		"/",
		"/api/login/identifyUser",
		"/api/credential/challengeSms",
		"/api/credential/authenticateSms",
		"/api/credential/authenticatePassword",
		"/api/login/querySession",
	}, up.Requests)

	assert.Equal(t, "user@example.com", saved.Email)
	require.NotEmpty(t, saved.Cookies)
	assert.Equal(t, testutil.SessionCookieName, saved.Cookies[0].Name)
}

func TestAuthenticator_Login_EmailChallenge(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := testutil.NewUpstream(t)

	codes := mocks.NewMockCodeProvider(ctrl)
	codes.EXPECT().Code(gomock.Any()).Return(up.ExpectedCode, nil)

	a, _ := newAuthenticator(t, up, config.AuthMethodEmail, codes, nil)

	err := a.Login(context.Background(), Credentials{Email: "user@example.com", Password: up.Password})
	require.NoError(t, err)

	assert.Equal(t, 1, up.CountRequests("/api/credential/challengeEmail"))
	assert.Equal(t, 1, up.CountRequests("/api/credential/authenticateEmail"))
	assert.Zero(t, up.CountRequests("/api/credential/challengeSms"))
}

func TestAuthenticator_Login_RememberedDeviceSkipsChallenge(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := testutil.NewUpstream(t)
	up.AuthLevel = "USER_REMEMBERED"

	// No expectations: the code provider must never be consulted.
	codes := mocks.NewMockCodeProvider(ctrl)

	a, authz := newAuthenticator(t, up, config.AuthMethodSMS, codes, nil)

	err := a.Login(context.Background(), Credentials{Email: "user@example.com", Password: up.Password})
	require.NoError(t, err)

	assert.True(t, authz.Authenticated())
	assert.Zero(t, up.CountRequests("/api/credential/challengeSms"))
	assert.Zero(t, up.CountRequests("/api/credential/authenticateSms"))
}

func TestAuthenticator_Login_UnsupportedMethod(t *testing.T) {
	up := testutil.NewUpstream(t)

	a, _ := newAuthenticator(t, up, config.AuthMethod("carrier-pigeon"), nil, nil)

	err := a.Login(context.Background(), Credentials{Email: "user@example.com", Password: "x"})
	require.ErrorIs(t, err, pcerr.ErrUnsupportedAuthMethod)
	assert.Empty(t, up.Requests, "an invalid method must fail before any network traffic")
}

func TestAuthenticator_Login_WrongChallengeCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := testutil.NewUpstream(t)

	codes := mocks.NewMockCodeProvider(ctrl)
	codes.EXPECT().Code(gomock.Any()).Return("000000", nil)

	a, _ := newAuthenticator(t, up, config.AuthMethodSMS, codes, nil)

	err := a.Login(context.Background(), Credentials{Email: "user@example.com", Password: up.Password})
	require.Error(t, err)

	var authErr *pcerr.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "challenge verify", authErr.Step)
	assert.Zero(t, up.CountRequests("/api/credential/authenticatePassword"),
		"a failed challenge must end the attempt before the password step")
}

func TestAuthenticator_Login_WrongPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := testutil.NewUpstream(t)

	codes := mocks.NewMockCodeProvider(ctrl)
	codes.EXPECT().Code(gomock.Any()).Return(up.ExpectedCode, nil)

	a, _ := newAuthenticator(t, up, config.AuthMethodSMS, codes, nil)

	err := a.Login(context.Background(), Credentials{Email: "user@example.com", Password: "wrong"})
	require.Error(t, err)

	var authErr *pcerr.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "password", authErr.Step)
}

func TestAuthenticator_Login_CodeProviderFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := testutil.NewUpstream(t)

	codes := mocks.NewMockCodeProvider(ctrl)
	codes.EXPECT().Code(gomock.Any()).Return("", errors.New("stdin closed"))

	a, _ := newAuthenticator(t, up, config.AuthMethodSMS, codes, nil)

	err := a.Login(context.Background(), Credentials{Email: "user@example.com", Password: up.Password})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "obtain challenge code")
}

func TestAuthenticator_Login_StoreFailureSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := testutil.NewUpstream(t)
	up.AuthLevel = "USER_REMEMBERED"

	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	a, _ := newAuthenticator(t, up, config.AuthMethodSMS, nil, store)

	err := a.Login(context.Background(), Credentials{Email: "user@example.com", Password: up.Password})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache session")
	assert.Contains(t, err.Error(), "disk full")
}
