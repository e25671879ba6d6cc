package otp

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 6238 test secret ("12345678901234567890" in base32).
const testSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestProvider_Code(t *testing.T) {
	p, err := New(testSecret)
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	code, err := p.Code(context.Background())
	require.NoError(t, err)
	require.Len(t, code, 6)

	want, err := totp.GenerateCode(testSecret, at)
	require.NoError(t, err)
	assert.Equal(t, want, code)
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New("   ")
	require.Error(t, err)
}

func TestProvider_BadSecret(t *testing.T) {
	p, err := New("not-base32!!")
	require.NoError(t, err)

	_, err = p.Code(context.Background())
	require.Error(t, err)
}
