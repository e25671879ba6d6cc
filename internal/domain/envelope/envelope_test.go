package envelope

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	body := `{
		"spHeader": {
			"success": true,
			"csrf": "11111111-2222-3333-4444-555555555555",
			"authLevel": "USER_REMEMBERED",
			"username": "user@example.com",
			"SP_HEADER_VERSION": 42
		},
		"spData": {"accounts": []}
	}`

	env, err := Decode(strings.NewReader(body))
	require.NoError(t, err)

	assert.True(t, env.SPHeader.Success)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", env.SPHeader.Csrf)
	assert.Equal(t, "USER_REMEMBERED", env.SPHeader.AuthLevel)
	require.NotNil(t, env.SPHeader.Version)
	assert.Equal(t, 42, *env.SPHeader.Version)
	assert.JSONEq(t, `{"accounts": []}`, string(env.SPData))
	assert.Equal(t, 0, env.FirstErrorCode())
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(strings.NewReader("<html>not json</html>"))
	require.Error(t, err)
}

func TestFirstErrorCode(t *testing.T) {
	env := &Envelope{SPHeader: Header{
		Success: false,
		Errors:  []Error{{Code: 201, Message: "session expired"}, {Code: 999}},
	}}
	assert.Equal(t, CodeSessionExpired, env.FirstErrorCode())
}

func TestHeader_ErrorDetail(t *testing.T) {
	h := Header{Errors: []Error{{Code: 201, Message: "session expired"}, {Code: 999}}}
	assert.Equal(t, "code 201: session expired; code 999", h.ErrorDetail())

	assert.Equal(t, "no error detail", Header{}.ErrorDetail())
}

func TestHeader_VersionOmitted(t *testing.T) {
	env, err := Decode(strings.NewReader(`{"spHeader":{"success":true},"spData":null}`))
	require.NoError(t, err)
	assert.Nil(t, env.SPHeader.Version)
}
