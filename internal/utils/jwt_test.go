package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseClaims(t *testing.T, secret, token string) jwt.MapClaims {
	t.Helper()
	tok, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)
	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestNewAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken("s3cret", 42, false, 15)
	require.NoError(t, err)

	claims := parseClaims(t, "s3cret", at.Token)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, false, claims["anon"])
	assert.Equal(t, float64(at.Exp.Unix()), claims["exp"])
}

func TestNewAccessTokenAnonymousMarker(t *testing.T) {
	at, err := NewAccessToken("s3cret", 7, true, 720)
	require.NoError(t, err)

	claims := parseClaims(t, "s3cret", at.Token)
	assert.Equal(t, true, claims["anon"])
}

func TestHashRefreshRawIsDeterministic(t *testing.T) {
	rt, err := NewRefreshToken(30)
	require.NoError(t, err)
	require.Len(t, rt.Raw, 96)

	assert.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))
	assert.NotEqual(t, rt.Raw, HashRefreshRaw(rt.Raw))

	other, err := NewRefreshToken(30)
	require.NoError(t, err)
	assert.NotEqual(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(other.Raw))
}
