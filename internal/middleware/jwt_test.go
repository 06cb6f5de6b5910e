package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barwethereyet/checkin-api/internal/model"
	"github.com/barwethereyet/checkin-api/internal/utils"
)

const testSecret = "test-secret"

func run(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, model.Caller) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got model.Caller
	h := mw(func(c echo.Context) error {
		got, _ = c.Get(CallerKey).(model.Caller)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, got
}

func TestJWTAuthPermanentCaller(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 42, false, 15)
	require.NoError(t, err)

	rec, caller := run(t, JWTAuth(testSecret), "Bearer "+at.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.IsType(t, model.PermanentCaller{}, caller)
	assert.Equal(t, uint64(42), caller.CallerID())
}

func TestJWTAuthAnonymousCaller(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 7, true, 720)
	require.NoError(t, err)

	rec, caller := run(t, JWTAuth(testSecret), "Bearer "+at.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.IsType(t, model.AnonymousCaller{}, caller)
	assert.Equal(t, uint64(7), caller.CallerID())
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	rec, _ := run(t, JWTAuth(testSecret), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("other-secret", 42, false, 15)
	require.NoError(t, err)

	rec, _ := run(t, JWTAuth(testSecret), "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTOptionalPassesThroughWithoutToken(t *testing.T) {
	rec, caller := run(t, JWTOptional(testSecret), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, caller)
}

func TestJWTOptionalIgnoresInvalidToken(t *testing.T) {
	rec, caller := run(t, JWTOptional(testSecret), "Bearer not-a-jwt")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, caller)
}

func TestJWTOptionalResolvesValidToken(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 9, false, 15)
	require.NoError(t, err)

	rec, caller := run(t, JWTOptional(testSecret), "Bearer "+at.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, caller)
	assert.Equal(t, uint64(9), caller.CallerID())
}
