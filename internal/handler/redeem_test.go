package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barwethereyet/checkin-api/internal/middleware"
	"github.com/barwethereyet/checkin-api/internal/model"
	"github.com/barwethereyet/checkin-api/internal/repository"
)

func postJSON(t *testing.T, path, body string, caller model.Caller) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if caller != nil {
		c.Set(middleware.CallerKey, caller)
	}
	return c, rec
}

func newRedeemHandler(t *testing.T) (*RedeemHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRedeemHandler(repository.NewUserRewardRepo(db)), mock
}

func TestRedeemRejectsAnonymous(t *testing.T) {
	h, _ := newRedeemHandler(t)
	c, rec := postJSON(t, "/v1/redeem-reward", `{"user_reward_id":99}`, model.AnonymousCaller{ID: 7})

	require.NoError(t, h.Redeem(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Must be authenticated to redeem rewards")
}

func TestRedeemRequiresUserRewardID(t *testing.T) {
	h, _ := newRedeemHandler(t)
	c, rec := postJSON(t, "/v1/redeem-reward", `{}`, model.PermanentCaller{ID: 7})

	require.NoError(t, h.Redeem(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRedeemHappyPath(t *testing.T) {
	h, mock := newRedeemHandler(t)
	mock.ExpectExec("UPDATE user_rewards SET status = 'redeemed'").
		WithArgs(sqlmock.AnyArg(), 99, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT ur.status, rw.name FROM user_rewards").
		WithArgs(99, 7).
		WillReturnRows(sqlmock.NewRows([]string{"status", "name"}).AddRow("redeemed", "Free Beer"))

	c, rec := postJSON(t, "/v1/redeem-reward", `{"user_reward_id":99}`, model.PermanentCaller{ID: 7})
	require.NoError(t, h.Redeem(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Reward redeemed! Show this to the bartender.")
	assert.Contains(t, rec.Body.String(), "Free Beer")
}

func TestRedeemAlreadyRedeemed(t *testing.T) {
	h, mock := newRedeemHandler(t)
	mock.ExpectExec("UPDATE user_rewards SET status = 'redeemed'").
		WithArgs(sqlmock.AnyArg(), 99, 7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT ur.status, rw.name FROM user_rewards").
		WithArgs(99, 7).
		WillReturnRows(sqlmock.NewRows([]string{"status", "name"}).AddRow("redeemed", "Free Beer"))

	c, rec := postJSON(t, "/v1/redeem-reward", `{"user_reward_id":99}`, model.PermanentCaller{ID: 7})
	require.NoError(t, h.Redeem(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "This reward has already been redeemed.")
}

func TestRedeemNotEnoughCheckins(t *testing.T) {
	h, mock := newRedeemHandler(t)
	mock.ExpectExec("UPDATE user_rewards SET status = 'redeemed'").
		WithArgs(sqlmock.AnyArg(), 99, 7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT ur.status, rw.name FROM user_rewards").
		WithArgs(99, 7).
		WillReturnRows(sqlmock.NewRows([]string{"status", "name"}).AddRow("in_progress", "Free Beer"))

	c, rec := postJSON(t, "/v1/redeem-reward", `{"user_reward_id":99}`, model.PermanentCaller{ID: 7})
	require.NoError(t, h.Redeem(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "You haven't earned enough check-ins yet.")
}

func TestRedeemUnknownReward(t *testing.T) {
	h, mock := newRedeemHandler(t)
	mock.ExpectExec("UPDATE user_rewards SET status = 'redeemed'").
		WithArgs(sqlmock.AnyArg(), 404, 7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT ur.status, rw.name FROM user_rewards").
		WithArgs(404, 7).
		WillReturnRows(sqlmock.NewRows([]string{"status", "name"}))

	c, rec := postJSON(t, "/v1/redeem-reward", `{"user_reward_id":404}`, model.PermanentCaller{ID: 7})
	require.NoError(t, h.Redeem(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
