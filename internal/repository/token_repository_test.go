package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenMock(t *testing.T) (*TokenRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTokenRepo(db), mock
}

var validateQ = regexp.QuoteMeta(`SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1`)

func TestValidateRefreshResolvesUser(t *testing.T) {
	repo, mock := newTokenMock(t)
	mock.ExpectQuery(validateQ).WithArgs("h1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(7, time.Now().UTC().Add(time.Hour), nil))

	userID, err := repo.ValidateRefresh(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), userID)
}

// Unknown, revoked and expired hashes are indistinguishable to the
// caller: all three are just an invalid refresh token.
func TestValidateRefreshInvalidCases(t *testing.T) {
	repo, mock := newTokenMock(t)

	mock.ExpectQuery(validateQ).WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}))
	_, err := repo.ValidateRefresh(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrRefreshInvalid)

	mock.ExpectQuery(validateQ).WithArgs("revoked").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(7, time.Now().UTC().Add(time.Hour), time.Now().UTC().Add(-time.Minute)))
	_, err = repo.ValidateRefresh(context.Background(), "revoked")
	assert.ErrorIs(t, err, ErrRefreshInvalid)

	mock.ExpectQuery(validateQ).WithArgs("expired").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(7, time.Now().UTC().Add(-time.Minute), nil))
	_, err = repo.ValidateRefresh(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrRefreshInvalid)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeByHashIsIdempotent(t *testing.T) {
	repo, mock := newTokenMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL`)).
		WithArgs(sqlmock.AnyArg(), "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.RevokeByHash(context.Background(), "gone"))
	require.NoError(t, mock.ExpectationsWereMet())
}
