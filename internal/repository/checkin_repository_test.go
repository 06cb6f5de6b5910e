package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barwethereyet/checkin-api/internal/model"
)

func newMock(t *testing.T) (*CheckinRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewCheckinRepo(db), mock
}

var (
	existsUserQ   = regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM checkins WHERE venue_id = ? AND user_id = ? AND checked_in_at > ?)`)
	existsDeviceQ = regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM checkins WHERE venue_id = ? AND device_hash = ? AND checked_in_at > ?)`)
	lockQ         = regexp.QuoteMeta(`INSERT INTO checkin_locks (venue_id, subject, bucket) VALUES (?, ?, ?)`)
	insertQ       = regexp.QuoteMeta(`INSERT INTO checkins (venue_id, user_id, device_hash, checked_in_at, expires_at, is_active) VALUES (?, ?, ?, ?, ?, 1)`)
)

func existsRow(v bool) *sqlmock.Rows {
	n := 0
	if v {
		n = 1
	}
	return sqlmock.NewRows([]string{"exists"}).AddRow(n)
}

func TestAdmitHappyPath(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)
	hash := "abc123"

	mock.ExpectBegin()
	mock.ExpectQuery(existsUserQ).WithArgs(1, 7, now.Add(-model.CheckinCooldownWindow)).WillReturnRows(existsRow(false))
	mock.ExpectQuery(existsDeviceQ).WithArgs(1, hash, now.Add(-model.CheckinCooldownWindow)).WillReturnRows(existsRow(false))
	bucket := now.Unix() / int64(model.CheckinCooldownWindow/time.Second)
	mock.ExpectExec(lockQ).WithArgs(1, "u:7", bucket).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(lockQ).WithArgs(1, "d:"+hash, bucket).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(insertQ).WithArgs(1, 7, hash, now, now.Add(model.CheckinValidityWindow)).WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	ck, err := repo.Admit(context.Background(), 1, 7, &hash, now)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), ck.ID)
	assert.Equal(t, now.Add(model.CheckinValidityWindow), ck.ExpiresAt)
	assert.True(t, ck.Valid(now))
	assert.False(t, ck.Valid(now.Add(model.CheckinValidityWindow)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmitUserCooldownRejected(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(existsUserQ).WithArgs(1, 7, sqlmock.AnyArg()).WillReturnRows(existsRow(true))
	mock.ExpectRollback()

	_, err := repo.Admit(context.Background(), 1, 7, nil, now)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmitDeviceCooldownRejected(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()
	hash := "shared-phone"

	mock.ExpectBegin()
	mock.ExpectQuery(existsUserQ).WithArgs(1, 8, sqlmock.AnyArg()).WillReturnRows(existsRow(false))
	mock.ExpectQuery(existsDeviceQ).WithArgs(1, hash, sqlmock.AnyArg()).WillReturnRows(existsRow(true))
	mock.ExpectRollback()

	_, err := repo.Admit(context.Background(), 1, 8, &hash, now)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Two concurrent admissions race past the lookback; the loser's guard
// row insert collides on the unique key and surfaces as a cooldown
// rejection.
func TestAdmitRaceLoserGetsCooldownError(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(existsUserQ).WithArgs(1, 7, sqlmock.AnyArg()).WillReturnRows(existsRow(false))
	mock.ExpectExec(lockQ).WithArgs(1, "u:7", sqlmock.AnyArg()).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))
	mock.ExpectRollback()

	_, err := repo.Admit(context.Background(), 1, 7, nil, now)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveCountUsesExpiry(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM checkins WHERE venue_id = ? AND expires_at > ?`)).
		WithArgs(3, now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := repo.ActiveCount(context.Background(), 3, now)
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestSweepExpiredReturnsPerVenueCounts(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT venue_id, COUNT(*) FROM checkins WHERE is_active = 1 AND expires_at <= ? GROUP BY venue_id`)).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"venue_id", "count"}).AddRow(1, 3).AddRow(2, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM checkin_locks WHERE bucket < ?`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE checkins SET is_active = 0 WHERE is_active = 1 AND expires_at <= ?`)).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	expired, err := repo.SweepExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, map[uint64]int{1: 3, 2: 1}, expired)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Guard rows never get a second chance to arbitrate once their bucket
// has passed, so every sweep drops buckets older than the previous
// one, even when no check-in expired.
func TestSweepExpiredPurgesStaleLockBuckets(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)
	staleBefore := now.Unix()/int64(model.CheckinCooldownWindow/time.Second) - 1

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT venue_id, COUNT(*) FROM checkins`)).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"venue_id", "count"}))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM checkin_locks WHERE bucket < ?`)).
		WithArgs(staleBefore).
		WillReturnResult(sqlmock.NewResult(0, 17))
	mock.ExpectCommit()

	expired, err := repo.SweepExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, expired)
	require.NoError(t, mock.ExpectationsWereMet())
}
