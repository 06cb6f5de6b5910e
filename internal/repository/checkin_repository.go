package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/barwethereyet/checkin-api/internal/model"
)

// CheckinRepo provides data access to the checkins table and the
// checkin_locks guard table.  All timestamp comparisons are performed
// in UTC; callers must pass UTC instants.
//
// Admission atomicity: the cooldown rule ("at most one accepted
// check-in per subject per venue per 2h window") is enforced twice
// inside one transaction.  A wall-clock lookback query rejects the
// common case, and guard rows in checkin_locks with
// PRIMARY KEY (venue_id, subject, bucket) close the race: two
// concurrent admissions for the same subject fall into the same time
// bucket, so the second insert fails with a duplicate key error and is
// mapped to ErrAlreadyCheckedIn.  "Subject" is either "u:<user_id>" or
// "d:<device_hash>", keeping the user and device gates independent.
type CheckinRepo struct {
	db *sql.DB
}

// NewCheckinRepo returns a new CheckinRepo bound to the given database.
func NewCheckinRepo(db *sql.DB) *CheckinRepo { return &CheckinRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *CheckinRepo) DB() *sql.DB { return r.db }

// userSubject and deviceSubject build checkin_locks subject keys.  The
// prefixes keep a user id from ever colliding with a device hash.
func userSubject(userID uint64) string    { return fmt.Sprintf("u:%d", userID) }
func deviceSubject(deviceHash string) string { return "d:" + deviceHash }

// cooldownBucket maps an instant to its cooldown time bucket.  Two
// admissions within the same window virtually always share a bucket,
// which is what makes the unique guard effective against races.
func cooldownBucket(now time.Time) int64 {
	return now.Unix() / int64(model.CheckinCooldownWindow/time.Second)
}

// isDuplicateKey reports whether the error is a MySQL duplicate key
// violation (error 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// Admit records a check-in for the given subject at the given venue,
// enforcing the cooldown window for both the user and, when present,
// the device fingerprint.  The whole operation runs in one
// transaction: either the check-in row and its guard rows all commit,
// or nothing does.  On cooldown violation (observed or raced) it
// returns ErrAlreadyCheckedIn.  The returned record has ExpiresAt set
// to now + the validity window.
func (r *CheckinRepo) Admit(ctx context.Context, venueID, userID uint64, deviceHash *string, now time.Time) (model.Checkin, error) {
	now = now.UTC()
	since := now.Add(-model.CheckinCooldownWindow)
	expiresAt := now.Add(model.CheckinValidityWindow)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Checkin{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lookback gate: rejects any check-in inside the window regardless
	// of bucket boundaries.  Evaluated against checked_in_at, not the
	// validity expiry, so it is independent of crowd aggregation.
	var exists bool
	const userQ = `SELECT EXISTS(SELECT 1 FROM checkins WHERE venue_id = ? AND user_id = ? AND checked_in_at > ?)`
	if err := tx.QueryRowContext(ctx, userQ, venueID, userID, since).Scan(&exists); err != nil {
		return model.Checkin{}, err
	}
	if exists {
		return model.Checkin{}, ErrAlreadyCheckedIn
	}
	if deviceHash != nil && *deviceHash != "" {
		const deviceQ = `SELECT EXISTS(SELECT 1 FROM checkins WHERE venue_id = ? AND device_hash = ? AND checked_in_at > ?)`
		if err := tx.QueryRowContext(ctx, deviceQ, venueID, *deviceHash, since).Scan(&exists); err != nil {
			return model.Checkin{}, err
		}
		if exists {
			return model.Checkin{}, ErrAlreadyCheckedIn
		}
	}

	// Race gate: guard rows under a unique key.  The losing writer of
	// two concurrent admissions surfaces here as a duplicate key.
	bucket := cooldownBucket(now)
	subjects := []string{userSubject(userID)}
	if deviceHash != nil && *deviceHash != "" {
		subjects = append(subjects, deviceSubject(*deviceHash))
	}
	const lockQ = `INSERT INTO checkin_locks (venue_id, subject, bucket) VALUES (?, ?, ?)`
	for _, subject := range subjects {
		if _, err := tx.ExecContext(ctx, lockQ, venueID, subject, bucket); err != nil {
			if isDuplicateKey(err) {
				return model.Checkin{}, ErrAlreadyCheckedIn
			}
			return model.Checkin{}, err
		}
	}

	const insQ = `INSERT INTO checkins (venue_id, user_id, device_hash, checked_in_at, expires_at, is_active) VALUES (?, ?, ?, ?, ?, 1)`
	res, err := tx.ExecContext(ctx, insQ, venueID, userID, deviceHash, now, expiresAt)
	if err != nil {
		return model.Checkin{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Checkin{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Checkin{}, err
	}
	committed = true

	uid := userID
	ck := model.Checkin{
		ID:          uint64(id),
		VenueID:     venueID,
		UserID:      &uid,
		DeviceHash:  deviceHash,
		CheckedInAt: now,
		ExpiresAt:   expiresAt,
		IsActive:    true,
		CreatedAt:   now,
	}
	return ck, nil
}

// ActiveCount returns the number of currently-valid check-ins at a
// venue.  Validity is recomputed from expires_at at query time; the
// is_active column is never consulted here because it is only a cache
// maintained by the sweeper.
func (r *CheckinRepo) ActiveCount(ctx context.Context, venueID uint64, now time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM checkins WHERE venue_id = ? AND expires_at > ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, venueID, now.UTC()).Scan(&n)
	return n, err
}

const checkinColumns = "id, venue_id, user_id, device_hash, checked_in_at, expires_at, is_active, created_at"

func scanCheckins(rows *sql.Rows) ([]model.Checkin, error) {
	defer rows.Close()
	out := make([]model.Checkin, 0)
	for rows.Next() {
		var (
			c    model.Checkin
			uid  sql.NullInt64
			hash sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.VenueID, &uid, &hash, &c.CheckedInAt, &c.ExpiresAt, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		if uid.Valid {
			u := uint64(uid.Int64)
			c.UserID = &u
		}
		if hash.Valid {
			h := hash.String
			c.DeviceHash = &h
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns a user's check-in history, newest first.
func (r *CheckinRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Checkin, error) {
	const q = "SELECT " + checkinColumns + " FROM checkins WHERE user_id = ? ORDER BY checked_in_at DESC"
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanCheckins(rows)
}

// RecentByVenue returns the most recent check-ins at a venue, newest
// first, capped at limit.
func (r *CheckinRepo) RecentByVenue(ctx context.Context, venueID uint64, limit int) ([]model.Checkin, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = "SELECT " + checkinColumns + " FROM checkins WHERE venue_id = ? ORDER BY checked_in_at DESC LIMIT ?"
	rows, err := r.db.QueryContext(ctx, q, venueID, limit)
	if err != nil {
		return nil, err
	}
	return scanCheckins(rows)
}

// SweepExpired flips is_active to 0 for check-ins whose validity
// window has passed and returns, per venue, how many rows crossed
// expiry in this sweep.  The flag is purely a materialized cache for
// cheap dashboard queries; correctness never depends on when the sweep
// runs.  The per-venue counts feed the -1 crowd deltas pushed to live
// subscribers.
//
// The sweep also purges checkin_locks guard rows from buckets before
// the previous one.  A guard row only arbitrates races inside its own
// bucket, so anything older is dead weight; keeping the previous
// bucket costs nothing and avoids reasoning about sweeps racing a
// bucket boundary.
func (r *CheckinRepo) SweepExpired(ctx context.Context, now time.Time) (map[uint64]int, error) {
	nowUTC := now.UTC()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const sel = `SELECT venue_id, COUNT(*) FROM checkins WHERE is_active = 1 AND expires_at <= ? GROUP BY venue_id`
	rows, err := tx.QueryContext(ctx, sel, nowUTC)
	if err != nil {
		return nil, err
	}
	expired := make(map[uint64]int)
	for rows.Next() {
		var (
			venueID uint64
			n       int
		)
		if scanErr := rows.Scan(&venueID, &n); scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		expired[venueID] = n
	}
	if err = rows.Close(); err != nil {
		return nil, err
	}

	const purge = `DELETE FROM checkin_locks WHERE bucket < ?`
	if _, err := tx.ExecContext(ctx, purge, cooldownBucket(nowUTC)-1); err != nil {
		return nil, err
	}

	if len(expired) > 0 {
		const upd = `UPDATE checkins SET is_active = 0 WHERE is_active = 1 AND expires_at <= ?`
		if _, err := tx.ExecContext(ctx, upd, nowUTC); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return expired, nil
}
