package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/barwethereyet/checkin-api/internal/model"
)

// UserRewardRepo provides data access to the user_rewards table, the
// per-user per-reward progress ledger.  The table carries
// UNIQUE KEY (user_id, reward_id); every mutation here leans on that
// key plus single conditional statements so that concurrent check-ins
// or redemption double-taps cannot corrupt a ledger row.
type UserRewardRepo struct {
	db *sql.DB
}

// NewUserRewardRepo returns a new UserRewardRepo bound to the given
// database.
func NewUserRewardRepo(db *sql.DB) *UserRewardRepo { return &UserRewardRepo{db: db} }

// Advance credits one qualifying check-in toward a reward.  It is a
// single atomic upsert: a missing row is created at count 1, an
// existing row is incremented and its status recomputed, and a
// redeemed row is left untouched (frozen, no further accrual).  The
// read-modify-write happens entirely inside the database, so two
// concurrent check-in events for the same user and reward both land.
//
// In the ON DUPLICATE KEY branch MySQL applies assignments left to
// right, so the status expression sees the already-incremented
// checkins_completed while still reading the pre-update status.
func (r *UserRewardRepo) Advance(ctx context.Context, userID, rewardID, venueID uint64, required uint32) error {
	const q = `INSERT INTO user_rewards (user_id, reward_id, venue_id, checkins_completed, status)
	           VALUES (?, ?, ?, 1, IF(1 >= ?, 'redeemable', 'in_progress'))
	           ON DUPLICATE KEY UPDATE
	             checkins_completed = IF(status = 'redeemed', checkins_completed, checkins_completed + 1),
	             status = IF(status = 'redeemed', 'redeemed', IF(checkins_completed >= ?, 'redeemable', 'in_progress'))`
	_, err := r.db.ExecContext(ctx, q, userID, rewardID, venueID, required, required)
	return err
}

// Redemption carries the fields returned to a caller after a
// successful redemption.
type Redemption struct {
	UserRewardID uint64    `json:"user_reward_id"`
	RewardName   string    `json:"reward_name"`
	RedeemedAt   time.Time `json:"redeemed_at"`
}

// Redeem transitions a user reward from redeemable to redeemed exactly
// once.  The transition is a single conditional update guarded on both
// ownership and status, so of two concurrent redemption calls only one
// can see rows-affected = 1; the loser re-reads the row and observes
// either ErrRewardNotFound (missing or not owned) or ErrNotRedeemable.
// The status observed on failure is returned alongside
// ErrNotRedeemable so handlers can tell "not enough check-ins yet"
// apart from "already redeemed".
func (r *UserRewardRepo) Redeem(ctx context.Context, userRewardID, userID uint64, now time.Time) (Redemption, model.RewardStatus, error) {
	nowUTC := now.UTC()
	const upd = `UPDATE user_rewards SET status = 'redeemed', redeemed_at = ? WHERE id = ? AND user_id = ? AND status = 'redeemable'`
	res, err := r.db.ExecContext(ctx, upd, nowUTC, userRewardID, userID)
	if err != nil {
		return Redemption{}, "", err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Redemption{}, "", err
	}

	const sel = `SELECT ur.status, rw.name FROM user_rewards ur JOIN rewards rw ON rw.id = ur.reward_id WHERE ur.id = ? AND ur.user_id = ?`
	var (
		status model.RewardStatus
		name   string
	)
	if err := r.db.QueryRowContext(ctx, sel, userRewardID, userID).Scan(&status, &name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Redemption{}, "", ErrRewardNotFound
		}
		return Redemption{}, "", err
	}
	if affected == 0 {
		// Conditional update did not fire: the row exists and is owned
		// but was not redeemable at update time.
		return Redemption{}, status, ErrNotRedeemable
	}
	return Redemption{UserRewardID: userRewardID, RewardName: name, RedeemedAt: nowUTC}, status, nil
}

const userRewardColumns = "id, user_id, reward_id, venue_id, checkins_completed, status, redeemed_at, created_at, updated_at"

func scanUserReward(scan func(dest ...any) error) (model.UserReward, error) {
	var (
		ur       model.UserReward
		redeemed sql.NullTime
	)
	err := scan(&ur.ID, &ur.UserID, &ur.RewardID, &ur.VenueID, &ur.CheckinsCompleted, &ur.Status, &redeemed, &ur.CreatedAt, &ur.UpdatedAt)
	if err != nil {
		return model.UserReward{}, err
	}
	if redeemed.Valid {
		t := redeemed.Time
		ur.RedeemedAt = &t
	}
	return ur, nil
}

// ProgressByVenue returns the caller's progress rows for a venue keyed
// by reward ID, for merging into the public reward listing.
func (r *UserRewardRepo) ProgressByVenue(ctx context.Context, userID, venueID uint64) (map[uint64]model.UserReward, error) {
	const q = "SELECT " + userRewardColumns + " FROM user_rewards WHERE user_id = ? AND venue_id = ?"
	rows, err := r.db.QueryContext(ctx, q, userID, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	progress := make(map[uint64]model.UserReward)
	for rows.Next() {
		ur, err := scanUserReward(rows.Scan)
		if err != nil {
			return nil, err
		}
		progress[ur.RewardID] = ur
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return progress, nil
}

// UserRewardDetail pairs a progress row with its reward's display
// fields.  It is returned by ListByUser for display to users, so it
// carries json tags directly like other listing types.
type UserRewardDetail struct {
	ID                uint64             `json:"id"`
	RewardID          uint64             `json:"reward_id"`
	VenueID           uint64             `json:"venue_id"`
	CheckinsCompleted uint32             `json:"checkins_completed"`
	Status            model.RewardStatus `json:"status"`
	RedeemedAt        *string            `json:"redeemed_at,omitempty"`
	RewardName        string             `json:"reward_name"`
	CheckinsRequired  uint32             `json:"checkins_required"`
	UpdatedAt         string             `json:"updated_at"`
}

// ListByUser returns all of a user's reward ledgers, most recently
// updated first.
func (r *UserRewardRepo) ListByUser(ctx context.Context, userID uint64) ([]UserRewardDetail, error) {
	const q = `SELECT ur.id, ur.reward_id, ur.venue_id, ur.checkins_completed, ur.status, ur.redeemed_at, ur.updated_at,
	                  rw.name, rw.checkins_required
	           FROM user_rewards ur
	           JOIN rewards rw ON rw.id = ur.reward_id
	           WHERE ur.user_id = ?
	           ORDER BY ur.updated_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]UserRewardDetail, 0)
	for rows.Next() {
		var (
			d         UserRewardDetail
			redeemed  sql.NullTime
			updatedAt time.Time
		)
		if err := rows.Scan(&d.ID, &d.RewardID, &d.VenueID, &d.CheckinsCompleted, &d.Status, &redeemed, &updatedAt,
			&d.RewardName, &d.CheckinsRequired); err != nil {
			return nil, err
		}
		if redeemed.Valid {
			iso := redeemed.Time.UTC().Format(time.RFC3339)
			d.RedeemedAt = &iso
		}
		d.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
