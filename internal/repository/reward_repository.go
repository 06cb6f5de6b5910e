package repository

import (
	"context"
	"database/sql"

	"github.com/barwethereyet/checkin-api/internal/model"
)

// RewardRepo provides read access to the rewards table.  Rewards are
// configured by venue admins elsewhere; this engine only consumes them
// to drive progression and redemption.
type RewardRepo struct {
	db *sql.DB
}

// NewRewardRepo returns a new RewardRepo bound to the given database.
func NewRewardRepo(db *sql.DB) *RewardRepo { return &RewardRepo{db: db} }

const rewardColumns = "id, venue_id, name, description, checkins_required, is_active, created_at"

// ActiveByVenue returns all active rewards for a venue ordered by the
// number of check-ins required.  Progression iterates this list on
// every accepted check-in, so a reward deactivated by the admin stops
// accruing immediately.
func (r *RewardRepo) ActiveByVenue(ctx context.Context, venueID uint64) ([]model.Reward, error) {
	const q = "SELECT " + rewardColumns + " FROM rewards WHERE venue_id = ? AND is_active = 1 ORDER BY checkins_required"
	rows, err := r.db.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rewards := make([]model.Reward, 0)
	for rows.Next() {
		var (
			rw   model.Reward
			desc sql.NullString
		)
		if err := rows.Scan(&rw.ID, &rw.VenueID, &rw.Name, &desc, &rw.CheckinsRequired, &rw.IsActive, &rw.CreatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			rw.Description = &d
		}
		rewards = append(rewards, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rewards, nil
}
