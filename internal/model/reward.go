package model

import "time"

// RewardStatus enumerates the lifecycle of a user's progress toward one
// reward.  Transitions are one-directional:
// in_progress -> redeemable -> redeemed.  A redeemed row is frozen and
// never accrues further check-ins.
type RewardStatus string

const (
	RewardInProgress RewardStatus = "in_progress"
	RewardRedeemable RewardStatus = "redeemable"
	RewardRedeemed   RewardStatus = "redeemed"
)

// Reward is a loyalty reward configured by a venue admin.  Read-only
// from this engine's perspective.
//
// Fields:
//  ID               – primary key identifier.
//  VenueID          – venue the reward belongs to.
//  Name             – display name ("Free pint after 5 visits").
//  Description      – optional longer description.
//  CheckinsRequired – qualifying check-ins needed to redeem (>= 1).
//  IsActive         – whether the reward currently accrues progress.
//  CreatedAt        – timestamp of creation.
type Reward struct {
	ID               uint64    // rewards.id
	VenueID          uint64    // rewards.venue_id
	Name             string    // rewards.name
	Description      *string   // rewards.description (nullable)
	CheckinsRequired uint32    // rewards.checkins_required
	IsActive         bool      // rewards.is_active
	CreatedAt        time.Time // rewards.created_at
}

// UserReward is one user's progress ledger for one reward.  There is
// exactly one row per (user, reward) pair, enforced by a unique key.
//
// Fields:
//  ID                – primary key identifier.
//  UserID            – owning user.
//  RewardID          – reward being progressed.
//  VenueID           – denormalized venue reference for per-venue listing.
//  CheckinsCompleted – count of qualifying check-ins; keeps counting past
//                      the requirement until the reward is redeemed.
//  Status            – in_progress / redeemable / redeemed.
//  RedeemedAt        – when the reward was redeemed (null until then).
//  CreatedAt         – timestamp of creation.
//  UpdatedAt         – timestamp of last update.
type UserReward struct {
	ID                uint64       // user_rewards.id
	UserID            uint64       // user_rewards.user_id
	RewardID          uint64       // user_rewards.reward_id
	VenueID           uint64       // user_rewards.venue_id
	CheckinsCompleted uint32       // user_rewards.checkins_completed
	Status            RewardStatus // user_rewards.status
	RedeemedAt        *time.Time   // user_rewards.redeemed_at (nullable)
	CreatedAt         time.Time    // user_rewards.created_at
	UpdatedAt         time.Time    // user_rewards.updated_at
}

// ProgressStatus computes the status implied by a completed-check-in
// count against a requirement, ignoring redemption.  Used when creating
// fresh progress rows and by tests as the reference law.
func ProgressStatus(completed, required uint32) RewardStatus {
	if completed >= required {
		return RewardRedeemable
	}
	return RewardInProgress
}
