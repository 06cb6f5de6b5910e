// Package reward advances users' reward progress in response to
// accepted check-ins.
package reward

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/barwethereyet/checkin-api/internal/model"
)

// RewardSource lists the rewards that accrue progress at a venue.
// Satisfied by *repository.RewardRepo.
type RewardSource interface {
	ActiveByVenue(ctx context.Context, venueID uint64) ([]model.Reward, error)
}

// ProgressStore applies one atomic progress increment.  Satisfied by
// *repository.UserRewardRepo.
type ProgressStore interface {
	Advance(ctx context.Context, userID, rewardID, venueID uint64, required uint32) error
}

// PointsStore credits lifetime check-in points.  Satisfied by
// *repository.UserRepo.
type PointsStore interface {
	IncrementPoints(ctx context.Context, userID uint64, points uint64) error
}

// Progression fans one accepted check-in out to every active reward at
// the venue.  It is invoked only for permanent callers; anonymous
// check-ins never reach it.  Rewards are independent ledgers: each
// Advance stands alone, a failure on one reward never rolls back or
// blocks the others.  Callers treat the whole step as supplementary to
// admission: errors are logged (and may be retried via the
// checkin.accepted queue), never surfaced as a check-in failure.
type Progression struct {
	rewards  RewardSource
	progress ProgressStore
	points   PointsStore
}

// NewProgression constructs a Progression.  points may be nil to skip
// lifetime point crediting.
func NewProgression(rewards RewardSource, progress ProgressStore, points PointsStore) *Progression {
	if rewards == nil || progress == nil {
		panic("nil dependency passed to NewProgression")
	}
	return &Progression{rewards: rewards, progress: progress, points: points}
}

// OnCheckinAccepted advances every active reward at the venue for the
// user.  Per-reward failures are logged and collected; the joined
// error lets an out-of-band retry (queue consumer) decide to redeliver
// while the HTTP path just logs it.
func (p *Progression) OnCheckinAccepted(ctx context.Context, userID, venueID uint64) error {
	rewards, err := p.rewards.ActiveByVenue(ctx, venueID)
	if err != nil {
		return fmt.Errorf("load active rewards for venue %d: %w", venueID, err)
	}

	var errs []error
	for _, rw := range rewards {
		if err := p.progress.Advance(ctx, userID, rw.ID, venueID, rw.CheckinsRequired); err != nil {
			log.Printf("reward-progression: advance failed user=%d reward=%d venue=%d: %v", userID, rw.ID, venueID, err)
			errs = append(errs, fmt.Errorf("reward %d: %w", rw.ID, err))
		}
	}

	if p.points != nil {
		if err := p.points.IncrementPoints(ctx, userID, 1); err != nil {
			// Points are cosmetic; log and move on.
			log.Printf("reward-progression: point credit failed user=%d: %v", userID, err)
		}
	}
	return errors.Join(errs...)
}
