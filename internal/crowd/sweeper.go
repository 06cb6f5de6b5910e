package crowd

import (
	"context"
	"log"
	"time"

	"github.com/barwethereyet/checkin-api/internal/repository"
)

// Sweeper periodically flips the is_active cache flag on check-ins
// whose validity window has passed and pushes the matching -1 deltas.
// Nothing reads is_active for correctness, so a missed or late sweep
// only delays the push-model update, never the pull-model answer.
type Sweeper struct {
	checkins *repository.CheckinRepo
	agg      *Aggregator
	interval time.Duration
}

// NewSweeper constructs a Sweeper.  A non-positive interval defaults
// to five seconds, keeping push-model lag within the few-seconds bound
// the live displays expect.
func NewSweeper(checkins *repository.CheckinRepo, agg *Aggregator, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Sweeper{checkins: checkins, agg: agg, interval: interval}
}

// Run blocks, sweeping on every tick until ctx is cancelled.  Sweep
// errors are logged and the loop keeps running; transient database
// trouble must not kill expiry processing for good.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	expired, err := s.checkins.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("crowd-sweeper: sweep failed: %v", err)
		return
	}
	for venueID, n := range expired {
		s.agg.NoteExpiry(ctx, venueID, n)
	}
}
