package crowd

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/barwethereyet/checkin-api/internal/repository"
)

// countCacheTTL bounds how far the cached count may lag behind the
// true recount.  A few seconds keeps the "real-time" promise while
// shielding the database from hot venues being polled by many clients.
const countCacheTTL = 3 * time.Second

// Snapshot is the pull-model answer for one venue.
type Snapshot struct {
	Count int   `json:"active_checkins"`
	Level Level `json:"crowd_level"`
}

// Aggregator computes crowd snapshots and fans out count deltas.  The
// recount against the checkins table is always authoritative; Redis
// provides only a short-lived count cache and the pub/sub fabric for
// the push model.  A nil Redis client degrades gracefully to pure
// recounts with no push, mirroring how rate limiting and response
// caching disable themselves without Redis.
type Aggregator struct {
	checkins *repository.CheckinRepo
	rdb      *redis.Client
}

// NewAggregator constructs an Aggregator.  rdb may be nil.
func NewAggregator(checkins *repository.CheckinRepo, rdb *redis.Client) *Aggregator {
	if checkins == nil {
		panic("nil checkin repository passed to NewAggregator")
	}
	return &Aggregator{checkins: checkins, rdb: rdb}
}

func countKey(venueID uint64) string   { return fmt.Sprintf("crowd:count:%d", venueID) }
func channelKey(venueID uint64) string { return fmt.Sprintf("crowd:%d", venueID) }

// Snapshot returns the venue's current count and level.  The count is
// recomputed from rows where now < expires_at; a Redis-cached value no
// older than countCacheTTL may be served instead.
func (a *Aggregator) Snapshot(ctx context.Context, venueID uint64) (Snapshot, error) {
	if a.rdb != nil {
		if s, err := a.rdb.Get(ctx, countKey(venueID)).Result(); err == nil {
			if n, convErr := strconv.Atoi(s); convErr == nil {
				return Snapshot{Count: n, Level: LevelForCount(n)}, nil
			}
		}
	}
	n, err := a.checkins.ActiveCount(ctx, venueID, time.Now().UTC())
	if err != nil {
		return Snapshot{}, err
	}
	if a.rdb != nil {
		if err := a.rdb.SetEx(ctx, countKey(venueID), strconv.Itoa(n), countCacheTTL).Err(); err != nil {
			log.Printf("crowd: cache set failed for venue %d: %v", venueID, err)
		}
	}
	return Snapshot{Count: n, Level: LevelForCount(n)}, nil
}

// publish drops the cached count and emits a signed delta on the
// venue's channel.  Push failures are logged and swallowed: the push
// model is an optimization, subscribers can always fall back to the
// pull path.
func (a *Aggregator) publish(ctx context.Context, venueID uint64, delta int) {
	if a.rdb == nil || delta == 0 {
		return
	}
	if err := a.rdb.Del(ctx, countKey(venueID)).Err(); err != nil {
		log.Printf("crowd: cache invalidate failed for venue %d: %v", venueID, err)
	}
	if err := a.rdb.Publish(ctx, channelKey(venueID), strconv.Itoa(delta)).Err(); err != nil {
		log.Printf("crowd: publish failed for venue %d: %v", venueID, err)
	}
}

// NoteAdmission records that one check-in was just accepted at the
// venue: invalidate the cached count and push +1 to subscribers.
func (a *Aggregator) NoteAdmission(ctx context.Context, venueID uint64) {
	a.publish(ctx, venueID, +1)
}

// NoteExpiry records that n check-ins at the venue crossed their
// expiry: invalidate the cached count and push -n to subscribers, who
// floor their running counts at zero via ApplyDelta.
func (a *Aggregator) NoteExpiry(ctx context.Context, venueID uint64, n int) {
	a.publish(ctx, venueID, -n)
}

// Subscribe delivers count deltas for one venue until ctx is
// cancelled.  The returned cancel func must be called to release the
// underlying pub/sub connection.  Returns an error when the push model
// is unavailable (no Redis).
func (a *Aggregator) Subscribe(ctx context.Context, venueID uint64) (<-chan int, func(), error) {
	if a.rdb == nil {
		return nil, nil, fmt.Errorf("crowd: push subscriptions unavailable without redis")
	}
	sub := a.rdb.Subscribe(ctx, channelKey(venueID))
	out := make(chan int)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			delta, err := strconv.Atoi(msg.Payload)
			if err != nil {
				log.Printf("crowd: bad delta payload %q on %s", msg.Payload, msg.Channel)
				continue
			}
			select {
			case out <- delta:
			case <-ctx.Done():
				return
			}
		}
	}()
	cancel := func() { _ = sub.Close() }
	return out, cancel, nil
}
