package reward

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barwethereyet/checkin-api/internal/model"
)

type stubRewards struct {
	rewards []model.Reward
	err     error
}

func (s *stubRewards) ActiveByVenue(ctx context.Context, venueID uint64) ([]model.Reward, error) {
	return s.rewards, s.err
}

type advanceCall struct {
	userID, rewardID, venueID uint64
	required                  uint32
}

type stubProgress struct {
	calls  []advanceCall
	failOn uint64 // reward ID that returns an error
}

func (s *stubProgress) Advance(ctx context.Context, userID, rewardID, venueID uint64, required uint32) error {
	s.calls = append(s.calls, advanceCall{userID, rewardID, venueID, required})
	if s.failOn != 0 && rewardID == s.failOn {
		return errors.New("deadlock")
	}
	return nil
}

type stubPoints struct {
	credited uint64
	err      error
}

func (s *stubPoints) IncrementPoints(ctx context.Context, userID uint64, points uint64) error {
	s.credited += points
	return s.err
}

func venueRewards() []model.Reward {
	return []model.Reward{
		{ID: 10, VenueID: 1, Name: "Free Beer", CheckinsRequired: 5},
		{ID: 11, VenueID: 1, Name: "Free Pizza", CheckinsRequired: 10},
	}
}

func TestOnCheckinAcceptedAdvancesEveryActiveReward(t *testing.T) {
	rewards := &stubRewards{rewards: venueRewards()}
	progress := &stubProgress{}
	points := &stubPoints{}
	p := NewProgression(rewards, progress, points)

	err := p.OnCheckinAccepted(context.Background(), 7, 1)
	require.NoError(t, err)

	require.Len(t, progress.calls, 2)
	assert.Equal(t, advanceCall{7, 10, 1, 5}, progress.calls[0])
	assert.Equal(t, advanceCall{7, 11, 1, 10}, progress.calls[1])
	assert.Equal(t, uint64(1), points.credited)
}

func TestOnCheckinAcceptedRewardsAreIndependent(t *testing.T) {
	rewards := &stubRewards{rewards: venueRewards()}
	progress := &stubProgress{failOn: 10}
	p := NewProgression(rewards, progress, nil)

	err := p.OnCheckinAccepted(context.Background(), 7, 1)
	assert.Error(t, err)
	// The failure on the first reward must not block the second.
	require.Len(t, progress.calls, 2)
	assert.Equal(t, uint64(11), progress.calls[1].rewardID)
}

func TestOnCheckinAcceptedNoActiveRewards(t *testing.T) {
	progress := &stubProgress{}
	p := NewProgression(&stubRewards{}, progress, nil)

	err := p.OnCheckinAccepted(context.Background(), 7, 1)
	assert.NoError(t, err)
	assert.Empty(t, progress.calls)
}

func TestOnCheckinAcceptedLoadFailure(t *testing.T) {
	p := NewProgression(&stubRewards{err: errors.New("down")}, &stubProgress{}, nil)
	err := p.OnCheckinAccepted(context.Background(), 7, 1)
	assert.Error(t, err)
}

func TestOnCheckinAcceptedPointFailureIsSwallowed(t *testing.T) {
	rewards := &stubRewards{rewards: venueRewards()}
	points := &stubPoints{err: errors.New("down")}
	p := NewProgression(rewards, &stubProgress{}, points)

	err := p.OnCheckinAccepted(context.Background(), 7, 1)
	assert.NoError(t, err)
}
