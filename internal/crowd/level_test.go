package crowd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForCount(t *testing.T) {
	cases := []struct {
		count int
		want  Level
	}{
		{-1, LevelEmpty},
		{0, LevelEmpty},
		{1, LevelChill},
		{5, LevelChill},
		{6, LevelGettingBusy},
		{15, LevelGettingBusy},
		{16, LevelBusy},
		{30, LevelBusy},
		{31, LevelPacked},
		{120, LevelPacked},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelForCount(tc.count), "count=%d", tc.count)
	}
}

func TestApplyDeltaFloorsAtZero(t *testing.T) {
	assert.Equal(t, 3, ApplyDelta(2, 1))
	assert.Equal(t, 1, ApplyDelta(2, -1))
	assert.Equal(t, 0, ApplyDelta(0, -1))
	assert.Equal(t, 0, ApplyDelta(2, -5))
}

// A stale -1 arriving after the count already hit zero must not push a
// subscriber's view negative, and the next +1 starts from zero again.
func TestApplyDeltaStaleExpiry(t *testing.T) {
	count := 1
	count = ApplyDelta(count, -1)
	count = ApplyDelta(count, -1) // duplicate delivery
	assert.Equal(t, 0, count)
	count = ApplyDelta(count, 1)
	assert.Equal(t, 1, count)
}
