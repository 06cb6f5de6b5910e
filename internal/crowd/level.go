// Package crowd derives a venue's live crowd level from its
// currently-valid check-ins and pushes count deltas to subscribers.
package crowd

// Level is the discrete banding of a venue's active check-in count.
type Level string

const (
	LevelEmpty       Level = "empty"        // 0
	LevelChill       Level = "chill"        // 1-5
	LevelGettingBusy Level = "getting_busy" // 6-15
	LevelBusy        Level = "busy"         // 16-30
	LevelPacked      Level = "packed"       // 31+
)

// LevelForCount maps an active check-in count onto its band.  Bounds
// are inclusive on the lower edge of each band.
func LevelForCount(count int) Level {
	switch {
	case count <= 0:
		return LevelEmpty
	case count <= 5:
		return LevelChill
	case count <= 15:
		return LevelGettingBusy
	case count <= 30:
		return LevelBusy
	default:
		return LevelPacked
	}
}

// ApplyDelta folds a pushed delta into a running count, flooring at
// zero.  Display surfaces consuming the subscription feed use this so
// a late or duplicated -1 can never drive a count negative.
func ApplyDelta(count, delta int) int {
	count += delta
	if count < 0 {
		return 0
	}
	return count
}
