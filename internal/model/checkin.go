package model

import "time"

// CheckinValidityWindow is how long an accepted check-in counts toward
// a venue's crowd level.  CheckinCooldownWindow is the minimum time
// between two accepted check-ins for the same user (or device) at the
// same venue.  Both are two hours; they are distinct constants because
// they guard different behaviors.
const (
	CheckinValidityWindow = 2 * time.Hour
	CheckinCooldownWindow = 2 * time.Hour
)

// Checkin records a user (or anonymous device) presenting at a venue.
// Rows are written once by admission and never deleted; they double as
// check-in history.  IsActive is a cached projection of
// `now < ExpiresAt` maintained by the expiry sweeper.  Read paths must
// filter on ExpiresAt, never trust the flag.
//
// Fields:
//  ID          – primary key identifier.
//  VenueID     – venue checked in at.
//  UserID      – user who checked in (nullable for legacy rows).
//  DeviceHash  – fingerprint of the checking-in device (nullable).
//  CheckedInAt – when the check-in was accepted.
//  ExpiresAt   – CheckedInAt + CheckinValidityWindow.
//  IsActive    – cached expiry flag, see above.
//  CreatedAt   – timestamp of row creation.
type Checkin struct {
	ID          uint64     // checkins.id
	VenueID     uint64     // checkins.venue_id
	UserID      *uint64    // checkins.user_id (nullable)
	DeviceHash  *string    // checkins.device_hash (nullable)
	CheckedInAt time.Time  // checkins.checked_in_at
	ExpiresAt   time.Time  // checkins.expires_at
	IsActive    bool       // checkins.is_active (cache of now < expires_at)
	CreatedAt   time.Time  // checkins.created_at
}

// Valid reports whether the check-in still counts toward crowd level
// at the given instant.  This is the authoritative expiry computation;
// IsActive is only a materialized copy of it.
func (c Checkin) Valid(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}
