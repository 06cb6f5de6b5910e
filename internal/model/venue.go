package model

import "time"

// Venue represents a physical location that patrons can check in at.
// Venues are created and edited by an out-of-band admin surface; this
// service only reads them.  Only venues with IsActive set accept
// check-ins.
//
// Fields:
//  ID        – primary key identifier.
//  Slug      – URL-safe unique identifier used in scannable links.
//  Name      – human-friendly display name.
//  IsActive  – whether the venue currently accepts check-ins.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Venue struct {
	ID        uint64    // venues.id
	Slug      string    // venues.slug
	Name      string    // venues.name
	IsActive  bool      // venues.is_active
	CreatedAt time.Time // venues.created_at
	UpdatedAt time.Time // venues.updated_at
}
