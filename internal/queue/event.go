// Package queue defines message payloads exchanged over the message broker.
package queue

// CheckinAcceptedEvent is published after a check-in has durably
// committed. It contains enough information for downstream consumers
// to audit-log, reconcile reward progress, or feed analytics without
// querying the primary database. Anonymous check-ins are published
// too (they move the crowd signal) with Anonymous set so consumers
// know no reward progress can be attached.
type CheckinAcceptedEvent struct {
	CheckinID   uint64 `json:"checkin_id"`
	VenueID     uint64 `json:"venue_id"`
	VenueName   string `json:"venue_name"`
	UserID      uint64 `json:"user_id"`
	Anonymous   bool   `json:"anonymous"`
	CheckedInAt string `json:"checked_in_at"`
	ExpiresAt   string `json:"expires_at"`
	CrowdCount  int    `json:"crowd_count"`
}
