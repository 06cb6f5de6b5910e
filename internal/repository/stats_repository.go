package repository

import (
	"context"
	"database/sql"
	"time"
)

// StatsRepo derives venue visit statistics from the checkins table.
// Check-ins are never deleted, so the raw table doubles as the history
// these aggregates read from.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo returns a new StatsRepo bound to the given database.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// TodayStats summarizes a venue's traffic for one calendar day (UTC).
type TodayStats struct {
	TotalCheckins  int `json:"total_checkins"`
	UniqueVisitors int `json:"unique_visitors"`
	RepeatVisitors int `json:"repeat_visitors"`
}

// Today aggregates check-ins since midnight UTC of the given instant.
// Unique visitors counts distinct non-null user IDs; repeat visitors
// counts those of today's visitors who also checked in at this venue
// before today.
func (r *StatsRepo) Today(ctx context.Context, venueID uint64, now time.Time) (TodayStats, error) {
	nowUTC := now.UTC()
	dayStart := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), 0, 0, 0, 0, time.UTC)

	var s TodayStats
	const totalQ = `SELECT COUNT(*), COUNT(DISTINCT user_id) FROM checkins WHERE venue_id = ? AND checked_in_at >= ?`
	if err := r.db.QueryRowContext(ctx, totalQ, venueID, dayStart).Scan(&s.TotalCheckins, &s.UniqueVisitors); err != nil {
		return TodayStats{}, err
	}

	const repeatQ = `SELECT COUNT(*) FROM (
	                   SELECT DISTINCT c.user_id
	                   FROM checkins c
	                   WHERE c.venue_id = ? AND c.checked_in_at >= ? AND c.user_id IS NOT NULL
	                     AND EXISTS (
	                       SELECT 1 FROM checkins p
	                       WHERE p.venue_id = c.venue_id AND p.user_id = c.user_id AND p.checked_in_at < ?
	                     )
	                 ) repeats`
	if err := r.db.QueryRowContext(ctx, repeatQ, venueID, dayStart, dayStart).Scan(&s.RepeatVisitors); err != nil {
		return TodayStats{}, err
	}
	return s, nil
}
