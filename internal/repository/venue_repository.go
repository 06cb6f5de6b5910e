// Package repository contains data access logic separated from HTTP handlers.
// This file defines repository methods for venue lookup. Venues are owned
// and edited by an out-of-band admin surface; this service treats them as
// read-only and only ever serves venues with is_active = 1.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/barwethereyet/checkin-api/internal/model"
)

// VenueRepo encapsulates all database queries related to venues.  It
// depends on a sql.DB connection which should be configured elsewhere.
type VenueRepo struct {
	db *sql.DB
}

// NewVenueRepo constructs a VenueRepo with the provided DB handle.  This
// function allows dependency injection of the database in tests and at
// startup.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

const venueColumns = "id, slug, name, is_active, created_at, updated_at"

func scanVenue(row *sql.Row) (model.Venue, error) {
	var v model.Venue
	err := row.Scan(&v.ID, &v.Slug, &v.Name, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Venue{}, ErrVenueNotFound
	}
	return v, err
}

// GetActiveByID returns the venue with the given ID when it exists and
// is active.  Inactive and missing venues are indistinguishable to the
// caller: both yield ErrVenueNotFound, which is what admission wants.
func (r *VenueRepo) GetActiveByID(ctx context.Context, id uint64) (model.Venue, error) {
	const q = "SELECT " + venueColumns + " FROM venues WHERE id = ? AND is_active = 1 LIMIT 1"
	return scanVenue(r.db.QueryRowContext(ctx, q, id))
}

// GetActiveBySlug returns the active venue carrying the given slug.
// Slugs are what scannable links embed, so this is the public lookup
// path.
func (r *VenueRepo) GetActiveBySlug(ctx context.Context, slug string) (model.Venue, error) {
	const q = "SELECT " + venueColumns + " FROM venues WHERE slug = ? AND is_active = 1 LIMIT 1"
	return scanVenue(r.db.QueryRowContext(ctx, q, slug))
}

// ListActive returns all active venues ordered by name.  Used by the
// public browse endpoint; crowd levels are layered on by the caller.
func (r *VenueRepo) ListActive(ctx context.Context) ([]model.Venue, error) {
	const q = "SELECT " + venueColumns + " FROM venues WHERE is_active = 1 ORDER BY name"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	venues := make([]model.Venue, 0)
	for rows.Next() {
		var v model.Venue
		if err := rows.Scan(&v.ID, &v.Slug, &v.Name, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return venues, nil
}
