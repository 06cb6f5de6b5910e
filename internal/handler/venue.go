package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/barwethereyet/checkin-api/internal/crowd"
	"github.com/barwethereyet/checkin-api/internal/repository"
)

// VenueHandler serves the public browse surface: venue listings with
// live crowd levels, single-venue lookups by slug, crowd snapshots,
// recent check-in feeds, daily stats and the SSE stream of crowd
// deltas.  None of these routes require authentication.
type VenueHandler struct {
	VenueRepo   *repository.VenueRepo
	CheckinRepo *repository.CheckinRepo
	StatsRepo   *repository.StatsRepo
	Crowd       *crowd.Aggregator
}

// NewVenueHandler constructs a VenueHandler.
func NewVenueHandler(venues *repository.VenueRepo, checkins *repository.CheckinRepo, stats *repository.StatsRepo, agg *crowd.Aggregator) *VenueHandler {
	if venues == nil || checkins == nil || stats == nil || agg == nil {
		panic("nil dependency passed to NewVenueHandler")
	}
	return &VenueHandler{VenueRepo: venues, CheckinRepo: checkins, StatsRepo: stats, Crowd: agg}
}

type venueJSON struct {
	ID         uint64      `json:"id"`
	Slug       string      `json:"slug"`
	Name       string      `json:"name"`
	CrowdLevel crowd.Level `json:"crowd_level"`
	Count      int         `json:"active_checkins"`
}

// List handles GET /v1/venues: all active venues, each with its
// current crowd snapshot.
func (h *VenueHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	venues, err := h.VenueRepo.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]venueJSON, 0, len(venues))
	for _, v := range venues {
		snap, err := h.Crowd.Snapshot(ctx, v.ID)
		if err != nil {
			// A venue with a failed recount still appears; empty is the
			// safe face for it.
			log.Printf("venues: crowd snapshot failed venue=%d: %v", v.ID, err)
			snap = crowd.Snapshot{Count: 0, Level: crowd.LevelEmpty}
		}
		out = append(out, venueJSON{ID: v.ID, Slug: v.Slug, Name: v.Name, CrowdLevel: snap.Level, Count: snap.Count})
	}
	return c.JSON(http.StatusOK, echo.Map{"venues": out})
}

// GetBySlug handles GET /v1/venues/by-slug/:slug, the lookup path used
// by scannable links.
func (h *VenueHandler) GetBySlug(c echo.Context) error {
	slug := c.Param("slug")
	if slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug is required"})
	}
	ctx := c.Request().Context()
	venue, err := h.VenueRepo.GetActiveBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	snap, err := h.Crowd.Snapshot(ctx, venue.ID)
	if err != nil {
		log.Printf("venues: crowd snapshot failed venue=%d: %v", venue.ID, err)
		snap = crowd.Snapshot{Count: 0, Level: crowd.LevelEmpty}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"venue": venueJSON{ID: venue.ID, Slug: venue.Slug, Name: venue.Name, CrowdLevel: snap.Level, Count: snap.Count},
	})
}

// CrowdSnapshot handles GET /v1/venues/:id/crowd, the pull model for
// one venue's live count and level.
func (h *VenueHandler) CrowdSnapshot(c echo.Context) error {
	venueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	ctx := c.Request().Context()
	if _, err := h.VenueRepo.GetActiveByID(ctx, venueID); err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	snap, err := h.Crowd.Snapshot(ctx, venueID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to read crowd level"})
	}
	return c.JSON(http.StatusOK, snap)
}

// RecentCheckins handles GET /v1/venues/:id/checkins?limit=N, the
// venue's public activity feed.  User IDs are omitted from anonymous
// rows by the wire shape.
func (h *VenueHandler) RecentCheckins(c echo.Context) error {
	venueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	ctx := c.Request().Context()
	checkins, err := h.CheckinRepo.RecentByVenue(ctx, venueID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	now := time.Now().UTC()
	out := make([]checkinJSON, 0, len(checkins))
	for _, ck := range checkins {
		out = append(out, toCheckinJSON(ck, now))
	}
	return c.JSON(http.StatusOK, echo.Map{"checkins": out})
}

// TodayStats handles GET /v1/venues/:id/stats/today, aggregating
// check-ins since midnight UTC.
func (h *VenueHandler) TodayStats(c echo.Context) error {
	venueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	ctx := c.Request().Context()
	if _, err := h.VenueRepo.GetActiveByID(ctx, venueID); err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	stats, err := h.StatsRepo.Today(ctx, venueID, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, stats)
}

// CrowdStream handles GET /v1/venues/:id/crowd/stream: server-sent
// events carrying the venue's live count and level.  One snapshot is
// sent immediately, then a fresh one on every pushed delta, so clients
// never have to apply deltas themselves.  The stream closes when the
// client disconnects or the push fabric is unavailable.
func (h *VenueHandler) CrowdStream(c echo.Context) error {
	venueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	ctx := c.Request().Context()
	if _, err := h.VenueRepo.GetActiveByID(ctx, venueID); err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	deltas, cancel, err := h.Crowd.Subscribe(ctx, venueID)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Live crowd updates unavailable"})
	}
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	send := func() error {
		snap, err := h.Crowd.Snapshot(ctx, venueID)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(res, "event: crowd\ndata: {\"active_checkins\":%d,\"crowd_level\":%q}\n\n", snap.Count, snap.Level); err != nil {
			return err
		}
		res.Flush()
		return nil
	}
	if err := send(); err != nil {
		return nil
	}

	// Keepalive comments hold idle connections open through proxies.
	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-deltas:
			if !ok {
				return nil
			}
			if err := send(); err != nil {
				return nil
			}
		case <-keepalive.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
