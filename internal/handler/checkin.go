package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/barwethereyet/checkin-api/internal/crowd"
	"github.com/barwethereyet/checkin-api/internal/model"
	"github.com/barwethereyet/checkin-api/internal/queue"
	"github.com/barwethereyet/checkin-api/internal/repository"
	"github.com/barwethereyet/checkin-api/internal/reward"
	queue_publisher "github.com/barwethereyet/checkin-api/internal/service"
)

// CheckinHandler owns the admission flow: validate the venue, enforce
// cooldowns, persist the check-in, then fan out the side effects
// (crowd delta, reward progression, broker event).  Admission itself
// is all-or-nothing inside the repository transaction; everything
// after the commit is supplementary and must never turn a durable
// check-in into a client-visible failure.
type CheckinHandler struct {
	VenueRepo   *repository.VenueRepo
	CheckinRepo *repository.CheckinRepo
	Crowd       *crowd.Aggregator
	Progression *reward.Progression

	// publish delivers the checkin.accepted event to the broker.  A
	// field so it never couples request handling to broker liveness.
	publish func(context.Context, queue.CheckinAcceptedEvent) error
}

// NewCheckinHandler constructs a CheckinHandler.  All dependencies
// must be non-nil.
func NewCheckinHandler(venues *repository.VenueRepo, checkins *repository.CheckinRepo, agg *crowd.Aggregator, prog *reward.Progression) *CheckinHandler {
	if venues == nil || checkins == nil || agg == nil || prog == nil {
		panic("nil dependency passed to NewCheckinHandler")
	}
	return &CheckinHandler{
		VenueRepo:   venues,
		CheckinRepo: checkins,
		Crowd:       agg,
		Progression: prog,
		publish:     queue_publisher.PublishCheckinAccepted,
	}
}

// Checkin handles POST /v1/checkin.  The body carries the venue and an
// optional device fingerprint supplied by the client.  Responses:
// 200 with the check-in and venue name, 400 missing venue_id, 401 no
// identity, 404 unknown/inactive venue, 429 cooldown violation, 500
// storage failure.
func (h *CheckinHandler) Checkin(c echo.Context) error {
	caller, err := getCaller(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body struct {
		VenueID    uint64 `json:"venue_id"`
		DeviceHash string `json:"device_hash"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.VenueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id is required"})
	}

	ctx := c.Request().Context()
	venue, err := h.VenueRepo.GetActiveByID(ctx, body.VenueID)
	if err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var deviceHash *string
	if body.DeviceHash != "" {
		deviceHash = &body.DeviceHash
	}

	now := time.Now().UTC()
	ck, err := h.CheckinRepo.Admit(ctx, venue.ID, caller.CallerID(), deviceHash, now)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyCheckedIn) {
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":   "Already checked in",
				"message": "You already checked in here recently. Try again in a bit!",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to check in"})
	}

	// The check-in is durable from here on. Side effects are
	// best-effort: log and keep going.
	h.Crowd.NoteAdmission(ctx, venue.ID)

	if _, ok := caller.(model.PermanentCaller); ok {
		if err := h.Progression.OnCheckinAccepted(ctx, caller.CallerID(), venue.ID); err != nil {
			log.Printf("checkin: reward progression incomplete user=%d venue=%d: %v", caller.CallerID(), venue.ID, err)
		}
	}

	snap, err := h.Crowd.Snapshot(ctx, venue.ID)
	if err != nil {
		log.Printf("checkin: crowd snapshot failed venue=%d: %v", venue.ID, err)
	}
	_, anonymous := caller.(model.AnonymousCaller)
	event := queue.CheckinAcceptedEvent{
		CheckinID:   ck.ID,
		VenueID:     venue.ID,
		VenueName:   venue.Name,
		UserID:      caller.CallerID(),
		Anonymous:   anonymous,
		CheckedInAt: ck.CheckedInAt.Format(time.RFC3339),
		ExpiresAt:   ck.ExpiresAt.Format(time.RFC3339),
		CrowdCount:  snap.Count,
	}
	// Publish off the request path: a down or slow broker must not add
	// latency to an admission that already committed.  Background
	// context because the request context dies with the response.
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.publish(pubCtx, event); err != nil {
			log.Printf("checkin: event publish failed checkin=%d venue=%d: %v", event.CheckinID, event.VenueID, err)
		}
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"checkin":    toCheckinJSON(ck, now),
		"venue_name": venue.Name,
	})
}
