package handler // handler defines http handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/barwethereyet/checkin-api/internal/middleware"
	"github.com/barwethereyet/checkin-api/internal/model"
)

// getCaller extracts the caller identity stored by the JWTAuth
// middleware.  Handlers behind the auth middleware can rely on it
// being present; a missing or mistyped value means the route is
// misconfigured and is treated as unauthorized.
func getCaller(c echo.Context) (model.Caller, error) {
	caller, ok := c.Get(middleware.CallerKey).(model.Caller)
	if !ok || caller == nil {
		return nil, errors.New("no caller identity in context")
	}
	return caller, nil
}

// paramID parses a numeric path parameter.  Zero is never a valid row
// id, so it is rejected alongside parse failures.
func paramID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// checkinJSON is the wire shape of a check-in record.  Timestamps are
// RFC3339 in UTC.
type checkinJSON struct {
	ID          uint64  `json:"id"`
	VenueID     uint64  `json:"venue_id"`
	UserID      *uint64 `json:"user_id,omitempty"`
	CheckedInAt string  `json:"checked_in_at"`
	ExpiresAt   string  `json:"expires_at"`
	Active      bool    `json:"is_active"`
}

// toCheckinJSON converts a model.Checkin, recomputing validity from
// expires_at instead of echoing the stored cache flag.
func toCheckinJSON(ck model.Checkin, now time.Time) checkinJSON {
	return checkinJSON{
		ID:          ck.ID,
		VenueID:     ck.VenueID,
		UserID:      ck.UserID,
		CheckedInAt: ck.CheckedInAt.UTC().Format(time.RFC3339),
		ExpiresAt:   ck.ExpiresAt.UTC().Format(time.RFC3339),
		Active:      ck.Valid(now),
	}
}
