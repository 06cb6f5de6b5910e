package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/barwethereyet/checkin-api/internal/repository"
)

// HistoryHandler serves the caller's own check-in history.
type HistoryHandler struct {
	CheckinRepo *repository.CheckinRepo
}

// NewHistoryHandler constructs a HistoryHandler.
func NewHistoryHandler(checkins *repository.CheckinRepo) *HistoryHandler {
	if checkins == nil {
		panic("nil checkin repository passed to NewHistoryHandler")
	}
	return &HistoryHandler{CheckinRepo: checkins}
}

// MyCheckins handles GET /v1/my-checkins: the caller's full check-in
// history, newest first.  Works for anonymous sessions too, since
// their check-ins are keyed to the session's user row.
func (h *HistoryHandler) MyCheckins(c echo.Context) error {
	caller, err := getCaller(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	checkins, err := h.CheckinRepo.ListByUser(c.Request().Context(), caller.CallerID())
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
