package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/barwethereyet/checkin-api/internal/model"
	"github.com/barwethereyet/checkin-api/internal/repository"
)

// RewardHandler serves reward listings and the caller's progress
// ledgers.
type RewardHandler struct {
	VenueRepo      *repository.VenueRepo
	RewardRepo     *repository.RewardRepo
	UserRewardRepo *repository.UserRewardRepo
}

// NewRewardHandler constructs a RewardHandler.
func NewRewardHandler(venues *repository.VenueRepo, rewards *repository.RewardRepo, userRewards *repository.UserRewardRepo) *RewardHandler {
	if venues == nil || rewards == nil || userRewards == nil {
		panic("nil dependency passed to NewRewardHandler")
	}
	return &RewardHandler{VenueRepo: venues, RewardRepo: rewards, UserRewardRepo: userRewards}
}

type rewardJSON struct {
	ID               uint64  `json:"id"`
	Name             string  `json:"name"`
	Description      *string `json:"description,omitempty"`
	CheckinsRequired uint32  `json:"checkins_required"`

	// Progress fields are present only for permanent callers.
	UserRewardID      *uint64             `json:"user_reward_id,omitempty"`
	CheckinsCompleted *uint32             `json:"checkins_completed,omitempty"`
	Status            *model.RewardStatus `json:"status,omitempty"`
}

// ListByVenue handles GET /v1/venues/:id/rewards.  Anyone can see a
// venue's active rewards; a permanent caller additionally sees their
// own progress merged onto each entry.  Anonymous callers get the bare
// listing; their check-ins never accrue progress.
func (h *RewardHandler) ListByVenue(c echo.Context) error {
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

	rewards, err := h.RewardRepo.ActiveByVenue(ctx, venueID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var progress map[uint64]model.UserReward
	if caller, callerErr := getCaller(c); callerErr == nil {
		if _, permanent := caller.(model.PermanentCaller); permanent {
			progress, err = h.UserRewardRepo.ProgressByVenue(ctx, caller.CallerID(), venueID)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
			}
		}
	}

	out := make([]rewardJSON, 0, len(rewards))
	for _, rw := range rewards {
		entry := rewardJSON{
			ID:               rw.ID,
			Name:             rw.Name,
			Description:      rw.Description,
			CheckinsRequired: rw.CheckinsRequired,
		}
		if ur, ok := progress[rw.ID]; ok {
			id, completed, status := ur.ID, ur.CheckinsCompleted, ur.Status
			entry.UserRewardID = &id
			entry.CheckinsCompleted = &completed
			entry.Status = &status
		}
		out = append(out, entry)
	}
	return c.JSON(http.StatusOK, echo.Map{"rewards": out})
}

// MyRewards handles GET /v1/my-rewards: every reward ledger the caller
// holds, across venues, newest activity first.  Permanent accounts
// only.
func (h *RewardHandler) MyRewards(c echo.Context) error {
	caller, err := getCaller(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if _, anon := caller.(model.AnonymousCaller); anon {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Must be authenticated to view rewards"})
	}

	details, err := h.UserRewardRepo.ListByUser(c.Request().Context(), caller.CallerID())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rewards": details})
}
