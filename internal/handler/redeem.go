package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/barwethereyet/checkin-api/internal/model"
	"github.com/barwethereyet/checkin-api/internal/repository"
)

// RedeemHandler owns reward redemption.  Redemption is guarded by a
// single conditional update in the repository, so the handler's job is
// identity checks and translating the outcome into the right status
// code and message.
type RedeemHandler struct {
	UserRewardRepo *repository.UserRewardRepo
}

// NewRedeemHandler constructs a RedeemHandler.
func NewRedeemHandler(userRewards *repository.UserRewardRepo) *RedeemHandler {
	if userRewards == nil {
		panic("nil user reward repository passed to NewRedeemHandler")
	}
	return &RedeemHandler{UserRewardRepo: userRewards}
}

// Redeem handles POST /v1/redeem-reward.  Only permanent accounts may
// redeem; anonymous sessions get 401 so the client can prompt for
// registration.  Responses: 200 success, 400 not redeemable (with a
// message telling apart "already redeemed" from "not enough
// check-ins"), 404 missing or not owned, 401 anonymous or missing
// identity.
func (h *RedeemHandler) Redeem(c echo.Context) error {
	caller, err := getCaller(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if _, anon := caller.(model.AnonymousCaller); anon {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Must be authenticated to redeem rewards"})
	}

	var body struct {
		UserRewardID uint64 `json:"user_reward_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.UserRewardID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_reward_id is required"})
	}

	ctx := c.Request().Context()
	redemption, status, err := h.UserRewardRepo.Redeem(ctx, body.UserRewardID, caller.CallerID(), time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRewardNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Reward not found"})
		case errors.Is(err, repository.ErrNotRedeemable):
			msg := "You haven't earned enough check-ins yet."
			if status == model.RewardRedeemed {
				msg = "This reward has already been redeemed."
			}
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "Reward not redeemable",
				"message": msg,
			})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to redeem reward"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Reward redeemed! Show this to the bartender.",
		"reward_name": redemption.RewardName,
		"redeemed_at": redemption.RedeemedAt.Format(time.RFC3339),
	})
}
