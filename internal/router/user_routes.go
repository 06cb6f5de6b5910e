package router

import (
	"github.com/labstack/echo/v4"

	"github.com/barwethereyet/checkin-api/internal/handler"
	"github.com/barwethereyet/checkin-api/internal/middleware"
)

// RegisterUser registers the authenticated endpoints under /v1.  All
// routes require a valid access token; both identity variants are
// accepted here and handlers that are permanent-only (redemption, the
// cross-venue reward ledger) enforce that themselves.  rateMW guards
// admission against rapid-fire clients and may be a pass-through when
// rate limiting is disabled.
func RegisterUser(e *echo.Echo, ck *handler.CheckinHandler, rd *handler.RedeemHandler, rw *handler.RewardHandler, hs *handler.HistoryHandler, jwtSecret string, rateMW echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.POST("/checkin", ck.Checkin, rateMW)
	g.POST("/redeem-reward", rd.Redeem)
	g.GET("/my-rewards", rw.MyRewards)
	g.GET("/my-checkins", hs.MyCheckins)
}
