package router

import (
	"github.com/labstack/echo/v4"

	"github.com/barwethereyet/checkin-api/internal/handler"
	"github.com/barwethereyet/checkin-api/internal/middleware"
)

// RegisterPublic registers the unauthenticated browse endpoints: venue
// listings with live crowd levels, slug lookup, crowd snapshots and
// the SSE stream, recent check-in feeds, daily stats and per-venue
// reward listings.  Two cache middlewares apply: crowdCacheMW (a
// few-seconds TTL) on the listings that embed crowd levels, cacheMW
// (longer TTL) on the plain reads.  Either may be a pass-through when
// response caching is disabled.  The crowd snapshot and stream are
// deliberately left uncached because they carry the real-time promise.
func RegisterPublic(e *echo.Echo, v *handler.VenueHandler, r *handler.RewardHandler, jwtSecret string, cacheMW, crowdCacheMW echo.MiddlewareFunc) {
	e.GET("/v1/venues", v.List, crowdCacheMW)
	// Slug lookup lives under /by-slug so the router never has to
	// disambiguate a slug from a numeric id in the same path segment.
	e.GET("/v1/venues/by-slug/:slug", v.GetBySlug, crowdCacheMW)
	e.GET("/v1/venues/:id/crowd", v.CrowdSnapshot)
	e.GET("/v1/venues/:id/crowd/stream", v.CrowdStream)
	e.GET("/v1/venues/:id/checkins", v.RecentCheckins, cacheMW)
	e.GET("/v1/venues/:id/stats/today", v.TodayStats, cacheMW)

	// Reward listings are public, but a caller presenting a valid token
	// sees their own progress merged in, so the optional variant of the
	// auth middleware runs first.  Uncached: the payload varies by
	// caller.
	e.GET("/v1/venues/:id/rewards", r.ListByVenue, middleware.JWTOptional(jwtSecret))
}
