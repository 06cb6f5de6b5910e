package middleware

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/barwethereyet/checkin-api/internal/config"
)

// cachedResponse is the envelope stored in Redis for one cached GET.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bodyRecorder tees the response body so the middleware can store what
// the handler just wrote.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

// NewResponseCache returns middleware caching successful GET responses
// in Redis for ttl.  The venue listing and slug lookup run with
// CacheConfig.CrowdTTL because their payloads embed crowd levels; the
// check-in feed and daily stats run with the longer CacheConfig.TTL.
// Keys are path + query only: none of the cached routes vary their
// payload by caller.  Pass-through without Redis or when disabled.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil || ttl <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := responseCacheKey(cfg.Prefix, c)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cr cachedResponse
				if json.Unmarshal(raw, &cr) == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(cr.Status, cr.ContentType, cr.Body)
				}
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				return err
			}

			// Only successful, bounded responses are worth keeping.
			if rec.status != http.StatusOK || rec.buf.Len() == 0 || rec.buf.Len() > cfg.MaxBodyBytes {
				return nil
			}
			raw, err := json.Marshal(cachedResponse{
				Status:      rec.status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        rec.buf.Bytes(),
			})
			if err != nil {
				return nil
			}
			if err := rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
				log.Printf("cache: store failed for %s: %v", key, err)
			}
			return nil
		}
	}
}

func responseCacheKey(prefix string, c echo.Context) string {
	key := prefix + ":" + c.Request().URL.Path
	if q := c.Request().URL.RawQuery; q != "" {
		key += "?" + q
	}
	return key
}
