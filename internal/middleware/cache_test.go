package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barwethereyet/checkin-api/internal/config"
)

// Without Redis the cache must get out of the way entirely: every
// request reaches the handler.
func TestResponseCachePassThroughWithoutRedis(t *testing.T) {
	cfg := config.CacheConfig{Enabled: true, Prefix: "t", MaxBodyBytes: 1 << 20}
	mw := NewResponseCache(cfg, nil, 30*time.Second)

	e := echo.New()
	hits := 0
	h := mw(func(c echo.Context) error {
		hits++
		return c.String(http.StatusOK, "fresh")
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/venues", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, h(e.NewContext(req, rec)))
		assert.Equal(t, "fresh", rec.Body.String())
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, hits)
}

func TestResponseCacheKeyIncludesQuery(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/venues/3/checkins?limit=5", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, "p:/v1/venues/3/checkins?limit=5", responseCacheKey("p", c))
}
