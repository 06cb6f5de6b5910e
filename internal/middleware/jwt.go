package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/barwethereyet/checkin-api/internal/model"
)

// CallerKey is the echo.Context key under which the resolved caller
// identity is stored.
const CallerKey = "caller"

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the resolved caller identity into the request
// context.  The provided secret must match the one used when issuing
// tokens.  Tokens carry the subject (sub) and an anonymous marker
// (anon); the middleware reconstructs the two-variant identity from
// them, so handlers dispatch on model.PermanentCaller vs
// model.AnonymousCaller instead of re-inspecting claims.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			caller, ok := callerFromClaims(claims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			// Store both the typed identity and the raw user_id; the
			// latter feeds the rate limiter's key builder.
			c.Set(CallerKey, caller)
			c.Set("user_id", caller.CallerID())
			return next(c)
		}
	}
}

// JWTOptional is the soft variant of JWTAuth used on public routes
// whose responses get richer for identified callers.  A valid token
// injects the identity exactly like JWTAuth; a missing or invalid one
// just leaves the request unidentified instead of rejecting it.
func JWTOptional(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimPrefix(auth, "Bearer ")
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return next(c)
			}
			if claims, ok := tok.Claims.(jwt.MapClaims); ok {
				if caller, ok := callerFromClaims(claims); ok {
					c.Set(CallerKey, caller)
					c.Set("user_id", caller.CallerID())
				}
			}
			return next(c)
		}
	}
}

// callerFromClaims builds the caller variant from the sub and anon
// claims.  JSON numbers decode as float64, so sub is accepted in the
// numeric forms the jwt library may produce.
func callerFromClaims(claims jwt.MapClaims) (model.Caller, bool) {
	var id uint64
	switch v := claims["sub"].(type) {
	case float64:
		id = uint64(v)
	case int64:
		id = uint64(v)
	case uint64:
		id = v
	default:
		return nil, false
	}
	if id == 0 {
		return nil, false
	}
	if anon, _ := claims["anon"].(bool); anon {
		return model.AnonymousCaller{ID: id}, true
	}
	return model.PermanentCaller{ID: id}, true
}
