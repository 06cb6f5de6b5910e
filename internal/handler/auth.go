package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/barwethereyet/checkin-api/internal/config"
	"github.com/barwethereyet/checkin-api/internal/model"
	"github.com/barwethereyet/checkin-api/internal/repository"
	"github.com/barwethereyet/checkin-api/internal/utils"
)

// AuthHandler implements registration, login, anonymous sessions and
// refresh-token rotation.  Permanent accounts get an access + refresh
// token pair; anonymous sessions get a single longer-lived access token
// and nothing to refresh; when it expires the client just asks for a
// new session.
type AuthHandler struct {
	Cfg       config.Config
	UserRepo  *repository.UserRepo
	TokenRepo *repository.TokenRepo
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(cfg config.Config, users *repository.UserRepo, tokens *repository.TokenRepo) *AuthHandler {
	if users == nil || tokens == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, UserRepo: users, TokenRepo: tokens}
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (b credentialsBody) validate() string {
	if !strings.Contains(b.Email, "@") {
		return "valid email is required"
	}
	if len(b.Password) < 8 {
		return "password must be at least 8 characters"
	}
	return ""
}

// issueTokens creates an access + refresh pair for a permanent account
// and persists the refresh token hash.
func (h *AuthHandler) issueTokens(c echo.Context, userID uint64) (echo.Map, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, false, h.Cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return nil, err
	}
	if err := h.TokenRepo.StoreRefresh(c.Request().Context(), userID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, err
	}
	return echo.Map{
		"access_token":  access.Token,
		"expires_at":    access.Exp.Format(time.RFC3339),
		"refresh_token": refresh.Raw,
	}, nil
}

// Register handles POST /v1/auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var body credentialsBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	userID, err := h.UserRepo.Create(c.Request().Context(), body.Email, body.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to register"})
	}

	tokens, err := h.issueTokens(c, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to issue tokens"})
	}
	tokens["user_id"] = userID
	return c.JSON(http.StatusCreated, tokens)
}

// Login handles POST /v1/auth/login.  Invalid email and wrong password
// are indistinguishable to the caller.
func (h *AuthHandler) Login(c echo.Context) error {
	var body credentialsBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	user, err := h.UserRepo.GetByEmail(c.Request().Context(), body.Email)
	if err != nil || user.IsAnonymous || !utils.VerifyPassword(user.PasswordHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	tokens, err := h.issueTokens(c, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to issue tokens"})
	}
	tokens["user_id"] = user.ID
	return c.JSON(http.StatusOK, tokens)
}

// Anonymous handles POST /v1/auth/anonymous: mints a credential-less
// user row and a single access token for it.  The token carries the
// anon claim so downstream handlers can refuse reward redemption.
func (h *AuthHandler) Anonymous(c echo.Context) error {
	userID, err := h.UserRepo.CreateAnonymous(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to start session"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, true, h.Cfg.AnonTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to issue token"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"access_token": access.Token,
		"expires_at":   access.Exp.Format(time.RFC3339),
		"user_id":      userID,
		"anonymous":    true,
	})
}

// Refresh handles POST /v1/auth/refresh: rotates the refresh token and
// issues a fresh access token.  The presented token is revoked whether
// or not rotation succeeds past validation.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&body); err != nil || body.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}

	ctx := c.Request().Context()
	hash := utils.HashRefreshRaw(body.RefreshToken)
	userID, err := h.TokenRepo.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err := h.TokenRepo.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to rotate token"})
	}

	tokens, err := h.issueTokens(c, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to issue tokens"})
	}
	return c.JSON(http.StatusOK, tokens)
}

// Logout handles POST /v1/auth/logout: revokes the presented refresh
// token.  Idempotent; an already-revoked or unknown token still yields
// 200 so clients can always clear local state.
func (h *AuthHandler) Logout(c echo.Context) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&body); err != nil || body.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}
	_ = h.TokenRepo.RevokeByHash(c.Request().Context(), utils.HashRefreshRaw(body.RefreshToken))
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me handles GET /v1/auth/me: the caller's own profile.  Anonymous
// sessions see their session id and flag only.
func (h *AuthHandler) Me(c echo.Context) error {
	caller, err := getCaller(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	user, err := h.UserRepo.GetByID(c.Request().Context(), caller.CallerID())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if _, anon := caller.(model.AnonymousCaller); anon || user.IsAnonymous {
		return c.JSON(http.StatusOK, echo.Map{"user_id": user.ID, "anonymous": true})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":      user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"total_points": user.TotalPoints,
		"anonymous":    false,
		"created_at":   user.CreatedAt.UTC().Format(time.RFC3339),
	})
}
