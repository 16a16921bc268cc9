package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hall-pass/internal/config"
	"github.com/iliyamo/hall-pass/internal/model"
	"github.com/iliyamo/hall-pass/internal/repository"
	"github.com/iliyamo/hall-pass/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *repository.SessionRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, s *repository.SessionRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     uint8  `json:"role"`
}

type sessionResp struct {
	PublicID  string    `json:"public_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Current   bool      `json:"current"`
}

type dutyReq struct {
	OnDuty *bool `json:"on_duty"`
}

type profileResp struct {
	ID                 uint64    `json:"id"`
	Username           string    `json:"username"`
	Name               string    `json:"name"`
	Role               uint8     `json:"role"`
	RoleName           string    `json:"role_name"`
	FailedPassAttempts uint32    `json:"failed_pass_attempts"`
	OnDuty             bool      `json:"on_duty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Login verifies credentials and opens a new session. The returned
// token is the only copy of the secret; the server keeps just a hash.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" {
		return fail(c, http.StatusBadRequest, "no username provided")
	}
	if req.Password == "" {
		return fail(c, http.StatusBadRequest, "no password provided")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid credentials")
		}
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}

	tok, err := h.Sessions.Create(ctx, u.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create session failed")
	}

	// Opportunistically drop lapsed sessions; correctness does not
	// depend on this since resolution checks expiry anyway.
	if _, err := h.Sessions.DeleteExpired(ctx); err != nil {
		c.Logger().Warnf("session cleanup failed: %v", err)
	}

	return ok(c, http.StatusOK, loginResp{
		Token:    tok.Raw,
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
	})
}

// Logout invalidates the presented session token. Idempotent: logging
// out an already-removed session still returns 204.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, _ := c.Get("token").(string)
	if raw == "" {
		return fail(c, http.StatusBadRequest, "no session token provided")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Sessions.Invalidate(ctx, raw); err != nil {
		return fail(c, http.StatusInternalServerError, "logout failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// ListSessions lists the caller's login sessions so a user can see
// where they are signed in. Only public metadata is returned; the
// stored secret hashes never leave the server.
func (h *AuthHandler) ListSessions(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthenticated")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	sessions, err := h.Sessions.ListByUser(ctx, userID)
	if err != nil {
		c.Logger().Errorf("list sessions failed for user %d: %v", userID, err)
		return fail(c, http.StatusInternalServerError, "internal server error")
	}

	// Mark the session backing this request so the client can label it.
	currentHash := ""
	if raw, _ := c.Get("token").(string); raw != "" {
		if _, secret, err := utils.ParseSessionToken(raw); err == nil {
			currentHash = utils.HashTokenSecret(secret)
		}
	}

	out := make([]sessionResp, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionResp{
			PublicID:  s.PublicID,
			ExpiresAt: s.ExpiresAt,
			CreatedAt: s.CreatedAt,
			Current:   s.SecretHash == currentHash,
		})
	}
	return ok(c, http.StatusOK, out)
}

// Duty toggles the caller's on-duty flag. Routes using it are limited
// to staff roles by the router.
func (h *AuthHandler) Duty(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthenticated")
	}
	var req dutyReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.OnDuty == nil {
		return fail(c, http.StatusBadRequest, "no on_duty value provided")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Users.SetOnDuty(ctx, userID, *req.OnDuty); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		c.Logger().Errorf("set on duty failed for user %d: %v", userID, err)
		return fail(c, http.StatusInternalServerError, "internal server error")
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's profile. The mobile client polls this on
// screen focus to decide whether the session is still valid.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthenticated")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	return ok(c, http.StatusOK, profileResp{
		ID:                 u.ID,
		Username:           u.Username,
		Name:               u.Name,
		Role:               u.Role,
		RoleName:           model.RoleName(u.Role),
		FailedPassAttempts: u.FailedPassAttempts,
		OnDuty:             u.OnDuty,
		CreatedAt:          u.CreatedAt,
	})
}
