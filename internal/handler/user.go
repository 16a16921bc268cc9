package handler

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hall-pass/internal/config"
	"github.com/iliyamo/hall-pass/internal/model"
	"github.com/iliyamo/hall-pass/internal/repository"
)

// UserHandler implements account provisioning.
type UserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u}
}

type createUserReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     *uint8 `json:"role"`
}

type createUserResp struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     uint8  `json:"role"`
}

// usernamePattern matches lower case letters, numbers and dashes. If the
// full string does not match, the username contains disallowed characters.
var usernamePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// validateUsername performs the shape checks applied when an account is
// created. Uniqueness is checked separately against the database.
func validateUsername(username string) (bool, string) {
	if username == "" {
		return false, "no username provided"
	}
	if len(username) < 3 || len(username) >= 24 {
		return false, "username must be between 3 and 24 characters"
	}
	if !usernamePattern.MatchString(username) {
		return false, "username can only contain letters, numbers, and dashes"
	}
	return true, ""
}

// validatePassword enforces the password complexity rules for new accounts.
func validatePassword(password string) (bool, string) {
	if password == "" {
		return false, "no password provided"
	}
	if len(password) < 6 {
		return false, "password must be at least 6 characters"
	}
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	switch {
	case !lower:
		return false, "password must contain at least one lowercase letter"
	case !upper:
		return false, "password must contain at least one uppercase letter"
	case !digit:
		return false, "password must contain at least one number"
	case !symbol:
		return false, "password must contain at least one special character"
	}
	return true, ""
}

// Create provisions a new account.
// TODO: restrict to IT/SENIOR via RequireRole once a first-run
// provisioning flow exists; left open so test accounts are easy to create.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Name = strings.TrimSpace(req.Name)

	if valid, msg := validateUsername(req.Username); !valid {
		return fail(c, http.StatusBadRequest, msg)
	}
	if valid, msg := validatePassword(req.Password); !valid {
		return fail(c, http.StatusBadRequest, msg)
	}
	if req.Name == "" {
		return fail(c, http.StatusBadRequest, "no name provided")
	}
	if req.Role == nil {
		return fail(c, http.StatusBadRequest, "no role provided")
	}
	if !model.ValidRole(*req.Role) {
		return fail(c, http.StatusBadRequest, "invalid role")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Uniqueness is ultimately enforced by the index; this check only
	// shapes the error for the common case.
	if taken, err := h.Users.UsernameExists(ctx, req.Username); err == nil && taken {
		return fail(c, http.StatusBadRequest, "username already taken")
	}

	id, err := h.Users.Create(ctx, req.Username, req.Password, req.Name, *req.Role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return fail(c, http.StatusBadRequest, "username already taken")
		}
		return fail(c, http.StatusInternalServerError, "create user failed")
	}

	return ok(c, http.StatusCreated, createUserResp{
		ID:       id,
		Username: req.Username,
		Name:     req.Name,
		Role:     *req.Role,
	})
}
