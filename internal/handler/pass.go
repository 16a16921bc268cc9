package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hall-pass/internal/pass"
)

// PassHandler exposes pass creation and listing to students. All
// methods assume the SessionAuth and RequireRole middleware already
// ran; the admission decision itself lives in the pass service, not
// here.
type PassHandler struct {
	Passes *pass.Service
}

func NewPassHandler(svc *pass.Service) *PassHandler {
	if svc == nil {
		panic("nil pass service passed to NewPassHandler")
	}
	return &PassHandler{Passes: svc}
}

type createPassReq struct {
	Location string `json:"location"`
	Duration int64  `json:"duration"` // milliseconds
}

// Create handles PUT /passes. On success it returns 201 with the new
// pass; a quota or validation denial returns 400 with the primary
// denial reason verbatim so the client can render it.
func (h *PassHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthenticated")
	}
	var req createPassReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Location = strings.TrimSpace(req.Location)
	if req.Location == "" {
		return fail(c, http.StatusBadRequest, "no location provided")
	}
	if req.Duration <= 0 {
		return fail(c, http.StatusBadRequest, "no duration provided")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, decision, err := h.Passes.Create(ctx, userID, req.Location, req.Duration)
	if err != nil {
		c.Logger().Errorf("create pass failed for user %d: %v", userID, err)
		return fail(c, http.StatusInternalServerError, "internal server error")
	}
	if !decision.Allowed {
		return fail(c, http.StatusBadRequest, decision.Reason())
	}
	return ok(c, http.StatusCreated, p)
}

// List handles GET /passes. Only the caller's own passes are returned,
// with their state recomputed on read.
func (h *PassHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthenticated")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	passes, err := h.Passes.List(ctx, userID)
	if err != nil {
		c.Logger().Errorf("list passes failed for user %d: %v", userID, err)
		return fail(c, http.StatusInternalServerError, "internal server error")
	}
	return ok(c, http.StatusOK, passes)
}

// Active handles GET /passes/active: the subset of the caller's passes
// that are still running.
func (h *PassHandler) Active(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthenticated")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	passes, err := h.Passes.Active(ctx, userID)
	if err != nil {
		c.Logger().Errorf("list active passes failed for user %d: %v", userID, err)
		return fail(c, http.StatusInternalServerError, "internal server error")
	}
	return ok(c, http.StatusOK, passes)
}
