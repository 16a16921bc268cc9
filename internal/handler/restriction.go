package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hall-pass/internal/model"
	"github.com/iliyamo/hall-pass/internal/repository"
)

// RestrictionHandler administers the policy rules that gate pass
// issuance. Routes using it are wrapped in RequireRole(IT, SENIOR);
// the handler itself does no privilege checks.
type RestrictionHandler struct {
	Restrictions *repository.RestrictionRepo
}

func NewRestrictionHandler(r *repository.RestrictionRepo) *RestrictionHandler {
	if r == nil {
		panic("nil repository passed to NewRestrictionHandler")
	}
	return &RestrictionHandler{Restrictions: r}
}

type upsertRestrictionReq struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	TTL      int64   `json:"ttl"`
	Amount   uint32  `json:"amount"`
	Interval *int64  `json:"interval"`
	Target   *string `json:"target"`
}

// List handles GET /restrictions.
func (h *RestrictionHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	rules, err := h.Restrictions.List(ctx)
	if err != nil {
		c.Logger().Errorf("list restrictions failed: %v", err)
		return fail(c, http.StatusInternalServerError, "internal server error")
	}
	return ok(c, http.StatusOK, rules)
}

// Upsert handles PUT /restrictions. A body without an id creates a new
// rule; with an id it updates the existing one.
func (h *RestrictionHandler) Upsert(c echo.Context) error {
	var req upsertRestrictionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fail(c, http.StatusBadRequest, "no name provided")
	}
	if req.Type != model.TypeArea && req.Type != model.TypeFrequency {
		return fail(c, http.StatusBadRequest, "type must be \"area\" or \"frequency\"")
	}
	if req.TTL <= 0 {
		return fail(c, http.StatusBadRequest, "ttl must be positive")
	}
	if req.Type == model.TypeFrequency && (req.Interval == nil || *req.Interval <= 0) {
		return fail(c, http.StatusBadRequest, "frequency restrictions require a positive interval")
	}
	if req.Type == model.TypeArea && (req.Target == nil || strings.TrimSpace(*req.Target) == "") {
		return fail(c, http.StatusBadRequest, "area restrictions require a target")
	}

	rule := model.Restriction{
		ID:       req.ID,
		Name:     req.Name,
		Type:     req.Type,
		TTL:      req.TTL,
		Amount:   req.Amount,
		Interval: req.Interval,
		Target:   req.Target,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Restrictions.Upsert(ctx, &rule); err != nil {
		if errors.Is(err, repository.ErrRestrictionNotFound) {
			return fail(c, http.StatusNotFound, "restriction not found")
		}
		c.Logger().Errorf("upsert restriction failed: %v", err)
		return fail(c, http.StatusInternalServerError, "internal server error")
	}
	status := http.StatusOK
	if req.ID == 0 {
		status = http.StatusCreated
	}
	return ok(c, status, rule)
}

// Delete handles DELETE /restrictions/:id.
func (h *RestrictionHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return fail(c, http.StatusBadRequest, "invalid restriction id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Restrictions.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRestrictionNotFound) {
			return fail(c, http.StatusNotFound, "restriction not found")
		}
		c.Logger().Errorf("delete restriction failed: %v", err)
		return fail(c, http.StatusInternalServerError, "internal server error")
	}
	return c.NoContent(http.StatusNoContent)
}
