package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hall-pass/internal/repository"
)

// SessionAuth returns an Echo middleware that resolves the opaque
// session token from the Authorization header and injects the acting
// user into the request context. Mobile clients send the raw token; a
// "Bearer " prefix is also accepted. This middleware should wrap
// protected routes so that handlers can read the authenticated user via
// `c.Get("user_id")` and `c.Get("role")`.
//
// The two 401 cases are distinguished in the response body: a token
// that matched nothing yields "unauthenticated" while a token whose
// session has lapsed yields "session expired", so clients can show the
// right message. Both mean the caller must log in again.
func SessionAuth(sessions *repository.SessionRepo, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get("Authorization"))
			raw = strings.TrimPrefix(raw, "Bearer ")
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "missing session token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			userID, err := sessions.Resolve(ctx, raw)
			if err != nil {
				switch {
				case errors.Is(err, repository.ErrSessionExpired):
					return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "session expired"})
				case errors.Is(err, repository.ErrUnauthenticated):
					return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthenticated"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "internal server error"})
			}

			u, err := users.GetByID(ctx, userID)
			if err != nil {
				// Session rows cascade on user deletion, so a resolved
				// session without a user means the account just went away.
				if errors.Is(err, repository.ErrUserNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthenticated"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "internal server error"})
			}

			c.Set("user_id", u.ID)
			c.Set("role", u.Role)
			c.Set("token", raw)
			return next(c)
		}
	}
}
