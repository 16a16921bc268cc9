package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles. Roles are the
// numeric values stored on the user record (model.Role*). If the user's
// role is not in the allowed set, the request is aborted with a 403
// Forbidden response. It assumes a previous middleware has extracted
// the role into the context under the key "role".
func RequireRole(roles ...uint8) echo.MiddlewareFunc {
	// Build a set of allowed roles for constant-time lookups.
	allowed := make(map[uint8]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Retrieve the role from context. SessionAuth stores it as
			// a uint8; anything else is treated as missing.
			v := c.Get("role")
			role, ok := v.(uint8)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "forbidden"})
			}
			return next(c)
		}
	}
}
