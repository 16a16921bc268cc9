package handler // handler defines http handlers

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// errNoUser is returned by getUserID when the context carries no
// authenticated user, which means the auth middleware did not run.
var errNoUser = errors.New("no authenticated user in context")

// getUserID extracts the user_id set by the SessionAuth middleware.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	if id, ok := v.(uint64); ok && id != 0 {
		return id, nil
	}
	return 0, errNoUser
}

// getRole extracts the numeric role set by the SessionAuth middleware.
func getRole(c echo.Context) (uint8, bool) {
	v := c.Get("role")
	role, ok := v.(uint8)
	return role, ok
}

// ok writes the success envelope every client expects:
// {"success": true, "data": ...}.
func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

// fail writes the failure envelope: {"success": false, "error": "..."}.
// The error string is shown to the user verbatim, so callers must pass
// human-readable text and never internal details.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "error": msg})
}
