package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/hall-pass/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/hall-pass/internal/middleware" // import middleware for session authentication and role enforcement
	"github.com/iliyamo/hall-pass/internal/model"
	"github.com/iliyamo/hall-pass/internal/repository"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler. This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterUsers registers account and session endpoints. Login and
// account creation are unauthenticated; logout and the profile
// endpoint require a valid session token.
func RegisterUsers(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler,
	sessions *repository.SessionRepo, users *repository.UserRepo, ratelimit echo.MiddlewareFunc) {
	// Login is rate limited: it is the one endpoint an attacker can
	// hammer with guessed credentials.
	e.POST("/users/login", a.Login, ratelimit)
	// Account creation. The handler validates username and password
	// shape; see handler.UserHandler.Create for the access TODO.
	e.PUT("/users", u.Create)

	// Authenticated user endpoints. SessionAuth resolves the opaque
	// token and stores user_id/role in the context.
	auth := e.Group("/users")
	auth.Use(middleware.SessionAuth(sessions, users))
	auth.GET("/@me", a.Me)
	auth.GET("/sessions", a.ListSessions)
	auth.POST("/logout", a.Logout)
	// Duty status is a staff concept; students have no duty flag.
	auth.POST("/duty", a.Duty,
		middleware.RequireRole(model.RoleTeacher, model.RoleIT, model.RoleSenior))
}

// RegisterPasses registers pass creation and listing. Only students may
// request passes; creation is additionally rate limited since each
// request runs the full quota evaluation.
func RegisterPasses(e *echo.Echo, p *handler.PassHandler,
	sessions *repository.SessionRepo, users *repository.UserRepo, ratelimit echo.MiddlewareFunc) {
	g := e.Group("/passes")
	g.Use(middleware.SessionAuth(sessions, users))
	g.PUT("", p.Create, middleware.RequireRole(model.RoleStudent), ratelimit)
	g.GET("", p.List)
	g.GET("/active", p.Active)
}

// RegisterRestrictions registers the policy administration endpoints,
// restricted to IT and SENIOR staff.
func RegisterRestrictions(e *echo.Echo, r *handler.RestrictionHandler,
	sessions *repository.SessionRepo, users *repository.UserRepo) {
	g := e.Group("/restrictions")
	g.Use(middleware.SessionAuth(sessions, users))
	g.Use(middleware.RequireRole(model.RoleIT, model.RoleSenior))
	g.GET("", r.List)
	g.PUT("", r.Upsert)
	g.DELETE("/:id", r.Delete)
}
