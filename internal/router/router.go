package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-booking/internal/handler"
	"github.com/iliyamo/ticket-booking/internal/middleware"
	"github.com/iliyamo/ticket-booking/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems poll this endpoint to verify
	// that the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes.  Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token: the old one is revoked and a new
	// pair is issued.
	g.POST("/refresh", a.Refresh)
	// Logout does not require JWT authentication.  The handler accepts a
	// JSON body containing a `refresh_token` and invalidates that token.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse and guest booking
// endpoints.  Guests can list events, inspect seat availability, book by
// email, cancel with their guest ID and file refund requests; none of
// these routes applies JWT or role middleware.  The optional cache
// middleware wraps the read-only catalog routes.
func RegisterPublic(e *echo.Echo, ev *handler.EventHandler, t *handler.TicketHandler, cache echo.MiddlewareFunc) {
	reads := []echo.MiddlewareFunc{}
	if cache != nil {
		reads = append(reads, cache)
	}
	e.GET("/v1/events", ev.List, reads...)
	e.GET("/v1/events/:id", ev.Get, reads...)
	e.GET("/v1/events/:id/seats", ev.GetSeats, reads...)

	// Guest booking flow.  The trust boundary is the (ticket, guest) ID
	// pair: whoever knows both may cancel, matching the anonymous flow's
	// lack of a stronger credential.
	e.POST("/v1/tickets/guest", t.CreateGuest)
	e.GET("/v1/tickets/guest/:guestId", t.ListGuest)
	e.POST("/v1/tickets/:id/cancel/guest", t.CancelGuest)

	// Refund requests are open to any caller who knows the ticket ID.
	e.POST("/v1/tickets/:id/refund", t.RequestRefund)
}

// RegisterUser registers the member booking endpoints under /v1.  All
// routes require a valid JWT with the USER or ADMIN role.
func RegisterUser(e *echo.Echo, t *handler.TicketHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleUser),
	)
	g.POST("/tickets", t.Create)
	g.GET("/tickets", t.ListMine)
	g.GET("/tickets/:id", t.Get)
	g.POST("/tickets/:id/cancel", t.Cancel)
}

// RegisterAdmin registers the administrator surface under /v1 and
// /v1/admin: catalog management, the cross-owner ticket list, refund
// review and statistics.  All routes require the ADMIN role.
func RegisterAdmin(e *echo.Echo, ev *handler.EventHandler, t *handler.TicketHandler, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Catalog management ----
	g.POST("/events", ev.Create)
	g.PUT("/events/:id", ev.Update)
	g.PATCH("/events/:id", ev.Update)
	g.DELETE("/events/:id", ev.Delete)
	g.POST("/events/:id/seats", ev.CreateSeats)

	// ---- Oversight ----
	g.GET("/admin/tickets", a.ListTickets)
	g.GET("/admin/refunds", a.PendingRefunds)
	g.POST("/admin/refunds/:id/approve", t.ApproveRefund)
	g.GET("/admin/statistics", a.AllStatistics)
	g.GET("/admin/statistics/events/:id", a.EventStatistics)
}
