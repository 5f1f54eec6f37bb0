package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sport-event-booking/internal/handler"
	"github.com/iliyamo/sport-event-booking/internal/middleware"
)

// RegisterRoutes registers routes that carry no session requirement at
// all.  Currently it exposes only a health check for load balancers and
// monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account endpoints.  Register and login are
// fenced off for visitors who already hold a principal; logout and /me
// require one.  limit is the shared token-bucket limiter, applied to the
// credential endpoints so they cannot be hammered.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, middleware.ForbidAuthenticated(), limit)
	g.POST("/login", a.Login, middleware.ForbidAuthenticated(), limit)
	g.POST("/logout", a.Logout, middleware.RequireAuth())
	e.GET("/v1/me", a.Me, middleware.RequireAuth())
}

// RegisterBrowse registers the discovery endpoints.  Anyone with a
// session, anonymous included, can browse; the listing itself decides
// which action forms each caller gets.  The catalog endpoints are the
// only cached ones: event listings embed per-session tokens and must
// never be shared between sessions.
func RegisterBrowse(e *echo.Echo, b *handler.BrowseHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/events", b.ListEvents)
	e.GET("/v1/events/:ref", b.GetEvent)
	e.GET("/v1/sports", b.ListSports, cache)
	e.GET("/v1/locations", b.ListLocations, cache)
}

// RegisterMember registers everything an authenticated user can do:
// manage their own events, hold and release spots, read notifications
// and leave feedback.  The limiter covers the mutating routes.
func RegisterMember(e *echo.Echo, ev *handler.EventHandler, res *handler.ReservationHandler, n *handler.NotificationHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.RequireAuth())

	g.GET("/events/forms/new", ev.NewEventForm)
	g.POST("/events", ev.CreateEvent, limit)
	g.GET("/locations/new", ev.NewLocationForm)
	g.POST("/locations", ev.CreateLocation, limit)
	g.POST("/events/update", ev.UpdateEvent, limit)
	g.POST("/events/delete", ev.DeleteEvent, limit)

	g.GET("/reservations", res.MyReservations)
	g.POST("/reservations", res.Reserve, limit)
	g.POST("/reservations/cancel", res.Cancel, limit)

	g.GET("/notifications", n.List)
	g.POST("/notifications/read", n.MarkRead)

	g.GET("/feedback/new", n.FeedbackForm)
	g.POST("/feedback", n.SubmitFeedback, limit)
}

// RegisterAdmin registers the moderation endpoints behind the admin
// guard.  The authorizer revalidates the role on every mutation, so the
// guard here is a fast path, not the only check.
func RegisterAdmin(e *echo.Echo, adm *handler.AdminHandler) {
	g := e.Group("/v1/admin", middleware.RequireAdmin())

	g.GET("/events", adm.ListPending)
	g.POST("/events/approve", adm.Approve)
	g.POST("/events/refuse", adm.Refuse)

	g.GET("/users", adm.ListUsers)
	g.POST("/users/delete", adm.DeleteUser)

	g.GET("/feedback", adm.ListFeedback)
	g.POST("/feedback/delete", adm.DeleteFeedback)
}
