package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sport-event-booking/internal/access"
)

// RequireAuth rejects anonymous requests before they reach protected
// handlers.  The failure response carries the redirect-with-message
// payload a front end turns into a flash and navigation.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := CurrentSession(c)
			var failed error
			ok := access.RequireAuthenticated(sess, func() {
				failed = c.JSON(http.StatusUnauthorized, echo.Map{
					"redirect": "/login",
					"message":  "please sign in to continue",
					"kind":     "error",
				})
			})
			if !ok {
				return failed
			}
			return next(c)
		}
	}
}

// RequireAdmin additionally enforces the admin role.  Non-admins are sent
// home with a flash; the response does not distinguish "not logged in"
// from "not an admin" beyond the status code.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := CurrentSession(c)
			if !access.IsAuthenticated(sess) {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"redirect": "/login",
					"message":  "please sign in to continue",
					"kind":     "error",
				})
			}
			var failed error
			ok := access.RequireAdmin(sess, func() {
				failed = c.JSON(http.StatusForbidden, echo.Map{
					"redirect": "/",
					"message":  "not authorized",
					"kind":     "error",
				})
			})
			if !ok {
				return failed
			}
			return next(c)
		}
	}
}

// ForbidAuthenticated blocks login and registration endpoints for users
// who already hold a session, sending them home instead.
func ForbidAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := CurrentSession(c)
			var failed error
			ok := access.ForbidIfAuthenticated(sess, func() {
				failed = c.JSON(http.StatusConflict, echo.Map{
					"redirect": "/",
					"message":  "already signed in",
					"kind":     "info",
				})
			})
			if !ok {
				return failed
			}
			return next(c)
		}
	}
}
