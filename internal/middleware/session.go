package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sport-event-booking/internal/session"
	"github.com/iliyamo/sport-event-booking/internal/utils"
)

// SessionKey is the echo context key under which the loaded session is
// stored for downstream handlers.
const SessionKey = "session"

// SessionLoader returns middleware that resolves the browser's signed
// session cookie to a server-side session and stores it in the request
// context.  Requests without a valid cookie get a fresh anonymous
// session and a new cookie, so token issuance works on the very first
// page a visitor sees.  Authentication itself is not enforced here;
// guards and the authorizer decide per route.
func SessionLoader(store *session.Store, secret string, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var sess *session.Session
			if cookie, err := c.Cookie(utils.SessionCookieName); err == nil {
				if sid, err := utils.ParseSessionID(secret, cookie.Value); err == nil {
					sess = store.Lookup(sid)
				}
			}
			if sess == nil {
				sess = store.Create()
				if signed, err := utils.SignSessionID(secret, sess.ID, ttl); err == nil {
					c.SetCookie(&http.Cookie{
						Name:     utils.SessionCookieName,
						Value:    signed,
						Path:     "/",
						HttpOnly: true,
						SameSite: http.SameSiteLaxMode,
						Expires:  sess.ExpiresAt,
					})
				}
			}
			c.Set(SessionKey, sess)
			return next(c)
		}
	}
}

// CurrentSession returns the session placed in context by SessionLoader,
// or nil when the loader did not run (e.g. in tests exercising a handler
// directly).
func CurrentSession(c echo.Context) *session.Session {
	if v := c.Get(SessionKey); v != nil {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}
