package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sport-event-booking/internal/authz"
	"github.com/iliyamo/sport-event-booking/internal/middleware"
	"github.com/iliyamo/sport-event-booking/internal/session"
	"github.com/iliyamo/sport-event-booking/internal/token"
)

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

// reqContext derives a deadline-bound context from the request.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// currentSession returns the session placed in context by the loader.
func currentSession(c echo.Context) *session.Session {
	return middleware.CurrentSession(c)
}

// currentPrincipal returns the authenticated principal, or nil.
func currentPrincipal(c echo.Context) *session.Principal {
	if s := currentSession(c); s != nil {
		return s.Principal()
	}
	return nil
}

// flash writes the redirect-with-message payload the front end renders
// as a flash banner plus navigation.  Params ride along untouched.
func flash(c echo.Context, status int, page string, params map[string]string, message, kind string) error {
	body := echo.Map{"redirect": page, "message": message, "kind": kind}
	if len(params) > 0 {
		body["params"] = params
	}
	return c.JSON(status, body)
}

// authzFlash translates an authorization failure into the matching flash
// response.  Reference-token failures are deliberately reported as an
// expired session: internal identifiers and token state never surface.
func authzFlash(c echo.Context, err error) error {
	switch {
	case errors.Is(err, authz.ErrAuthRequired):
		return flash(c, http.StatusUnauthorized, "/login", nil, "please sign in to continue", "error")
	case errors.Is(err, authz.ErrAdminRequired):
		return flash(c, http.StatusForbidden, "/", nil, "not authorized", "error")
	case errors.Is(err, authz.ErrCSRFInvalid):
		return flash(c, http.StatusBadRequest, "/", nil, "this form has expired, please try again", "error")
	case errors.Is(err, token.ErrTokenInvalid), errors.Is(err, token.ErrTokenTypeMismatch):
		return flash(c, http.StatusUnauthorized, "/", nil, "your session has expired, please try again", "error")
	default:
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
}

// formName derives the per-form CSRF name for an action on a referenced
// entity.  Handler and page builder compute it the same way, so the name
// never travels over the wire.
func formName(action, ref string) string { return action + ":" + ref }

// issueForm issues a secure reference for an entity together with the
// CSRF token of one action form targeting it.
func issueForm(s *session.Session, kind token.EntityKind, id uint64, action string) (ref, csrf string, err error) {
	ref, err = s.Vault.Issue(kind, id)
	if err != nil {
		return "", "", err
	}
	csrf, err = s.CSRF.Issue(formName(action, ref))
	if err != nil {
		return "", "", err
	}
	return ref, csrf, nil
}
