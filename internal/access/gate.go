// Package access computes the authentication and authorization decisions
// every protected operation must pass before touching business logic.
// The guards take a failure callback (typically a redirect-with-flash
// responder) and report a boolean; callers must short-circuit on false.
package access

import (
	"github.com/iliyamo/sport-event-booking/internal/model"
	"github.com/iliyamo/sport-event-booking/internal/session"
)

// FailFunc is invoked exactly once when a guard denies the request.
type FailFunc func()

// IsAuthenticated reports whether the session carries a principal.  A nil
// session counts as anonymous.
func IsAuthenticated(s *session.Session) bool {
	return s != nil && s.Principal() != nil
}

// IsAdmin reports whether the session principal holds the admin role.
func IsAdmin(s *session.Session) bool {
	if s == nil {
		return false
	}
	p := s.Principal()
	return p != nil && p.Role == model.RoleAdmin
}

// RequireAuthenticated returns true when the session is authenticated;
// otherwise it fires onFail and returns false.
func RequireAuthenticated(s *session.Session, onFail FailFunc) bool {
	if IsAuthenticated(s) {
		return true
	}
	if onFail != nil {
		onFail()
	}
	return false
}

// RequireAdmin returns true when the session is authenticated and the
// principal is an admin; otherwise it fires onFail and returns false.
func RequireAdmin(s *session.Session, onFail FailFunc) bool {
	if IsAdmin(s) {
		return true
	}
	if onFail != nil {
		onFail()
	}
	return false
}

// ForbidIfAuthenticated is the inverse guard used on login and
// registration pages: it returns true only while anonymous.
func ForbidIfAuthenticated(s *session.Session, onFail FailFunc) bool {
	if !IsAuthenticated(s) {
		return true
	}
	if onFail != nil {
		onFail()
	}
	return false
}
