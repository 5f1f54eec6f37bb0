// Package authz composes the access gate, the CSRF guard and the
// secure-reference vault into the single contract every state-changing
// endpoint goes through.  The contract is uniform: there are no
// per-action exemptions, and raw entity identifiers are never accepted
// from the client.
package authz

import (
	"errors"

	"github.com/iliyamo/sport-event-booking/internal/access"
	"github.com/iliyamo/sport-event-booking/internal/session"
	"github.com/iliyamo/sport-event-booking/internal/token"
)

// ErrAuthRequired is returned when the session carries no principal.
var ErrAuthRequired = errors.New("authentication required")

// ErrAdminRequired is returned when the principal lacks the admin role.
var ErrAdminRequired = errors.New("admin role required")

// ErrCSRFInvalid is returned when the anti-forgery token is missing,
// expired or does not match.
var ErrCSRFInvalid = errors.New("csrf token invalid")

// Request carries the validation inputs of one mutating form submission.
//
// Fields:
//
//	FormName – name the CSRF token was issued under.
//	CSRF     – anti-forgery token supplied by the form.
//	Ref      – secure-reference token standing in for the entity ID.
//	Want     – entity kind the reference must have been issued for.
type Request struct {
	FormName string
	CSRF     string
	Ref      string
	Want     token.EntityKind
}

// Authorize validates a mutating request end to end and returns the
// resolved internal entity ID.  Failures are reported in a fixed order:
// authentication first, then CSRF, then token resolution, so an
// unauthenticated request never consumes a CSRF or reference token.
func Authorize(s *session.Session, req Request) (uint64, error) {
	if !access.IsAuthenticated(s) {
		return 0, ErrAuthRequired
	}
	if !s.CSRF.Verify(req.FormName, req.CSRF) {
		return 0, ErrCSRFInvalid
	}
	return s.Vault.Resolve(req.Ref, req.Want)
}

// AuthorizeForm validates a mutating request that creates a new entity
// and therefore carries no secure reference.  Only the authentication and
// CSRF steps apply.
func AuthorizeForm(s *session.Session, formName, csrf string) error {
	if !access.IsAuthenticated(s) {
		return ErrAuthRequired
	}
	if !s.CSRF.Verify(formName, csrf) {
		return ErrCSRFInvalid
	}
	return nil
}

// AuthorizeAdmin is Authorize with the admin role gate inserted between
// authentication and CSRF verification.
func AuthorizeAdmin(s *session.Session, req Request) (uint64, error) {
	if !access.IsAuthenticated(s) {
		return 0, ErrAuthRequired
	}
	if !access.IsAdmin(s) {
		return 0, ErrAdminRequired
	}
	if !s.CSRF.Verify(req.FormName, req.CSRF) {
		return 0, ErrCSRFInvalid
	}
	return s.Vault.Resolve(req.Ref, req.Want)
}
