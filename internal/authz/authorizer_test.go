package authz

import (
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/sport-event-booking/internal/model"
	"github.com/iliyamo/sport-event-booking/internal/session"
	"github.com/iliyamo/sport-event-booking/internal/token"
)

func newSession(t *testing.T, role string) *session.Session {
	t.Helper()
	st := session.NewStore(time.Hour, token.DefaultVaultPolicy(), time.Hour)
	s := st.Create()
	if role != "" {
		s.SetPrincipal(&session.Principal{UserID: 1, Role: role})
	}
	return s
}

// issueForm mirrors what a page render does: one reference plus the CSRF
// token of one action form targeting it.
func issueForm(t *testing.T, s *session.Session, kind token.EntityKind, id uint64, action string) (string, string, string) {
	t.Helper()
	ref, err := s.Vault.Issue(kind, id)
	if err != nil {
		t.Fatalf("issue ref: %v", err)
	}
	form := action + ":" + ref
	csrf, err := s.CSRF.Issue(form)
	if err != nil {
		t.Fatalf("issue csrf: %v", err)
	}
	return ref, form, csrf
}

func TestAuthorizeHappyPath(t *testing.T) {
	s := newSession(t, model.RoleUser)
	ref, form, csrf := issueForm(t, s, token.KindEvent, 42, "reserve")

	id, err := Authorize(s, Request{FormName: form, CSRF: csrf, Ref: ref, Want: token.KindEvent})
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if id != 42 {
		t.Fatalf("resolved id = %d, want 42", id)
	}
	// Replaying the same submission fails on the consumed CSRF token.
	if _, err := Authorize(s, Request{FormName: form, CSRF: csrf, Ref: ref, Want: token.KindEvent}); !errors.Is(err, ErrCSRFInvalid) {
		t.Fatalf("replay err = %v, want ErrCSRFInvalid", err)
	}
}

func TestAuthorizeUnauthenticatedConsumesNothing(t *testing.T) {
	s := newSession(t, "")
	ref, form, csrf := issueForm(t, s, token.KindEvent, 42, "reserve")

	if _, err := Authorize(s, Request{FormName: form, CSRF: csrf, Ref: ref, Want: token.KindEvent}); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("err = %v, want ErrAuthRequired", err)
	}
	// Authentication is checked first, so neither token was touched: after
	// logging in, the very same submission goes through.
	s.SetPrincipal(&session.Principal{UserID: 1, Role: model.RoleUser})
	id, err := Authorize(s, Request{FormName: form, CSRF: csrf, Ref: ref, Want: token.KindEvent})
	if err != nil {
		t.Fatalf("authorize after login: %v", err)
	}
	if id != 42 {
		t.Fatalf("resolved id = %d, want 42", id)
	}
}

func TestAuthorizeBadCSRFLeavesReference(t *testing.T) {
	s := newSession(t, model.RoleUser)
	ref, form, _ := issueForm(t, s, token.KindEvent, 42, "reserve")

	if _, err := Authorize(s, Request{FormName: form, CSRF: "forged", Ref: ref, Want: token.KindEvent}); !errors.Is(err, ErrCSRFInvalid) {
		t.Fatalf("err = %v, want ErrCSRFInvalid", err)
	}
	// CSRF is checked before resolution, so the reference is still live.
	if id, err := s.Vault.Resolve(ref, token.KindEvent); err != nil || id != 42 {
		t.Fatalf("reference after CSRF failure = (%d, %v), want (42, nil)", id, err)
	}
}

func TestAuthorizeKindMismatch(t *testing.T) {
	s := newSession(t, model.RoleUser)
	ref, form, csrf := issueForm(t, s, token.KindUser, 5, "delete_user")

	if _, err := Authorize(s, Request{FormName: form, CSRF: csrf, Ref: ref, Want: token.KindEvent}); !errors.Is(err, token.ErrTokenTypeMismatch) {
		t.Fatalf("err = %v, want ErrTokenTypeMismatch", err)
	}
}

func TestAuthorizeAdmin(t *testing.T) {
	s := newSession(t, model.RoleUser)
	ref, form, csrf := issueForm(t, s, token.KindEvent, 8, "approve_event")

	if _, err := AuthorizeAdmin(s, Request{FormName: form, CSRF: csrf, Ref: ref, Want: token.KindEvent}); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("err = %v, want ErrAdminRequired", err)
	}
	// The role gate sits before CSRF verification, so the form survives
	// and works once the caller actually is an admin.
	s.SetPrincipal(&session.Principal{UserID: 1, Role: model.RoleAdmin})
	id, err := AuthorizeAdmin(s, Request{FormName: form, CSRF: csrf, Ref: ref, Want: token.KindEvent})
	if err != nil {
		t.Fatalf("authorize admin: %v", err)
	}
	if id != 8 {
		t.Fatalf("resolved id = %d, want 8", id)
	}
}

func TestAuthorizeForm(t *testing.T) {
	s := newSession(t, model.RoleUser)
	csrf, err := s.CSRF.Issue("create_event")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := AuthorizeForm(s, "create_event", csrf); err != nil {
		t.Fatalf("authorize form: %v", err)
	}
	if err := AuthorizeForm(s, "create_event", csrf); !errors.Is(err, ErrCSRFInvalid) {
		t.Fatalf("replay err = %v, want ErrCSRFInvalid", err)
	}
}

func TestAuthorizeFormAnonymous(t *testing.T) {
	s := newSession(t, "")
	if err := AuthorizeForm(s, "create_event", "whatever"); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("err = %v, want ErrAuthRequired", err)
	}
}
