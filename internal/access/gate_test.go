package access

import (
	"testing"
	"time"

	"github.com/iliyamo/sport-event-booking/internal/model"
	"github.com/iliyamo/sport-event-booking/internal/session"
	"github.com/iliyamo/sport-event-booking/internal/token"
)

func newSession(role string) *session.Session {
	st := session.NewStore(time.Hour, token.DefaultVaultPolicy(), time.Hour)
	s := st.Create()
	if role != "" {
		s.SetPrincipal(&session.Principal{UserID: 1, Role: role})
	}
	return s
}

func TestIsAuthenticated(t *testing.T) {
	if IsAuthenticated(nil) {
		t.Fatal("nil session counted as authenticated")
	}
	if IsAuthenticated(newSession("")) {
		t.Fatal("anonymous session counted as authenticated")
	}
	if !IsAuthenticated(newSession(model.RoleUser)) {
		t.Fatal("logged-in session counted as anonymous")
	}
}

func TestIsAdmin(t *testing.T) {
	if IsAdmin(nil) || IsAdmin(newSession("")) || IsAdmin(newSession(model.RoleUser)) {
		t.Fatal("non-admin session passed the admin check")
	}
	if !IsAdmin(newSession(model.RoleAdmin)) {
		t.Fatal("admin session failed the admin check")
	}
}

func TestRequireAuthenticated(t *testing.T) {
	fails := 0
	if RequireAuthenticated(newSession(""), func() { fails++ }) {
		t.Fatal("anonymous session passed RequireAuthenticated")
	}
	if fails != 1 {
		t.Fatalf("onFail fired %d times, want 1", fails)
	}
	if !RequireAuthenticated(newSession(model.RoleUser), func() { fails++ }) {
		t.Fatal("authenticated session failed RequireAuthenticated")
	}
	if fails != 1 {
		t.Fatalf("onFail fired on success, count = %d", fails)
	}
}

func TestRequireAdmin(t *testing.T) {
	fails := 0
	if RequireAdmin(newSession(model.RoleUser), func() { fails++ }) {
		t.Fatal("plain user passed RequireAdmin")
	}
	if fails != 1 {
		t.Fatalf("onFail fired %d times, want 1", fails)
	}
	if !RequireAdmin(newSession(model.RoleAdmin), nil) {
		t.Fatal("admin failed RequireAdmin")
	}
}

func TestForbidIfAuthenticated(t *testing.T) {
	if !ForbidIfAuthenticated(newSession(""), nil) {
		t.Fatal("anonymous session was forbidden from the login page")
	}
	fails := 0
	if ForbidIfAuthenticated(newSession(model.RoleUser), func() { fails++ }) {
		t.Fatal("authenticated session was allowed on the login page")
	}
	if fails != 1 {
		t.Fatalf("onFail fired %d times, want 1", fails)
	}
}
