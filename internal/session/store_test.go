package session

import (
	"testing"
	"time"

	"github.com/iliyamo/sport-event-booking/internal/token"
)

func newTestStore() (*Store, *time.Time) {
	st := NewStore(24*time.Hour, token.DefaultVaultPolicy(), time.Hour)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }
	return st, &now
}

func TestCreateAndLookup(t *testing.T) {
	st, _ := newTestStore()

	s := st.Create()
	if s.ID == "" {
		t.Fatal("created session has empty ID")
	}
	if s.Vault == nil || s.CSRF == nil {
		t.Fatal("created session is missing its token components")
	}
	if got := st.Lookup(s.ID); got != s {
		t.Fatalf("lookup returned %p, want %p", got, s)
	}
	if st.Lookup("no-such-id") != nil {
		t.Fatal("lookup of unknown id returned a session")
	}
}

func TestLookupDropsExpiredSession(t *testing.T) {
	st, now := newTestStore()

	s := st.Create()
	*now = now.Add(25 * time.Hour)
	if st.Lookup(s.ID) != nil {
		t.Fatal("lookup returned an expired session")
	}
	if st.Len() != 0 {
		t.Fatalf("store len = %d, want 0 after expired lookup", st.Len())
	}
}

func TestDestroy(t *testing.T) {
	st, _ := newTestStore()

	s := st.Create()
	st.Destroy(s.ID)
	if st.Lookup(s.ID) != nil {
		t.Fatal("lookup returned a destroyed session")
	}
}

func TestPurgeExpired(t *testing.T) {
	st, now := newTestStore()

	old := st.Create()
	*now = now.Add(12 * time.Hour)
	fresh := st.Create()
	*now = now.Add(13 * time.Hour)

	if removed := st.PurgeExpired(); removed != 1 {
		t.Fatalf("purge removed %d sessions, want 1", removed)
	}
	if st.Lookup(old.ID) != nil {
		t.Fatal("expired session survived the purge")
	}
	if st.Lookup(fresh.ID) == nil {
		t.Fatal("live session did not survive the purge")
	}
}

func TestPrincipalLifecycle(t *testing.T) {
	st, _ := newTestStore()

	s := st.Create()
	if s.Principal() != nil {
		t.Fatal("fresh session already has a principal")
	}
	s.SetPrincipal(&Principal{UserID: 3, Role: "USER"})
	p := s.Principal()
	if p == nil || p.UserID != 3 {
		t.Fatalf("principal = %+v, want UserID 3", p)
	}
	s.ClearPrincipal()
	if s.Principal() != nil {
		t.Fatal("principal survived ClearPrincipal")
	}
}

func TestTokensSurviveLogin(t *testing.T) {
	st, _ := newTestStore()

	s := st.Create()
	ref, err := s.Vault.Issue(token.KindEvent, 42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// A token issued while anonymous stays valid after the login attaches
	// a principal: the session, not the identity, owns the vault.
	s.SetPrincipal(&Principal{UserID: 1, Role: "USER"})
	id, err := s.Vault.Resolve(ref, token.KindEvent)
	if err != nil {
		t.Fatalf("resolve after login: %v", err)
	}
	if id != 42 {
		t.Fatalf("resolved id = %d, want 42", id)
	}
}
