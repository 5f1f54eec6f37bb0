// Package session provides the server-side session store.  Sessions are
// held in process memory keyed by UUID; the browser only ever sees a
// signed cookie carrying the session ID.  The vault of secure-reference
// tokens and the CSRF guard are owned by the session and die with it.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/sport-event-booking/internal/token"
)

// Principal is the authenticated identity attached to a session after a
// successful login.  Its absence means the session is anonymous.
//
// Fields:
//
//	UserID – primary key of the authenticated user.
//	Name   – display name for responses.
//	Email  – login email.
//	Role   – USER or ADMIN; gates admin-only operations.
//	PMR    – reduced-mobility flag used to pre-filter event browsing.
//	Gender – gender category used for sport visibility filtering.
type Principal struct {
	UserID uint64
	Name   string
	Email  string
	Role   string
	PMR    bool
	Gender string
}

// Session is one browser session.  Principal is nil until login.  The
// embedded Vault and CSRF guard are created with the session so that
// tokens issued while anonymous (e.g. on the login form) remain valid
// after authentication.
type Session struct {
	ID        string
	ExpiresAt time.Time
	Vault     *token.Vault
	CSRF      *token.CSRFGuard

	mu        sync.Mutex
	principal *Principal
}

// Principal returns the authenticated identity, or nil while anonymous.
func (s *Session) Principal() *Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principal
}

// SetPrincipal attaches an identity at login time.
func (s *Session) SetPrincipal(p *Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principal = p
}

// ClearPrincipal detaches the identity without destroying the session.
func (s *Session) ClearPrincipal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principal = nil
}

// Store owns every live session.  It is a plain in-process map guarded by
// a mutex; this application runs as a single node and does not replicate
// session state.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	vault    token.VaultPolicy
	csrfTTL  time.Duration
	now      func() time.Time
}

// NewStore builds a session store.  ttl bounds the whole session; vault
// and csrfTTL govern the per-session token components.
func NewStore(ttl time.Duration, vault token.VaultPolicy, csrfTTL time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		vault:    vault,
		csrfTTL:  csrfTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create makes a fresh anonymous session and registers it.
func (st *Store) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		ExpiresAt: st.now().Add(st.ttl),
		Vault:     token.NewVault(st.vault),
		CSRF:      token.NewCSRFGuard(st.csrfTTL),
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Lookup returns the session for id, or nil when the id is unknown or the
// session has expired.  Expired sessions are dropped on sight.
func (st *Store) Lookup(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil
	}
	if st.now().After(s.ExpiresAt) {
		delete(st.sessions, id)
		return nil
	}
	return s
}

// Destroy removes the session and with it every secure-reference and CSRF
// token it issued.
func (st *Store) Destroy(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len reports the number of registered sessions, expired ones included
// until the next purge.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// PurgeExpired drops expired sessions and trims expired tokens inside the
// live ones.  Returns how many sessions were removed.
func (st *Store) PurgeExpired() int {
	now := st.now()
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		if now.After(s.ExpiresAt) {
			delete(st.sessions, id)
			removed++
			continue
		}
		s.Vault.PurgeExpired()
		s.CSRF.PurgeExpired()
	}
	return removed
}

// StartJanitor purges expired sessions every interval until stop is
// closed.  Runs in its own goroutine.
func (st *Store) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				st.PurgeExpired()
			case <-stop:
				return
			}
		}
	}()
}
