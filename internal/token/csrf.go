package token

import (
	"crypto/subtle"
	"sync"
	"time"
)

// formToken is one live anti-forgery token for a named form.
type formToken struct {
	value     string
	expiresAt time.Time
}

// CSRFGuard issues and verifies per-form anti-forgery tokens for one
// session.  At most one token is live per form name: issuing again
// overwrites the previous token.  Verification is single-use and fails
// closed; a failed attempt also consumes the stored token, so a retried
// legitimate request must obtain a fresh token from a new page render.
type CSRFGuard struct {
	mu    sync.Mutex
	forms map[string]formToken
	ttl   time.Duration
	now   func() time.Time
}

// NewCSRFGuard returns an empty guard whose tokens live for ttl.
func NewCSRFGuard(ttl time.Duration) *CSRFGuard {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CSRFGuard{
		forms: make(map[string]formToken),
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Issue generates a fresh token for the named form, replacing any
// previous one.
func (g *CSRFGuard) Issue(formName string) (string, error) {
	tok, err := randomHex(24)
	if err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.forms[formName] = formToken{value: tok, expiresAt: g.now().Add(g.ttl)}
	return tok, nil
}

// Verify checks the supplied token against the stored one for formName.
// Missing, expired and mismatched tokens all return false; in every case
// the stored token is removed so it cannot be probed repeatedly.  The
// comparison is constant-time.
func (g *CSRFGuard) Verify(formName, supplied string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	ft, ok := g.forms[formName]
	if !ok {
		return false
	}
	delete(g.forms, formName)
	if g.now().After(ft.expiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(ft.value), []byte(supplied)) == 1
}

// PurgeExpired drops expired form tokens.
func (g *CSRFGuard) PurgeExpired() {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	for name, ft := range g.forms {
		if now.After(ft.expiresAt) {
			delete(g.forms, name)
		}
	}
}
