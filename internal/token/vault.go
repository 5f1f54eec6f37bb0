// Package token implements the per-session secure-reference vault and the
// anti-CSRF guard.  Both hand opaque single-use tokens to the client so
// that internal identifiers never appear in anything a browser can edit.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// EntityKind tags what a secure-reference token points at.  Resolution is
// type-checked: a token issued for an event can never resolve as a user.
type EntityKind string

const (
	KindEvent        EntityKind = "event"
	KindUser         EntityKind = "user"
	KindLocation     EntityKind = "location"
	KindSport        EntityKind = "sport"
	KindFeedback     EntityKind = "feedback"
	KindNotification EntityKind = "notification"
)

// ErrTokenInvalid is returned when a secure-reference token is unknown to
// the vault (never issued, already consumed, or expired under a strict
// expiry policy).  Handlers should treat this like an expired session and
// never echo the supplied token back to the client.
var ErrTokenInvalid = errors.New("reference token invalid")

// ErrTokenTypeMismatch is returned when a token exists but was issued for
// a different entity kind.  The token is left in place so a subsequent
// resolve with the correct kind still succeeds.
var ErrTokenTypeMismatch = errors.New("reference token type mismatch")

// entry is one live token mapping.
type entry struct {
	kind      EntityKind
	entityID  uint64
	expiresAt time.Time
}

// VaultPolicy controls the two behaviors the vault leaves to configuration:
// whether expired tokens are rejected at resolve time, and whether a miss
// falls back to scanning the session for any live token of the expected
// kind.  The fallback trades tamper-resistance for multi-tab tolerance:
// under it, a token guarantees "some entity of this kind referenced in
// this session" rather than one specific entity.  It is off by default.
type VaultPolicy struct {
	TTL           time.Duration
	RejectExpired bool
	FallbackScan  bool
}

// DefaultVaultPolicy matches the documented contract: one hour TTL,
// expired tokens rejected, no fallback scan.
func DefaultVaultPolicy() VaultPolicy {
	return VaultPolicy{TTL: time.Hour, RejectExpired: true, FallbackScan: false}
}

// Vault maps opaque single-use tokens to (kind, entityID) pairs for one
// session.  It is safe for concurrent use: multiple tabs of the same
// browser session can race on resolution and exactly one wins.
type Vault struct {
	mu     sync.Mutex
	tokens map[string]entry
	policy VaultPolicy
	now    func() time.Time
}

// NewVault returns an empty vault governed by the given policy.
func NewVault(policy VaultPolicy) *Vault {
	if policy.TTL <= 0 {
		policy.TTL = time.Hour
	}
	return &Vault{
		tokens: make(map[string]entry),
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue generates a fresh random token for the given entity and stores it
// with the configured TTL.  Collisions are not checked: 24 bytes of
// crypto/rand entropy make them negligible by construction.
func (v *Vault) Issue(kind EntityKind, entityID uint64) (string, error) {
	tok, err := randomHex(24)
	if err != nil {
		return "", err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tokens[tok] = entry{kind: kind, entityID: entityID, expiresAt: v.now().Add(v.policy.TTL)}
	return tok, nil
}

// Resolve exchanges a token for the entity ID it was issued for.  A
// successful resolution consumes the token.  A kind mismatch leaves the
// token in place and returns ErrTokenTypeMismatch.  Unknown tokens return
// ErrTokenInvalid, unless the fallback scan is enabled and another live
// token of the expected kind exists in the session, in which case that
// token is consumed instead.
func (v *Vault) Resolve(tok string, want EntityKind) (uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	e, ok := v.tokens[tok]
	if !ok {
		if v.policy.FallbackScan {
			return v.scanLocked(want)
		}
		return 0, ErrTokenInvalid
	}
	if e.kind != want {
		return 0, ErrTokenTypeMismatch
	}
	if v.policy.RejectExpired && v.now().After(e.expiresAt) {
		delete(v.tokens, tok)
		return 0, ErrTokenInvalid
	}
	delete(v.tokens, tok)
	return e.entityID, nil
}

// scanLocked implements the fallback: consume and return the first live
// token of the wanted kind.  Caller holds the mutex.
func (v *Vault) scanLocked(want EntityKind) (uint64, error) {
	for tok, e := range v.tokens {
		if e.kind != want {
			continue
		}
		if v.policy.RejectExpired && v.now().After(e.expiresAt) {
			continue
		}
		delete(v.tokens, tok)
		return e.entityID, nil
	}
	return 0, ErrTokenInvalid
}

// PurgeExpired drops every entry past its expiry.  The session store calls
// this opportunistically; resolution does not depend on it.
func (v *Vault) PurgeExpired() {
	now := v.now()
	v.mu.Lock()
	defer v.mu.Unlock()
	for tok, e := range v.tokens {
		if now.After(e.expiresAt) {
			delete(v.tokens, tok)
		}
	}
}

// Len reports the number of live tokens.  Used by tests and the session
// janitor's debug logging.
func (v *Vault) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.tokens)
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
