package token

import (
	"errors"
	"testing"
	"time"
)

func newTestVault(policy VaultPolicy) (*Vault, *time.Time) {
	v := NewVault(policy)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return now }
	return v, &now
}

func TestResolveConsumesToken(t *testing.T) {
	v, _ := newTestVault(DefaultVaultPolicy())

	tok, err := v.Issue(KindEvent, 42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := v.Resolve(tok, KindEvent)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != 42 {
		t.Fatalf("resolved id = %d, want 42", id)
	}
	if _, err := v.Resolve(tok, KindEvent); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("second resolve err = %v, want ErrTokenInvalid", err)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	v, _ := newTestVault(DefaultVaultPolicy())
	if _, err := v.Resolve("deadbeef", KindEvent); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestKindMismatchKeepsToken(t *testing.T) {
	v, _ := newTestVault(DefaultVaultPolicy())

	tok, err := v.Issue(KindEvent, 7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := v.Resolve(tok, KindUser); !errors.Is(err, ErrTokenTypeMismatch) {
		t.Fatalf("err = %v, want ErrTokenTypeMismatch", err)
	}
	// The mismatch must not burn the token.
	id, err := v.Resolve(tok, KindEvent)
	if err != nil {
		t.Fatalf("resolve after mismatch: %v", err)
	}
	if id != 7 {
		t.Fatalf("resolved id = %d, want 7", id)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	v, now := newTestVault(VaultPolicy{TTL: time.Hour, RejectExpired: true})

	tok, err := v.Issue(KindEvent, 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	*now = now.Add(2 * time.Hour)
	if _, err := v.Resolve(tok, KindEvent); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
	if v.Len() != 0 {
		t.Fatalf("vault len = %d, want 0 after expired resolve", v.Len())
	}
}

func TestExpiredTokenAcceptedUnderLenientPolicy(t *testing.T) {
	v, now := newTestVault(VaultPolicy{TTL: time.Hour, RejectExpired: false})

	tok, err := v.Issue(KindEvent, 9)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	*now = now.Add(2 * time.Hour)
	id, err := v.Resolve(tok, KindEvent)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != 9 {
		t.Fatalf("resolved id = %d, want 9", id)
	}
}

func TestFallbackScan(t *testing.T) {
	v, _ := newTestVault(VaultPolicy{TTL: time.Hour, RejectExpired: true, FallbackScan: true})

	if _, err := v.Issue(KindUser, 100); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := v.Issue(KindEvent, 55); err != nil {
		t.Fatalf("issue: %v", err)
	}
	// An unknown token falls back to the only live event token.
	id, err := v.Resolve("not-a-token", KindEvent)
	if err != nil {
		t.Fatalf("fallback resolve: %v", err)
	}
	if id != 55 {
		t.Fatalf("fallback resolved id = %d, want 55", id)
	}
	// The fallback consumed it; a second miss finds nothing of that kind.
	if _, err := v.Resolve("not-a-token", KindEvent); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestFallbackScanDisabledByDefault(t *testing.T) {
	v, _ := newTestVault(DefaultVaultPolicy())

	if _, err := v.Issue(KindEvent, 55); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := v.Resolve("not-a-token", KindEvent); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
	if v.Len() != 1 {
		t.Fatalf("vault len = %d, want 1: a miss must not touch live tokens", v.Len())
	}
}

func TestPurgeExpired(t *testing.T) {
	v, now := newTestVault(VaultPolicy{TTL: time.Hour, RejectExpired: true})

	if _, err := v.Issue(KindEvent, 1); err != nil {
		t.Fatalf("issue: %v", err)
	}
	*now = now.Add(30 * time.Minute)
	keep, err := v.Issue(KindEvent, 2)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	*now = now.Add(45 * time.Minute)
	v.PurgeExpired()
	if v.Len() != 1 {
		t.Fatalf("vault len = %d, want 1", v.Len())
	}
	if id, err := v.Resolve(keep, KindEvent); err != nil || id != 2 {
		t.Fatalf("resolve survivor = (%d, %v), want (2, nil)", id, err)
	}
}

func TestIssuedTokensAreDistinct(t *testing.T) {
	v, _ := newTestVault(DefaultVaultPolicy())

	a, err := v.Issue(KindEvent, 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	b, err := v.Issue(KindEvent, 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if a == b {
		t.Fatal("two issued tokens are identical")
	}
	// Both resolve independently to the same entity.
	if id, err := v.Resolve(a, KindEvent); err != nil || id != 1 {
		t.Fatalf("resolve a = (%d, %v)", id, err)
	}
	if id, err := v.Resolve(b, KindEvent); err != nil || id != 1 {
		t.Fatalf("resolve b = (%d, %v)", id, err)
	}
}
