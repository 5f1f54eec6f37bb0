package token

import (
	"testing"
	"time"
)

func newTestGuard(ttl time.Duration) (*CSRFGuard, *time.Time) {
	g := NewCSRFGuard(ttl)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	return g, &now
}

func TestVerifyIsSingleUse(t *testing.T) {
	g, _ := newTestGuard(time.Hour)

	tok, err := g.Issue("reserve:abc")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !g.Verify("reserve:abc", tok) {
		t.Fatal("first verify failed")
	}
	if g.Verify("reserve:abc", tok) {
		t.Fatal("second verify succeeded, token must be single-use")
	}
}

func TestFailedVerifyConsumesStoredToken(t *testing.T) {
	g, _ := newTestGuard(time.Hour)

	tok, err := g.Issue("delete_event:abc")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if g.Verify("delete_event:abc", "wrong-value") {
		t.Fatal("verify accepted a wrong token")
	}
	// The failed attempt burned the stored token: even the genuine value
	// is now rejected, so the guard cannot be probed repeatedly.
	if g.Verify("delete_event:abc", tok) {
		t.Fatal("verify accepted the real token after a failed attempt")
	}
}

func TestVerifyUnknownForm(t *testing.T) {
	g, _ := newTestGuard(time.Hour)
	if g.Verify("never-issued", "anything") {
		t.Fatal("verify accepted a token for a form that was never issued")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	g, now := newTestGuard(time.Hour)

	tok, err := g.Issue("reserve:abc")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	*now = now.Add(2 * time.Hour)
	if g.Verify("reserve:abc", tok) {
		t.Fatal("verify accepted an expired token")
	}
}

func TestIssueOverwritesPreviousToken(t *testing.T) {
	g, _ := newTestGuard(time.Hour)

	old, err := g.Issue("reserve:abc")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	fresh, err := g.Issue("reserve:abc")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if old == fresh {
		t.Fatal("reissue returned the same token")
	}
	if !g.Verify("reserve:abc", fresh) {
		t.Fatal("verify rejected the freshly issued token")
	}
}

func TestStaleTokenRejectedAfterReissue(t *testing.T) {
	g, _ := newTestGuard(time.Hour)

	old, err := g.Issue("reserve:abc")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := g.Issue("reserve:abc"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if g.Verify("reserve:abc", old) {
		t.Fatal("verify accepted a token that was superseded by a reissue")
	}
}

func TestGuardPurgeExpired(t *testing.T) {
	g, now := newTestGuard(time.Hour)

	if _, err := g.Issue("a"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	*now = now.Add(30 * time.Minute)
	keep, err := g.Issue("b")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	*now = now.Add(45 * time.Minute)
	g.PurgeExpired()
	if !g.Verify("b", keep) {
		t.Fatal("purge removed a live token")
	}
}
