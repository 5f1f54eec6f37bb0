package utils

import (
	"errors"
	"testing"
	"time"
)

func TestSessionCookieRoundTrip(t *testing.T) {
	signed, err := SignSessionID("secret", "session-123", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sid, err := ParseSessionID("secret", signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sid != "session-123" {
		t.Fatalf("sid = %q, want %q", sid, "session-123")
	}
}

func TestParseRejectsTamperedValue(t *testing.T) {
	signed, err := SignSessionID("secret", "session-123", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	tampered := signed[:len(signed)-2] + "xx"
	if _, err := ParseSessionID("secret", tampered); !errors.Is(err, ErrCookieInvalid) {
		t.Fatalf("err = %v, want ErrCookieInvalid", err)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	signed, err := SignSessionID("secret", "session-123", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseSessionID("other-secret", signed); !errors.Is(err, ErrCookieInvalid) {
		t.Fatalf("err = %v, want ErrCookieInvalid", err)
	}
}

func TestParseRejectsExpiredCookie(t *testing.T) {
	signed, err := SignSessionID("secret", "session-123", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseSessionID("secret", signed); !errors.Is(err, ErrCookieInvalid) {
		t.Fatalf("err = %v, want ErrCookieInvalid", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := ParseSessionID("secret", "not-a-jwt"); !errors.Is(err, ErrCookieInvalid) {
		t.Fatalf("err = %v, want ErrCookieInvalid", err)
	}
}
