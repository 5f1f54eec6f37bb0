package utils // package utils provides helpers for the signed session cookie

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for signing and parsing the cookie value
)

// SessionCookieName is the cookie the browser holds between requests.
// Its value is a signed JWT whose "sid" claim carries the server-side
// session ID, so a tampered cookie is rejected before any store lookup.
const SessionCookieName = "sid"

// ErrCookieInvalid is returned when the cookie value fails signature or
// claim validation.
var ErrCookieInvalid = errors.New("session cookie invalid")

// SignSessionID wraps a session ID in an HS256 JWT bound to the session
// lifetime.  The expiry mirrors the server-side session TTL so a stale
// cookie fails fast without a store lookup.
func SignSessionID(secret, sessionID string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sid": sessionID,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseSessionID validates a signed cookie value and extracts the session
// ID.  Any signature, algorithm or claim problem yields ErrCookieInvalid;
// callers treat that the same as an absent cookie.
func ParseSessionID(secret, value string) (string, error) {
	tok, err := jwt.Parse(value, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrCookieInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", ErrCookieInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrCookieInvalid
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", ErrCookieInvalid
	}
	return sid, nil
}
