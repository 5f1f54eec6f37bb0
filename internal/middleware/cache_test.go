package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sport-event-booking/internal/config"
	"github.com/iliyamo/sport-event-booking/internal/session"
	"github.com/iliyamo/sport-event-booking/internal/token"
)

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{"GET": true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "cache",
	}
}

func newCacheContext(t *testing.T, target, gender string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest("GET", target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/sports")
	if gender != "" {
		st := session.NewStore(24*time.Hour, token.DefaultVaultPolicy(), time.Hour)
		s := st.Create()
		s.SetPrincipal(&session.Principal{UserID: 1, Role: "USER", Gender: gender})
		c.Set(SessionKey, s)
	}
	return c
}

func TestCacheKeyVariesByGenderCategory(t *testing.T) {
	cfg := testCacheConfig()

	female := cacheKeyFrom(cfg, newCacheContext(t, "/v1/sports", "F"))
	male := cacheKeyFrom(cfg, newCacheContext(t, "/v1/sports", "M"))
	anon := cacheKeyFrom(cfg, newCacheContext(t, "/v1/sports", ""))

	if female == male {
		t.Fatal("sessions in different gender categories share a cache key")
	}
	if female == anon || male == anon {
		t.Fatal("an anonymous caller shares a cache key with a gendered session")
	}
}

func TestCacheKeyStableWithinCategory(t *testing.T) {
	cfg := testCacheConfig()

	a := cacheKeyFrom(cfg, newCacheContext(t, "/v1/sports", "F"))
	b := cacheKeyFrom(cfg, newCacheContext(t, "/v1/sports", "F"))
	if a != b {
		t.Fatalf("keys differ for identical requests in the same category: %q vs %q", a, b)
	}
}

func TestCacheKeyVariesByQuery(t *testing.T) {
	cfg := testCacheConfig()

	plain := cacheKeyFrom(cfg, newCacheContext(t, "/v1/sports", "F"))
	filtered := cacheKeyFrom(cfg, newCacheContext(t, "/v1/sports?page=2", "F"))
	if plain == filtered {
		t.Fatal("query string is not part of the cache key")
	}
}
