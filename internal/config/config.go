package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time is used for TTL durations
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Policy switches that the design leaves to
// deployment (capacity enforcement, expired-token handling, the reference
// fallback scan) live here so behavior is explicit rather than implied.
type Config struct {
	Env        string // application environment (e.g. "dev", "prod")
	Port       string // HTTP port to listen on
	DBUser     string // database username
	DBPass     string // database password (optional)
	DBHost     string // database host address
	DBPort     string // database port number
	DBName     string // database name
	BcryptCost int    // bcrypt cost for password hashing

	SessionSecret string        // secret used to sign the session cookie
	SessionTTL    time.Duration // lifetime of a browser session
	RefTokenTTL   time.Duration // lifetime of secure-reference tokens
	CSRFTTL       time.Duration // lifetime of anti-forgery tokens

	CapacityEnforced      bool // whether max_participants gates reservations
	RefTokenRejectExpired bool // whether expired reference tokens fail resolution
	RefTokenFallbackScan  bool // whether a vault miss falls back to a type-scoped scan
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:        must("APP_ENV"),
		Port:       must("APP_PORT"),
		DBUser:     must("DB_USER"),
		DBPass:     os.Getenv("DB_PASS"), // empty allowed
		DBHost:     must("DB_HOST"),
		DBPort:     must("DB_PORT"),
		DBName:     must("DB_NAME"),
		BcryptCost: mustInt("BCRYPT_COST"),

		SessionSecret: must("SESSION_SECRET"),
		SessionTTL:    time.Duration(optInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		RefTokenTTL:   time.Duration(optInt("REF_TOKEN_TTL_MIN", 60)) * time.Minute,
		CSRFTTL:       time.Duration(optInt("CSRF_TTL_MIN", 60)) * time.Minute,

		CapacityEnforced:      optBool("CAPACITY_ENFORCED", true),
		RefTokenRejectExpired: optBool("REF_TOKEN_REJECT_EXPIRED", true),
		RefTokenFallbackScan:  optBool("REF_TOKEN_FALLBACK_SCAN", false),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// optInt returns the integer value of key, or def when unset or invalid.
func optInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

// optBool returns the boolean value of key, or def when unset or
// unrecognized.
func optBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return def
}
