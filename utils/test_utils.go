package utils

import (
	"os"
	"testing"
)

// SkipUnlessTestDB skips store-backed tests when no postgres is configured
// in the environment. CI provides DB_HOST, local runs without one still
// exercise every pure package.
func SkipUnlessTestDB(t *testing.T) {
	t.Helper()
	if os.Getenv("DB_HOST") == "" {
		t.Skip("no test database configured, set DB_HOST to run store-backed tests")
	}
}

// SkipUnlessTestRedis skips redis-backed tests when no redis is configured.
func SkipUnlessTestRedis(t *testing.T) {
	t.Helper()
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("no test redis configured, set REDIS_HOST to run redis-backed tests")
	}
}
