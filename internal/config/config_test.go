package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORAGE", "DATABASE_URL", "REDIS_URL", "CACHE_TTL", "REQUEST_TIMEOUT", "SEED_USERS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Addr())
	}
	if cfg.Storage != StorageMemory {
		t.Errorf("expected memory storage, got %s", cfg.Storage)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("expected 5m cache ttl, got %s", cfg.CacheTTL)
	}
	if cfg.RedisURL != "" {
		t.Errorf("expected cache disabled, got %s", cfg.RedisURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/users")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("DATA_FILE", "")
	t.Setenv("SEED_USERS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.RequestTimeout != 2*time.Second {
		t.Errorf("expected 2s, got %s", cfg.RequestTimeout)
	}
	if cfg.DataFile != "" {
		t.Errorf("expected persistence disabled, got %q", cfg.DataFile)
	}
	if cfg.SeedUsers != 0 {
		t.Errorf("expected fallback 0 for bad int, got %d", cfg.SeedUsers)
	}
}

func TestLoadRejectsBadStorage(t *testing.T) {
	t.Setenv("STORAGE", "mongo")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown storage")
	}

	t.Setenv("STORAGE", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Error("expected error for postgres without DATABASE_URL")
	}
}
