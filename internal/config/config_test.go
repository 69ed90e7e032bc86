package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("RATE_LIMIT_ENABLED", "")

	cfg := Load()
	if cfg.DBType != "sqlite" {
		t.Fatalf("expected sqlite, got %q", cfg.DBType)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.UploadDir != "./uploads" {
		t.Fatalf("expected ./uploads, got %q", cfg.UploadDir)
	}
	if !cfg.RateLimitEnabled {
		t.Fatalf("expected rate limiting enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "Postgres")
	t.Setenv("RATE_LIMIT_ENABLED", "off")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("ENVIRONMENT", "production")

	cfg := Load()
	if cfg.DBType != "postgres" {
		t.Fatalf("expected postgres, got %q", cfg.DBType)
	}
	if cfg.RateLimitEnabled {
		t.Fatalf("expected rate limiting disabled")
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected 2.5 rps, got %v", cfg.RateLimitRPS)
	}
	if cfg.RedisDB != 0 {
		t.Fatalf("expected fallback redis db 0, got %d", cfg.RedisDB)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production environment")
	}
}
