package config

import (
	"errors"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("AUTH0_DOMAIN", "")
	t.Setenv("ISSUER", "")
	t.Setenv("ALGORITHMS", "")
	t.Setenv("DB_DRIVER", "")

	cfg := FromEnv()
	if cfg.Port != "2014" {
		t.Fatalf("port: got=%q want=%q", cfg.Port, "2014")
	}
	if len(cfg.Algorithms) != 1 || cfg.Algorithms[0] != "RS256" {
		t.Fatalf("algorithms: got=%v", cfg.Algorithms)
	}
	if cfg.DB.Driver != "postgres" {
		t.Fatalf("driver: got=%q", cfg.DB.Driver)
	}
	if cfg.IssuerURL() != "" || cfg.JWKSURL() != "" {
		t.Fatalf("expected empty provider urls without a domain")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("AUTH0_DOMAIN", "tenant.example.com")
	t.Setenv("ISSUER", "")
	t.Setenv("ADMIN_EMAILS", " a@example.com, ,b@example.com ")
	t.Setenv("JWKS_CACHE_TTL", "90s")
	t.Setenv("PREVIEW_MAX_ENTRIES", "not-a-number")
	t.Setenv("FLASK_SECRET_KEY", "legacy")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("DB_DRIVER", "SQLite")

	cfg := FromEnv()
	if cfg.Issuer != "https://tenant.example.com/" {
		t.Fatalf("issuer: got=%q", cfg.Issuer)
	}
	if cfg.JWKSURL() != "https://tenant.example.com/.well-known/jwks.json" {
		t.Fatalf("jwks url: got=%q", cfg.JWKSURL())
	}
	if len(cfg.AdminEmails) != 2 || cfg.AdminEmails[1] != "b@example.com" {
		t.Fatalf("admin emails: got=%v", cfg.AdminEmails)
	}
	if cfg.JWKSCacheTTL != 90*time.Second {
		t.Fatalf("ttl: got=%s", cfg.JWKSCacheTTL)
	}
	if cfg.PreviewMaxEntries != 500 {
		t.Fatalf("max entries should fall back to default, got=%d", cfg.PreviewMaxEntries)
	}
	if cfg.SessionSecret != "legacy" {
		t.Fatalf("session secret: got=%q", cfg.SessionSecret)
	}
	if cfg.DB.Driver != "sqlite" {
		t.Fatalf("driver should be lower-cased, got=%q", cfg.DB.Driver)
	}
}

func TestEnsureSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("FLASK_SECRET_KEY", "")

	t.Setenv("APP_ENV", "production")
	cfg := FromEnv()
	if generated, err := cfg.EnsureSessionSecret(); !errors.Is(err, ErrSessionSecretRequired) || generated {
		t.Fatalf("production without secret: generated=%v err=%v", generated, err)
	}
	if cfg.SessionSecret != "" {
		t.Fatalf("production secret should stay empty, got=%q", cfg.SessionSecret)
	}

	t.Setenv("APP_ENV", "development")
	first := FromEnv()
	second := FromEnv()
	for _, c := range []*Config{first, second} {
		if generated, err := c.EnsureSessionSecret(); err != nil || !generated {
			t.Fatalf("development: generated=%v err=%v", generated, err)
		}
		if len(c.SessionSecret) != 64 {
			t.Fatalf("generated secret length: got=%d", len(c.SessionSecret))
		}
	}
	if first.SessionSecret == second.SessionSecret || first.SessionSecret == "changeme" {
		t.Fatalf("generated secrets must be random")
	}

	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "configured")
	cfg = FromEnv()
	if generated, err := cfg.EnsureSessionSecret(); err != nil || generated || cfg.SessionSecret != "configured" {
		t.Fatalf("configured secret: generated=%v err=%v secret=%q", generated, err, cfg.SessionSecret)
	}
}
