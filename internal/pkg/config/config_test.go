package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": secret,
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" || cfg.Production() {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.JWT.Issuer != "bgi-launchpad" || cfg.JWT.AccessTTL != 15*time.Minute || cfg.JWT.RefreshTTL != 168*time.Hour {
		t.Fatalf("unexpected jwt defaults: %+v", cfg.JWT)
	}
	if cfg.JWT.BcryptCost != 10 {
		t.Fatalf("unexpected bcrypt cost: %d", cfg.JWT.BcryptCost)
	}
	if cfg.Mongo.Database != "launchpad" || cfg.Redis.LockTTL != 10*time.Second || cfg.Redis.LockWait != 2*time.Second {
		t.Fatalf("unexpected store defaults: %+v %+v", cfg.Mongo, cfg.Redis)
	}
	if len(cfg.CORSAllowedOrigins) != 5 || cfg.CORSAllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":           secret,
		"ENV":                  "production",
		"ACCESS_TOKEN_TTL":     "5m",
		"REFRESH_TOKEN_TTL":    "24h",
		"CORS_ALLOWED_ORIGINS": "https://portal.example.edu",
		"ACCESS_POLICY_FILE":   "/etc/launchpad/policy.yaml",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Production() || cfg.JWT.AccessTTL != 5*time.Minute || cfg.JWT.RefreshTTL != 24*time.Hour {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.AccessPolicyFile != "/etc/launchpad/policy.yaml" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadWith_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":    {},
		"bad duration":      {"JWT_SECRET": secret, "ACCESS_TOKEN_TTL": "soon"},
		"access >= refresh": {"JWT_SECRET": secret, "ACCESS_TOKEN_TTL": "2h", "REFRESH_TOKEN_TTL": "1h"},
	}
	for name, env := range cases {
		if _, err := LoadWith(context.Background(), envconfig.MapLookuper(env)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestJWTConfig_ReadSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwt.key")
	if err := os.WriteFile(path, []byte(secret+"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":      "ignored-when-a-file-is-configured",
		"JWT_SECRET_FILE": path,
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := cfg.JWT.ReadSecret()
	if err != nil {
		t.Fatalf("read secret: %v", err)
	}
	if got != secret {
		t.Fatalf("expected file secret, got %q", got)
	}

	cfg.JWT.SecretFile = filepath.Join(t.TempDir(), "missing")
	if _, err := cfg.JWT.ReadSecret(); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
