package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mindloop/learncoach-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load(testLogger(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("default port = %s, want 8080", cfg.Port)
	}
	if cfg.UsePostgres() {
		t.Fatal("expected sqlite fallback with no postgres host")
	}
	if len(cfg.CORSOrigins) == 0 {
		t.Fatal("expected default cors origins")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("ACCESS_TOKEN_TTL", "120")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load(testLogger(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("port = %s, want 9090", cfg.Port)
	}
	if !cfg.UsePostgres() {
		t.Fatal("expected postgres with POSTGRES_HOST set")
	}
	if cfg.AccessTokenTTL != 120 {
		t.Fatalf("access ttl = %d, want 120", cfg.AccessTokenTTL)
	}
	want := []string{"https://app.example.com", "https://admin.example.com"}
	if len(cfg.CORSOrigins) != len(want) {
		t.Fatalf("cors origins = %v, want %v", cfg.CORSOrigins, want)
	}
	for i := range want {
		if cfg.CORSOrigins[i] != want[i] {
			t.Fatalf("cors origins = %v, want %v", cfg.CORSOrigins, want)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("port: \"7070\"\njwt_secret_key: filesecret\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load(testLogger(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("port = %s, want 7070", cfg.Port)
	}
	if cfg.JWTSecretKey != "filesecret" {
		t.Fatalf("jwt secret = %s, want filesecret", cfg.JWTSecretKey)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: \"7070\"\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "6060")

	cfg, err := Load(testLogger(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "6060" {
		t.Fatalf("port = %s, want 6060", cfg.Port)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("SQLITE_PATH", "")
	if _, err := Load(testLogger(t)); err == nil {
		t.Fatal("expected validation error for empty sqlite path, got nil")
	}
}
