package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CIVIC_AUTH_JWTSECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.BasePath != "/api" {
		t.Errorf("base path = %q", cfg.Server.BasePath)
	}
	if cfg.Server.MaxBodyBytes != 50<<20 {
		t.Errorf("max body bytes = %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.TokenTTL() != 24*time.Hour {
		t.Errorf("token ttl = %v", cfg.TokenTTL())
	}
	if cfg.Auth.BcryptCost != 10 || cfg.Auth.AdminUsername != "admin" || cfg.Auth.AdminPassword != "admin123" {
		t.Errorf("unexpected auth defaults %+v", cfg.Auth)
	}
	if cfg.ArchiveEnabled() {
		t.Error("archive should be disabled without a bucket")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CIVIC_AUTH_JWTSECRET", "s3cret")
	t.Setenv("CIVIC_SERVER_BASEPATH", "v1/")
	t.Setenv("CIVIC_AUTH_TOKENTTLMINUTES", "30")
	t.Setenv("CIVIC_STORAGE_BUCKET", "evidence")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.BasePath != "/v1" {
		t.Errorf("base path = %q", cfg.Server.BasePath)
	}
	if cfg.TokenTTL() != 30*time.Minute {
		t.Errorf("token ttl = %v", cfg.TokenTTL())
	}
	if !cfg.ArchiveEnabled() {
		t.Error("archive should be enabled with a bucket")
	}
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dotenv := "# local\nCIVIC_AUTH_JWTSECRET=\"from-file\"\nCIVIC_LOG_LEVEL=debug\nnot a pair\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CIVIC_LOG_LEVEL", "warn")
	t.Setenv("CIVIC_AUTH_JWTSECRET", "")
	os.Unsetenv("CIVIC_AUTH_JWTSECRET")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-file" {
		t.Errorf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestValidate_RequiresSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CIVIC_AUTH_JWTSECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing secret to fail validation")
	}
}
