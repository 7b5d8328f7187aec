package config

import (
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("MONGODB_DATABASE", "docsengine_test")
	os.Setenv("REDIS_HOST", "localhost")
	os.Setenv("REDIS_PORT", "6379")
	os.Setenv("GITHUB_OWNER", "acme")
	os.Setenv("GITHUB_REPO", "handbook")
	os.Setenv("JWT_SECRET", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.GitHub.Branch != "main" {
		t.Fatalf("expected default branch main, got %q", cfg.GitHub.Branch)
	}
	if cfg.RateLimit.PerMinute != 60 {
		t.Fatalf("expected default quota 60, got %d", cfg.RateLimit.PerMinute)
	}
}
