package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresDatabase(t *testing.T) {
	t.Setenv("DB_APP_DATABASE", "")
	t.Setenv("AUTHZ_URL", "http://localhost:8080")
	t.Setenv("AUTHZ_CLIENT_ID", "client")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error when DB_APP_DATABASE is missing")
	}
}

func TestLoad_SqliteNeedsNoUser(t *testing.T) {
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_APP_DATABASE", "docs.db")
	t.Setenv("DB_APP_USER", "")
	t.Setenv("AUTHZ_URL", "http://localhost:8080")
	t.Setenv("AUTHZ_CLIENT_ID", "client")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.DBAppDatabase != "docs.db" {
		t.Errorf("Expected docs.db, got %s", cfg.DBAppDatabase)
	}
}

func TestLoadClient_Defaults(t *testing.T) {
	t.Setenv("LOCAL_DB_PATH", "")
	t.Setenv("FREE_MAX_COUNT", "")
	t.Setenv("REMOTE_TIMEOUT_MS", "")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.LocalDBPath != "proverbs.db" {
		t.Errorf("Expected default local path, got %s", cfg.LocalDBPath)
	}
	if cfg.FreeMaxCount != 5 {
		t.Errorf("Expected free max count 5, got %d", cfg.FreeMaxCount)
	}
	if cfg.RemoteTimeout != 10*time.Second {
		t.Errorf("Expected 10s timeout, got %v", cfg.RemoteTimeout)
	}
}

func TestLoadClient_RejectsBadLimit(t *testing.T) {
	t.Setenv("FREE_MAX_COUNT", "0")

	if _, err := LoadClient(); err == nil {
		t.Fatal("Expected error for zero FREE_MAX_COUNT")
	}
}

func TestGetEnvAsInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_NUMBER", "abc")
	if got := getEnvAsInt("SOME_NUMBER", 7); got != 7 {
		t.Errorf("Expected fallback 7, got %d", got)
	}
}
