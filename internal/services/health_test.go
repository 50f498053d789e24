package services_test

import (
	"testing"

	"github.com/localnerve/proverbs-sync/internal/config"
	"github.com/localnerve/proverbs-sync/internal/logging"
	"github.com/localnerve/proverbs-sync/internal/services"
	"github.com/localnerve/proverbs-sync/internal/testutil"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestHealthCheck_Healthy(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	cfg := &config.Config{DBType: "sqlite", DBAppDatabase: ":memory:"}

	result := services.HealthCheck(cfg, db, logging.Discard())
	if result.Status != "healthy" {
		t.Fatalf("Expected healthy, got %+v", result)
	}
	if result.Authorizer != "disabled" {
		t.Errorf("Expected authorizer disabled, got %s", result.Authorizer)
	}
}

func TestHealthCheck_MissingSchema(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	cfg := &config.Config{DBType: "sqlite"}

	result := services.HealthCheck(cfg, db, logging.Discard())
	if result.Status != "unhealthy" || result.Schema != "missing" {
		t.Errorf("Expected unhealthy with missing schema, got %+v", result)
	}
}

func TestHealthCheck_AuthorizerUnreachable(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	cfg := &config.Config{DBType: "sqlite", AuthzURL: "http://127.0.0.1:1"}

	result := services.HealthCheck(cfg, db, logging.Discard())
	if result.Authorizer != "unreachable" {
		t.Errorf("Expected unreachable authorizer, got %s", result.Authorizer)
	}
	if result.Details["authorizer_error"] == "" {
		t.Errorf("Expected authorizer error detail")
	}
}

func TestSessionUser_HasRole(t *testing.T) {
	u := &services.SessionUser{ID: "u1", Roles: []string{"user", "admin"}}
	if !u.HasRole("admin") || u.HasRole("owner") {
		t.Errorf("Unexpected role check result for %+v", u.Roles)
	}
}
