// documents_test.go
//
// Favorites synchronization for the Proverbs application
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of proverbs-sync.
// proverbs-sync is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// proverbs-sync is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with proverbs-sync.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/proverbs-sync/internal/handlers"
	"github.com/localnerve/proverbs-sync/internal/models"
	"github.com/localnerve/proverbs-sync/internal/services"
	"github.com/localnerve/proverbs-sync/internal/testutil"
	"gorm.io/gorm"
)

// setupApp builds an app whose requests are all authenticated as userID
func setupApp(t *testing.T, db *gorm.DB, userID string) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})

	// Mock auth middleware to set user in context
	mockAuth := func(c *fiber.Ctx) error {
		c.Locals("user", &services.SessionUser{ID: userID, Roles: []string{"user"}})
		return c.Next()
	}

	handler := &handlers.DocumentHandler{DB: db}
	handler.Register(app.Group("/api/data"), mockAuth)
	return app
}

func TestGetUserDocument_NotFound(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	app := setupApp(t, db, "user-1")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/data/users/user-1", nil))
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}

	testutil.AssertStatus(t, resp, 404)
}

func TestPutUserDocument_CreateThenLoad(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	app := setupApp(t, db, "user-1")

	resp, err := app.Test(httptest.NewRequest("PUT", "/api/data/users/user-1", nil))
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 201)

	resp, err = app.Test(httptest.NewRequest("PUT", "/api/data/users/user-1", nil))
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 200)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/data/users/user-1", nil))
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 200)

	var doc services.UserDocumentResult
	testutil.ParseJSON(t, resp, &doc)
	if doc.UserID != "user-1" {
		t.Errorf("Expected user-1, got %s", doc.UserID)
	}
}

func TestPostCollection_SingleAndBatch(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	testutil.CreateTestUserDocument(t, db, "user-1", 0)
	app := setupApp(t, db, "user-1")

	single := `{"id":"f1","originIdentifier":"p1","data":{"identifier":"f1","originIdentifier":"p1","text":"one"}}`
	req := httptest.NewRequest("POST", "/api/data/users/user-1/favoriteProverbs", strings.NewReader(single))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 200)

	batch := `[{"id":"f2","originIdentifier":"p2","data":{"text":"two"}},{"id":"f3","originIdentifier":"p3","data":{"text":"three"}}]`
	req = httptest.NewRequest("POST", "/api/data/users/user-1/favoriteProverbs", strings.NewReader(batch))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 200)

	var mutation struct {
		NewVersion   string `json:"newVersion"`
		AffectedRows int64  `json:"affectedRows"`
	}
	testutil.ParseJSON(t, resp, &mutation)
	if mutation.NewVersion != "2" || mutation.AffectedRows != 2 {
		t.Errorf("Expected version 2 and 2 rows, got %+v", mutation)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/data/users/user-1/favoriteProverbs", nil))
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 200)

	var result services.CollectionResult
	testutil.ParseJSON(t, resp, &result)
	if len(result.Documents) != 3 {
		t.Errorf("Expected 3 documents, got %d", len(result.Documents))
	}
}

func TestGetCollection_FilterByOrigin(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	testutil.CreateTestUserDocument(t, db, "user-1", 0)
	testutil.CreateTestFavoriteDocument(t, db, "user-1", models.FavoriteProverb{Identifier: "f1", OriginIdentifier: "p1", Text: "one"})
	testutil.CreateTestFavoriteDocument(t, db, "user-1", models.FavoriteProverb{Identifier: "f2", OriginIdentifier: "p2", Text: "two"})
	app := setupApp(t, db, "user-1")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/data/users/user-1/favoriteProverbs?originIdentifier=p2", nil))
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 200)

	var result services.CollectionResult
	testutil.ParseJSON(t, resp, &result)
	if len(result.Documents) != 1 || result.Documents[0].ID != "f2" {
		t.Errorf("Expected only f2, got %+v", result.Documents)
	}
}

func TestGetCollection_UserMissing(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	app := setupApp(t, db, "user-1")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/data/users/user-1/favoriteProverbs", nil))
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 404)
	testutil.AssertErrorType(t, resp, "data.notfound")
}

func TestPostCollection_InvalidBody(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	testutil.CreateTestUserDocument(t, db, "user-1", 0)
	app := setupApp(t, db, "user-1")

	req := httptest.NewRequest("POST", "/api/data/users/user-1/favoriteProverbs", strings.NewReader(`[{"id":"","data":{}}]`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 400)
	testutil.AssertErrorType(t, resp, "data.validation.input")
}

func TestCollection_InvalidName(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	app := setupApp(t, db, "user-1")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/data/users/user-1/bad.name", nil))
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 400)
}

func TestDeleteCollectionDocument_Idempotent(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	testutil.CreateTestUserDocument(t, db, "user-1", 0)
	testutil.CreateTestFavoriteDocument(t, db, "user-1", models.FavoriteProverb{Identifier: "f1", OriginIdentifier: "p1", Text: "one"})
	app := setupApp(t, db, "user-1")

	for i, expectedRows := range []int64{1, 0} {
		resp, err := app.Test(httptest.NewRequest("DELETE", "/api/data/users/user-1/favoriteProverbs/f1", nil))
		if err != nil {
			t.Fatalf("Failed to execute request %d: %v", i, err)
		}
		testutil.AssertStatus(t, resp, 200)

		var mutation struct {
			AffectedRows int64 `json:"affectedRows"`
		}
		testutil.ParseJSON(t, resp, &mutation)
		if mutation.AffectedRows != expectedRows {
			t.Errorf("Request %d: expected %d rows, got %d", i, expectedRows, mutation.AffectedRows)
		}
	}
}

func TestDeleteUserDocument(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	testutil.CreateTestUserDocument(t, db, "user-1", 0)
	app := setupApp(t, db, "user-1")

	resp, err := app.Test(httptest.NewRequest("DELETE", "/api/data/users/user-1", nil))
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 200)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/api/data/users/user-1", nil))
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 404)
}
