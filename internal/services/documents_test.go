package services_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/localnerve/proverbs-sync/internal/models"
	"github.com/localnerve/proverbs-sync/internal/services"
	"github.com/localnerve/proverbs-sync/internal/testutil"
)

func favoriteDocument(t *testing.T, id, origin string) services.CollectionDocument {
	t.Helper()
	raw, err := json.Marshal(models.FavoriteProverb{Identifier: id, OriginIdentifier: origin, Text: "text " + origin})
	if err != nil {
		t.Fatalf("Failed to marshal favorite: %v", err)
	}
	return services.CollectionDocument{ID: id, OriginIdentifier: origin, Data: raw}
}

func TestGetUserDocument_NotFound(t *testing.T) {
	db := testutil.SetupDocumentDB(t)

	_, err := services.GetUserDocument(db, "nobody")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserDocument_Idempotent(t *testing.T) {
	db := testutil.SetupDocumentDB(t)

	doc, created, err := services.CreateUserDocument(db, "user-1")
	if err != nil {
		t.Fatalf("Failed to create user document: %v", err)
	}
	if !created {
		t.Errorf("Expected first create to report created")
	}
	if doc.UserID != "user-1" || doc.Version != "0" {
		t.Errorf("Unexpected document: %+v", doc)
	}

	_, created, err = services.CreateUserDocument(db, "user-1")
	if err != nil {
		t.Fatalf("Second create failed: %v", err)
	}
	if created {
		t.Errorf("Expected second create to find the existing document")
	}
}

func TestCollectionDocuments_RequireUser(t *testing.T) {
	db := testutil.SetupDocumentDB(t)

	if _, err := services.GetCollectionDocuments(db, "ghost", services.FavoriteProverbsCollection, ""); !errors.Is(err, services.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound on read, got %v", err)
	}

	docs := []services.CollectionDocument{favoriteDocument(t, "f1", "p1")}
	if _, _, err := services.SetCollectionDocuments(db, "ghost", services.FavoriteProverbsCollection, docs); !errors.Is(err, services.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound on write, got %v", err)
	}
}

func TestSetCollectionDocuments_UpsertAndFilter(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	testutil.CreateTestUserDocument(t, db, "user-1", 0)

	docs := []services.CollectionDocument{
		favoriteDocument(t, "f1", "p1"),
		favoriteDocument(t, "f2", "p2"),
	}
	version, affected, err := services.SetCollectionDocuments(db, "user-1", services.FavoriteProverbsCollection, docs)
	if err != nil {
		t.Fatalf("Failed to set documents: %v", err)
	}
	if version != 1 || affected != 2 {
		t.Errorf("Expected version 1 and 2 rows, got %d and %d", version, affected)
	}

	// Upsert the same id with a new origin
	version, _, err = services.SetCollectionDocuments(db, "user-1", services.FavoriteProverbsCollection,
		[]services.CollectionDocument{favoriteDocument(t, "f2", "p3")})
	if err != nil {
		t.Fatalf("Failed to upsert document: %v", err)
	}
	if version != 2 {
		t.Errorf("Expected version 2, got %d", version)
	}

	all, err := services.GetCollectionDocuments(db, "user-1", services.FavoriteProverbsCollection, "")
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(all.Documents) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(all.Documents))
	}
	if all.Version != "2" {
		t.Errorf("Expected version \"2\", got %q", all.Version)
	}

	filtered, err := services.GetCollectionDocuments(db, "user-1", services.FavoriteProverbsCollection, "p3")
	if err != nil {
		t.Fatalf("Failed to filter documents: %v", err)
	}
	if len(filtered.Documents) != 1 || filtered.Documents[0].ID != "f2" {
		t.Errorf("Expected only f2 for origin p3, got %+v", filtered.Documents)
	}

	var fav models.FavoriteProverb
	if err := json.Unmarshal(filtered.Documents[0].Data, &fav); err != nil {
		t.Fatalf("Stored data is not a favorite: %v", err)
	}
	if fav.OriginIdentifier != "p3" {
		t.Errorf("Expected stored payload to be updated, got %q", fav.OriginIdentifier)
	}
}

func TestSetCollectionDocuments_EmptyBatch(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	testutil.CreateTestUserDocument(t, db, "user-1", 4)

	version, affected, err := services.SetCollectionDocuments(db, "user-1", services.FavoriteProverbsCollection, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if version != 4 || affected != 0 {
		t.Errorf("Expected unchanged version 4 and 0 rows, got %d and %d", version, affected)
	}
}

func TestSetCollectionDocuments_InvalidDocument(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	testutil.CreateTestUserDocument(t, db, "user-1", 0)

	for _, bad := range []services.CollectionDocument{
		{ID: "", Data: json.RawMessage(`{}`)},
		{ID: "p1", Data: json.RawMessage(`["not","an","object"]`)},
		{ID: "p1", Data: json.RawMessage(`{"text":`)},
		{ID: "p1"},
	} {
		docs := []services.CollectionDocument{bad}
		if _, _, err := services.SetCollectionDocuments(db, "user-1", services.FavoriteProverbsCollection, docs); !errors.Is(err, services.ErrInvalidDocument) {
			t.Errorf("Expected ErrInvalidDocument for %q, got %v", bad.Data, err)
		}
	}

	user, err := services.GetUserDocument(db, "user-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if user.Version != "0" {
		t.Errorf("Expected version 0 after rejected writes, got %s", user.Version)
	}
}

func TestDeleteCollectionDocument(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	testutil.CreateTestUserDocument(t, db, "user-1", 1)
	testutil.CreateTestFavoriteDocument(t, db, "user-1", models.FavoriteProverb{Identifier: "f1", OriginIdentifier: "p1", Text: "t"})

	version, affected, err := services.DeleteCollectionDocument(db, "user-1", services.FavoriteProverbsCollection, "f1")
	if err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if version != 2 || affected != 1 {
		t.Errorf("Expected version 2 and 1 row, got %d and %d", version, affected)
	}

	// Deleting again is a no-op
	version, affected, err = services.DeleteCollectionDocument(db, "user-1", services.FavoriteProverbsCollection, "f1")
	if err != nil {
		t.Fatalf("Second delete failed: %v", err)
	}
	if version != 2 || affected != 0 {
		t.Errorf("Expected unchanged version 2 and 0 rows, got %d and %d", version, affected)
	}
}

func TestDeleteUserDocument_RemovesCollections(t *testing.T) {
	db := testutil.SetupDocumentDB(t)
	testutil.CreateTestUserDocument(t, db, "user-1", 0)
	testutil.CreateTestFavoriteDocument(t, db, "user-1", models.FavoriteProverb{Identifier: "f1", OriginIdentifier: "p1", Text: "t"})

	affected, err := services.DeleteUserDocument(db, "user-1")
	if err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}
	if affected != 2 {
		t.Errorf("Expected 2 rows deleted, got %d", affected)
	}

	var remaining int64
	db.Model(&models.UserCollectionDocument{}).Count(&remaining)
	if remaining != 0 {
		t.Errorf("Expected no collection documents left, got %d", remaining)
	}

	if _, err := services.DeleteUserDocument(db, "user-1"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing user, got %v", err)
	}
}
