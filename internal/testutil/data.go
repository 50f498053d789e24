// data.go
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

package testutil

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/localnerve/proverbs-sync/internal/database"
	"github.com/localnerve/proverbs-sync/internal/logging"
	"github.com/localnerve/proverbs-sync/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupDocumentDB creates an in-memory SQLite document database
func SetupDocumentDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	// Every pooled connection to ":memory:" is a separate database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying SQL DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// SetupLocalDB opens a file backed local database in a temp dir
func SetupLocalDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenLocal(filepath.Join(t.TempDir(), "proverbs.db"), logging.Discard())
	if err != nil {
		t.Fatalf("Failed to open local database: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	return db
}

// CreateTestUserDocument creates a user document directly via GORM
func CreateTestUserDocument(t *testing.T, db *gorm.DB, userID string, version uint64) {
	t.Helper()
	doc := models.UserDocument{UserID: userID, DocumentVersion: version}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("Failed to create user document: %v", err)
	}
}

// CreateTestFavoriteDocument stores a favorite in the user's favorites collection
func CreateTestFavoriteDocument(t *testing.T, db *gorm.DB, userID string, fav models.FavoriteProverb) {
	t.Helper()
	raw, err := json.Marshal(fav)
	if err != nil {
		t.Fatalf("Failed to marshal favorite: %v", err)
	}
	data, err := models.ParseDocumentData(raw)
	if err != nil {
		t.Fatalf("Failed to parse favorite document: %v", err)
	}
	doc := models.UserCollectionDocument{
		UserID:           userID,
		CollectionName:   "favoriteProverbs",
		DocumentID:       fav.Identifier,
		OriginIdentifier: fav.OriginIdentifier,
		Data:             data,
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("Failed to create favorite document: %v", err)
	}
}

// TestProverb builds a proverb with a predictable identifier and text
func TestProverb(n int) models.Proverb {
	return models.Proverb{
		Identifier: fmt.Sprintf("p%03d", n),
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, n, 0, time.UTC),
		Text:       fmt.Sprintf("%d) Proverb number %d", n, n),
		Meaning:    fmt.Sprintf("Meaning %d", n),
		Section:    string(rune('A' + n%3)),
	}
}

// TestProverbs builds n proverbs numbered from 1
func TestProverbs(n int) []models.Proverb {
	out := make([]models.Proverb, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, TestProverb(i))
	}
	return out
}
