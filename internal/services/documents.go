// documents.go
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

package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/localnerve/proverbs-sync/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// FavoriteProverbsCollection is the collection that holds a user's favorites
const FavoriteProverbsCollection = "favoriteProverbs"

var (
	// ErrNotFound is returned when a user document does not exist
	ErrNotFound = errors.New("not found")
	// ErrUserNotFound is returned by collection operations when the owning user document does not exist
	ErrUserNotFound = errors.New("user document not found")
	// ErrVersion is returned when a concurrent write changed the user document first
	ErrVersion = errors.New("E_VERSION")
	// ErrInvalidDocument is returned for documents without an id or a JSON object body
	ErrInvalidDocument = errors.New("invalid document")
)

// UserDocumentResult represents the API output for a user document
type UserDocumentResult struct {
	UserID    string    `json:"userId"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CollectionDocument is a collection document as it crosses the API
type CollectionDocument struct {
	ID               string          `json:"id"`
	OriginIdentifier string          `json:"originIdentifier,omitempty"`
	Data             json.RawMessage `json:"data"`
	UpdatedAt        time.Time       `json:"updatedAt,omitempty"`
}

// CollectionResult represents the API output for a collection
type CollectionResult struct {
	Version   string               `json:"version"`
	Documents []CollectionDocument `json:"documents"`
}

func silent(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)})
}

// GetUserDocument retrieves the root document for a user
func GetUserDocument(db *gorm.DB, userID string) (*UserDocumentResult, error) {
	var doc models.UserDocument
	err := silent(db).Where("user_id = ?", userID).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toUserDocumentResult(doc), nil
}

// CreateUserDocument creates the root document for a user if it does not exist yet.
// The boolean result reports whether a document was created.
func CreateUserDocument(db *gorm.DB, userID string) (*UserDocumentResult, bool, error) {
	if userID == "" {
		return nil, false, ErrInvalidDocument
	}

	doc := models.UserDocument{UserID: userID}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&doc)
	if result.Error != nil {
		return nil, false, result.Error
	}
	created := result.RowsAffected > 0

	// Re-read for the stored timestamps and version
	out, err := GetUserDocument(db, userID)
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

// DeleteUserDocument deletes a user document and every collection document it owns
func DeleteUserDocument(db *gorm.DB, userID string) (int64, error) {
	var affectedRows int64

	err := db.Transaction(func(tx *gorm.DB) error {
		docs := tx.Where("user_id = ?", userID).Delete(&models.UserCollectionDocument{})
		if docs.Error != nil {
			return docs.Error
		}

		user := tx.Where("user_id = ?", userID).Delete(&models.UserDocument{})
		if user.Error != nil {
			return user.Error
		}
		if user.RowsAffected == 0 {
			return ErrNotFound
		}

		affectedRows = docs.RowsAffected + user.RowsAffected
		return nil
	})

	return affectedRows, err
}

// GetCollectionDocuments retrieves the documents of a user collection,
// optionally filtered by origin identifier
func GetCollectionDocuments(db *gorm.DB, userID, collectionName, originIdentifier string) (*CollectionResult, error) {
	var user models.UserDocument
	if err := silent(db).Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	query := silent(db).Where("user_id = ? AND collection_name = ?", userID, collectionName)
	if originIdentifier != "" {
		if db.Dialector.Name() == "mysql" {
			query = query.Clauses(hints.UseIndex("idx_user_collection_origin"))
		}
		query = query.Where("origin_identifier = ?", originIdentifier)
	}

	var rows []models.UserCollectionDocument
	if err := query.Order("created_at, document_id").Find(&rows).Error; err != nil {
		return nil, err
	}

	result := &CollectionResult{
		Version:   fmt.Sprintf("%d", user.DocumentVersion),
		Documents: make([]CollectionDocument, 0, len(rows)),
	}
	for _, row := range rows {
		result.Documents = append(result.Documents, CollectionDocument{
			ID:               row.DocumentID,
			OriginIdentifier: row.OriginIdentifier,
			Data:             row.Data.Raw(),
			UpdatedAt:        row.UpdatedAt,
		})
	}
	return result, nil
}

// SetCollectionDocuments upserts documents into a user collection in one transaction
func SetCollectionDocuments(db *gorm.DB, userID, collectionName string, documents []CollectionDocument) (uint64, int64, error) {
	var newVersion uint64
	var affectedRows int64

	rows := make([]models.UserCollectionDocument, 0, len(documents))
	for _, doc := range documents {
		data, err := models.ParseDocumentData(doc.Data)
		if doc.ID == "" || err != nil {
			return 0, 0, ErrInvalidDocument
		}
		rows = append(rows, models.UserCollectionDocument{
			UserID:           userID,
			CollectionName:   collectionName,
			DocumentID:       doc.ID,
			OriginIdentifier: doc.OriginIdentifier,
			Data:             data,
		})
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		user, err := lockUserDocument(tx, userID)
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			newVersion = user.DocumentVersion
			return nil
		}

		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "collection_name"}, {Name: "document_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"origin_identifier", "data", "updated_at",
			}),
		}).Create(&rows)
		if result.Error != nil {
			return result.Error
		}
		affectedRows = result.RowsAffected

		newVersion, err = bumpVersion(tx, user)
		return err
	})

	return newVersion, affectedRows, err
}

// DeleteCollectionDocument deletes one document from a user collection.
// Deleting a missing document succeeds without changing the version.
func DeleteCollectionDocument(db *gorm.DB, userID, collectionName, documentID string) (uint64, int64, error) {
	var newVersion uint64
	var affectedRows int64

	err := db.Transaction(func(tx *gorm.DB) error {
		user, err := lockUserDocument(tx, userID)
		if err != nil {
			return err
		}

		result := tx.Where("user_id = ? AND collection_name = ? AND document_id = ?", userID, collectionName, documentID).
			Delete(&models.UserCollectionDocument{})
		if result.Error != nil {
			return result.Error
		}
		affectedRows = result.RowsAffected

		if affectedRows == 0 {
			newVersion = user.DocumentVersion
			return nil
		}
		newVersion, err = bumpVersion(tx, user)
		return err
	})

	return newVersion, affectedRows, err
}

// lockUserDocument loads the user document for update
func lockUserDocument(tx *gorm.DB, userID string) (models.UserDocument, error) {
	var user models.UserDocument
	err := silent(tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, ErrUserNotFound
	}
	return user, err
}

// bumpVersion increments the user document version if nobody else did first
func bumpVersion(tx *gorm.DB, user models.UserDocument) (uint64, error) {
	newVersion := user.DocumentVersion + 1
	result := tx.Model(&models.UserDocument{}).
		Where("user_id = ? AND document_version = ?", user.UserID, user.DocumentVersion).
		Updates(map[string]interface{}{"document_version": newVersion, "updated_at": time.Now()})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, fmt.Errorf("%w - Failed to update document due to concurrent modification", ErrVersion)
	}
	return newVersion, nil
}

func toUserDocumentResult(doc models.UserDocument) *UserDocumentResult {
	return &UserDocumentResult{
		UserID:    doc.UserID,
		Version:   fmt.Sprintf("%d", doc.DocumentVersion),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
