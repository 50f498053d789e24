package models

import (
	"time"
)

// UserDocument is the per-user root document of the document service
type UserDocument struct {
	UserID          string `gorm:"primaryKey;size:64"`
	DocumentVersion uint64 `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UserCollectionDocument is a single document in one of a user's collections
type UserCollectionDocument struct {
	UserID           string `gorm:"primaryKey;size:64;index:idx_user_collection_origin,priority:1"`
	CollectionName   string `gorm:"primaryKey;size:128;index:idx_user_collection_origin,priority:2"`
	DocumentID       string `gorm:"primaryKey;size:64"`
	OriginIdentifier string `gorm:"size:64;index:idx_user_collection_origin,priority:3"`
	Data             DocumentData
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName overrides the table name for UserDocument
func (UserDocument) TableName() string {
	return "user_documents"
}

// TableName overrides the table name for UserCollectionDocument
func (UserCollectionDocument) TableName() string {
	return "user_collection_documents"
}
