package models

import (
	"time"

	"github.com/google/uuid"
)

// Content is the read-only view shared by proverbs and favorites.
type Content interface {
	GetIdentifier() string
	GetText() string
	GetMeaning() string
	GetSection() string
	GetCreatedAt() time.Time
}

// Proverb is a bundled proverb. Only Viewed changes after seeding.
type Proverb struct {
	Identifier string    `gorm:"primaryKey;size:64" json:"identifier"`
	CreatedAt  time.Time `json:"createdAt"`
	Text       string    `gorm:"not null" json:"text"`
	Meaning    string    `json:"meaning"`
	Section    string    `gorm:"size:64;index" json:"section"`
	Viewed     bool      `gorm:"not null;index" json:"-"`
}

// FavoriteProverb is a user's saved copy of a Proverb.
// OriginIdentifier points back at Proverb.Identifier.
type FavoriteProverb struct {
	Identifier       string    `gorm:"primaryKey;size:36" json:"identifier"`
	OriginIdentifier string    `gorm:"size:64;not null;uniqueIndex" json:"originIdentifier"`
	CreatedAt        time.Time `json:"createdAt"`
	Text             string    `gorm:"not null" json:"text"`
	Meaning          string    `json:"meaning"`
	Section          string    `gorm:"size:64" json:"section"`
}

// Setting is a persisted key/value pair for local application state
type Setting struct {
	Key       string `gorm:"primaryKey;size:128"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// NewFavoriteProverb copies p into a new favorite with a fresh identifier
func NewFavoriteProverb(p Proverb) FavoriteProverb {
	return FavoriteProverb{
		Identifier:       uuid.NewString(),
		OriginIdentifier: p.Identifier,
		CreatedAt:        time.Now().UTC(),
		Text:             p.Text,
		Meaning:          p.Meaning,
		Section:          p.Section,
	}
}

// TableName overrides the table name for Proverb
func (Proverb) TableName() string {
	return "proverbs"
}

// TableName overrides the table name for FavoriteProverb
func (FavoriteProverb) TableName() string {
	return "favorite_proverbs"
}

// TableName overrides the table name for Setting
func (Setting) TableName() string {
	return "settings"
}

func (p Proverb) GetIdentifier() string   { return p.Identifier }
func (p Proverb) GetText() string         { return p.Text }
func (p Proverb) GetMeaning() string      { return p.Meaning }
func (p Proverb) GetSection() string      { return p.Section }
func (p Proverb) GetCreatedAt() time.Time { return p.CreatedAt }

func (f FavoriteProverb) GetIdentifier() string   { return f.Identifier }
func (f FavoriteProverb) GetText() string         { return f.Text }
func (f FavoriteProverb) GetMeaning() string      { return f.Meaning }
func (f FavoriteProverb) GetSection() string      { return f.Section }
func (f FavoriteProverb) GetCreatedAt() time.Time { return f.CreatedAt }
