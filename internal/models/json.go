package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ErrInvalidDocumentData is returned for a document body that is not a JSON object
var ErrInvalidDocumentData = errors.New("document data must be a JSON object")

// documentDataTypes is the column type per dialect. MSSQL has no json type.
var documentDataTypes = map[string]string{
	"mysql":     "JSON",
	"postgres":  "JSONB",
	"sqlite":    "JSON",
	"sqlserver": "NVARCHAR(MAX)",
	"mssql":     "NVARCHAR(MAX)",
}

// DocumentData is the JSON object body of a collection document
type DocumentData struct {
	datatypes.JSON
}

// ParseDocumentData checks raw is a JSON object and wraps it for storage
func ParseDocumentData(raw json.RawMessage) (DocumentData, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return DocumentData{}, ErrInvalidDocumentData
	}
	return DocumentData{JSON: datatypes.JSON(trimmed)}, nil
}

// Raw returns the stored body
func (d DocumentData) Raw() json.RawMessage {
	return json.RawMessage(d.JSON)
}

func (d DocumentData) Value() (driver.Value, error) {
	return d.JSON.Value()
}

func (d *DocumentData) Scan(value interface{}) error {
	return d.JSON.Scan(value)
}

// GormDBDataType picks the column type for the connected dialect
func (DocumentData) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if t, ok := documentDataTypes[db.Dialector.Name()]; ok {
		return t
	}
	return "TEXT"
}
