package models

import (
	"database/sql"
	"database/sql/driver"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Text is a nullable, unbounded character column
type Text struct {
	sql.NullString
}

// NewText returns a valid Text holding s
func NewText(s string) Text {
	return Text{sql.NullString{String: s, Valid: true}}
}

// Value promotes the embedded NullString's Value method
func (t Text) Value() (driver.Value, error) {
	return t.NullString.Value()
}

// Scan promotes the embedded NullString's Scan method
func (t *Text) Scan(value interface{}) error {
	return t.NullString.Scan(value)
}

// GormDBDataType picks the unbounded text type for each database driver.
// SQL Server has deprecated TEXT, and MySQL's TEXT caps at 64KB.
func (Text) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "LONGTEXT"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	}
	return "TEXT"
}
