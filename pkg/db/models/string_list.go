package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList holds a list of short text values such as artwork mediums or
// story tags. Postgres stores it as a native text[] column through lib/pq;
// other dialects fall back to a text column carrying the same array
// literal, so the models migrate cleanly under the sqlite test databases.
type StringList pq.StringArray

func (l *StringList) Scan(src any) error {
	return (*pq.StringArray)(l).Scan(src)
}

func (l StringList) Value() (driver.Value, error) {
	return pq.StringArray(l).Value()
}

func (StringList) GormDataType() string {
	return "text"
}

func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
