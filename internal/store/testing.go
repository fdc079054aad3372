package store

import (
	"database/sql"
)

// NewTestDB wraps an already opened SQLite connection (typically ":memory:")
// and runs migrations. This is only intended for use in tests.
func NewTestDB(sqlDB *sql.DB) (*DB, error) {
	return setup(sqlDB, "sqlite")
}
