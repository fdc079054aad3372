package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// ErrProfileNotFound is returned when a profile doesn't exist
var ErrProfileNotFound = errors.New("profile not found")

// ErrEntryNotFound is returned when no diary entry exists for a date
var ErrEntryNotFound = errors.New("diary entry not found")

// DB wraps the database connection used for profiles, zones and the diary
type DB struct {
	*sql.DB
	driver string
}

// Open opens the local SQLite database in dir, creating it if necessary.
// The database is stored at <dir>/data.db
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return OpenURL(filepath.Join(dir, "data.db"))
}

// OpenURL opens a database by URL. libsql://, https:// and wss:// URLs go
// to a remote libSQL (Turso) server, anything else is a SQLite path or DSN.
func OpenURL(url string) (*DB, error) {
	driver := driverFor(url)

	sqlDB, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db, err := setup(sqlDB, driver)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func driverFor(url string) string {
	for _, prefix := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(url, prefix) {
			return "libsql"
		}
	}
	return "sqlite"
}

// setup enables foreign keys (SQLite only) and runs migrations
func setup(sqlDB *sql.DB, driver string) (*DB, error) {
	if driver == "sqlite" {
		// One writer at a time; also keeps :memory: databases on a single connection
		sqlDB.SetMaxOpenConns(1)
		if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}

	if err := migrate(sqlDB); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &DB{DB: sqlDB, driver: driver}, nil
}

// Driver returns the database/sql driver name in use
func (db *DB) Driver() string {
	return db.driver
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
