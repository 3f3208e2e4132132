package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions is used when creating the database directory.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists sessions in a single SQLite file.
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore opens the file named by WithSQLiteDSN, creating its
// directory when missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	cfg := buildOpts(opts)
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqlite: %w", errDSNNotSet)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DSN), DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := openDatabase("SQLiteStore", "sqlite3", cfg.DSN, sqliteMigrations, func(db *sql.DB) {
		// one writer at a time
		db.SetMaxOpenConns(1)
	})
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{sqlStore{db: db, name: "SQLiteStore"}}, nil
}
