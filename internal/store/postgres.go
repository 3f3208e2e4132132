package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Connection pool limits for PostgreSQL.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists sessions in PostgreSQL, so several instances can share them.
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore connects using WithPostgresDSN and applies the schema.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	cfg := buildOpts(opts)
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: %w", errDSNNotSet)
	}

	db, err := openDatabase("PostgresStore", "postgres", cfg.DSN, postgresMigrations, func(db *sql.DB) {
		db.SetMaxOpenConns(DefaultMaxOpenConns)
		db.SetMaxIdleConns(DefaultMaxIdleConns)
		db.SetConnMaxLifetime(DefaultConnMaxLifetime)
	})
	if err != nil {
		return nil, err
	}
	return &PostgresStore{sqlStore{db: db, name: "PostgresStore", jsonText: true, dollar: true}}, nil
}
