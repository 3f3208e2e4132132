// Package store provides session storage backends for NimaCare.
//
// A session maps an opaque session id to one ConversationState. Three
// backends implement Store: an in-memory LRU with TTL eviction for single
// instances, SQLite for file-backed deployments and PostgreSQL for shared ones.
package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/NimaCare/internal/models"
)

// Default limits for session storage.
const (
	// DefaultSessionTTL is how long an idle session is kept.
	DefaultSessionTTL = 24 * time.Hour
	// DefaultCapacity bounds the in-memory store.
	DefaultCapacity = 10000
)

// Database driver names returned by DetectDSNType.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

var (
	// ErrSessionNotFound is returned when a session id is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned by Create when the id is already taken.
	ErrSessionExists = errors.New("session already exists")
)

// Store persists conversation state by session id.
type Store interface {
	// Get loads a session; unknown ids return ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (*models.ConversationState, error)
	// Create stores a new session; existing ids return ErrSessionExists.
	Create(ctx context.Context, sessionID string, state *models.ConversationState) error
	// Save writes a session, creating it if needed, and refreshes its idle timer.
	Save(ctx context.Context, sessionID string, state *models.ConversationState) error
	// Delete removes a session; unknown ids return ErrSessionNotFound.
	Delete(ctx context.Context, sessionID string) error
	// Touch refreshes a session's idle timer without changing its state.
	Touch(ctx context.Context, sessionID string) error
	// Count returns the number of live sessions.
	Count(ctx context.Context) (int, error)
	// PurgeExpired removes sessions not updated since cutoff and returns how many were removed.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int, error)
	// Close releases backend resources.
	Close() error
}

// Opts holds configuration for store backends.
type Opts struct {
	Driver   string        // DriverSQLite, DriverPostgres or empty for in-memory
	DSN      string        // database connection string or SQLite file path
	TTL      time.Duration // idle session lifetime
	Capacity int           // in-memory session cap
}

// Option configures store backends.
type Option func(*Opts)

// WithSQLiteDSN selects the SQLite backend with the given file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.Driver = DriverSQLite
		o.DSN = dsn
	}
}

// WithPostgresDSN selects the PostgreSQL backend with the given connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.Driver = DriverPostgres
		o.DSN = dsn
	}
}

// WithTTL sets the idle session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(o *Opts) { o.TTL = ttl }
}

// WithCapacity sets the in-memory session cap.
func WithCapacity(n int) Option {
	return func(o *Opts) { o.Capacity = n }
}

func buildOpts(opts []Option) Opts {
	cfg := Opts{TTL: DefaultSessionTTL, Capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	return cfg
}

// DetectDSNType returns DriverPostgres for PostgreSQL URLs or keyword DSNs and
// DriverSQLite for everything else.
func DetectDSNType(dsn string) string {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") ||
		strings.Contains(lower, "host=") || strings.Contains(lower, "dbname=") {
		return DriverPostgres
	}
	return DriverSQLite
}

// New builds the backend selected by opts. Without a driver it returns an in-memory store.
func New(opts ...Option) (Store, error) {
	cfg := buildOpts(opts)
	switch cfg.Driver {
	case DriverPostgres:
		return NewPostgresStore(opts...)
	case DriverSQLite:
		return NewSQLiteStore(opts...)
	default:
		slog.Debug("store.New: no database configured, using in-memory store", "ttl", cfg.TTL, "capacity", cfg.Capacity)
		return NewInMemoryStore(opts...), nil
	}
}
