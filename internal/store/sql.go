package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/BTreeMap/NimaCare/internal/models"
)

var errDSNNotSet = errors.New("database DSN not set")

// openDatabase opens driver at dsn, applies pool settings, checks the
// connection and runs the schema script.
func openDatabase(name, driver, dsn, migrations string, configure func(*sql.DB)) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		slog.Error(name+": failed to open database", "error", err)
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if configure != nil {
		configure(db)
	}
	if err := db.Ping(); err != nil {
		slog.Error(name+": ping failed", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", driver, err)
	}
	if _, err := db.Exec(migrations); err != nil {
		slog.Error(name+": migrations failed", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug(name+": database ready", "driver", driver)
	return db, nil
}

// sqlStore holds the session queries shared by the SQLite and PostgreSQL
// backends. Queries are written with ? placeholders and rebound per driver.
type sqlStore struct {
	db   *sql.DB
	name string
	// jsonText makes the state parameter a string, which PostgreSQL JSONB requires.
	jsonText bool
	dollar   bool
}

// bind rewrites ? placeholders to $n for PostgreSQL.
func (s *sqlStore) bind(query string) string {
	if !s.dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) stateParam(data []byte) interface{} {
	if s.jsonText {
		return string(data)
	}
	return data
}

func (s *sqlStore) Get(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT state FROM sessions WHERE session_id = ?`), sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		slog.Error(s.name+".Get failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return decodeState(data)
}

func (s *sqlStore) Create(ctx context.Context, sessionID string, state *models.ConversationState) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	ts := now()
	res, err := s.db.ExecContext(ctx, s.bind(`INSERT INTO sessions (session_id, user_id, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT (session_id) DO NOTHING`),
		sessionID, state.UserID, s.stateParam(data), ts, ts)
	if err != nil {
		slog.Error(s.name+".Create failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to create session %s: %w", sessionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionExists
	}
	slog.Debug(s.name+".Create succeeded", "sessionID", sessionID, "userID", state.UserID)
	return nil
}

func (s *sqlStore) Save(ctx context.Context, sessionID string, state *models.ConversationState) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	ts := now()
	_, err = s.db.ExecContext(ctx, s.bind(`INSERT INTO sessions (session_id, user_id, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET user_id = excluded.user_id, state = excluded.state, updated_at = excluded.updated_at`),
		sessionID, state.UserID, s.stateParam(data), ts, ts)
	if err != nil {
		slog.Error(s.name+".Save failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	return nil
}

func (s *sqlStore) Delete(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM sessions WHERE session_id = ?`), sessionID)
	if err != nil {
		slog.Error(s.name+".Delete failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	slog.Debug(s.name+".Delete succeeded", "sessionID", sessionID)
	return nil
}

func (s *sqlStore) Touch(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx, s.bind(`UPDATE sessions SET updated_at = ? WHERE session_id = ?`), now(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to touch session %s: %w", sessionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *sqlStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

func (s *sqlStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM sessions WHERE updated_at < ?`), cutoff.UTC())
	if err != nil {
		slog.Error(s.name+".PurgeExpired failed", "error", err)
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purged row count: %w", err)
	}
	if n > 0 {
		slog.Info(s.name+".PurgeExpired removed sessions", "count", n, "cutoff", cutoff)
	}
	return int(n), nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
