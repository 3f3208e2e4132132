package session

import (
	"context"
	"log/slog"
	"time"
)

// DefaultJanitorInterval is how often idle sessions are purged.
const DefaultJanitorInterval = 10 * time.Minute

// PurgeIdle removes sessions idle for longer than ttl.
func (m *Manager) PurgeIdle(ctx context.Context, ttl time.Duration) (int, error) {
	n, err := m.store.PurgeExpired(ctx, m.now().Add(-ttl))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("SessionManager.PurgeIdle: purged idle sessions", "count", n, "ttl", ttl)
	}
	m.refreshActiveSessions(ctx)
	return n, nil
}

// RunJanitor purges idle sessions every interval until ctx is cancelled.
// It always returns nil; purge failures are logged and retried on the next tick.
func (m *Manager) RunJanitor(ctx context.Context, interval, ttl time.Duration) error {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	slog.Debug("SessionManager.RunJanitor: started", "interval", interval, "ttl", ttl)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("SessionManager.RunJanitor: stopped")
			return nil
		case <-ticker.C:
			if _, err := m.PurgeIdle(ctx, ttl); err != nil {
				slog.Warn("SessionManager.RunJanitor: purge failed", "error", err)
			}
		}
	}
}
