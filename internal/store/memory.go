package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/BTreeMap/NimaCare/internal/models"
)

type memoryRecord struct {
	data      []byte
	createdAt time.Time
	updatedAt time.Time
}

// InMemoryStore keeps sessions in an expirable LRU. Sessions are stored
// serialized so callers never share state through the store.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions *expirable.LRU[string, memoryRecord]
}

// NewInMemoryStore creates an in-memory store honoring WithTTL and WithCapacity.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	cfg := buildOpts(opts)
	onEvict := func(id string, _ memoryRecord) {
		slog.Debug("InMemoryStore: session evicted", "sessionID", id)
	}
	return &InMemoryStore{
		sessions: expirable.NewLRU[string, memoryRecord](cfg.Capacity, onEvict, cfg.TTL),
	}
}

func (s *InMemoryStore) Get(_ context.Context, sessionID string) (*models.ConversationState, error) {
	rec, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return decodeState(rec.data)
}

func (s *InMemoryStore) Create(_ context.Context, sessionID string, state *models.ConversationState) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions.Contains(sessionID) {
		return ErrSessionExists
	}
	ts := now()
	s.sessions.Add(sessionID, memoryRecord{data: data, createdAt: ts, updatedAt: ts})
	return nil
}

func (s *InMemoryStore) Save(_ context.Context, sessionID string, state *models.ConversationState) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := now()
	rec := memoryRecord{data: data, createdAt: ts, updatedAt: ts}
	if prev, ok := s.sessions.Peek(sessionID); ok {
		rec.createdAt = prev.createdAt
	}
	s.sessions.Add(sessionID, rec)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	if !s.sessions.Remove(sessionID) {
		return ErrSessionNotFound
	}
	return nil
}

// Touch re-adds the record, which resets its TTL.
func (s *InMemoryStore) Touch(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions.Peek(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	rec.updatedAt = now()
	s.sessions.Add(sessionID, rec)
	return nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	return s.sessions.Len(), nil
}

func (s *InMemoryStore) PurgeExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, id := range s.sessions.Keys() {
		rec, ok := s.sessions.Peek(id)
		if ok && rec.updatedAt.Before(cutoff) {
			s.sessions.Remove(id)
			removed++
		}
	}
	return removed, nil
}

func (s *InMemoryStore) Close() error {
	s.sessions.Purge()
	return nil
}
