package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/treinafit/luka/internal/models"
)

// Manager wraps a Store and serializes work per session id. Concurrent turns
// for different sessions proceed independently; concurrent turns for the same
// session (a duplicated or rapid double submission) are queued on a per-key
// mutex so the context and the booking store never see interleaved turns.
type Manager struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a Manager on top of the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex dedicated to a session id, creating it on first use.
func (m *Manager) lockFor(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[sessionID] = l
	}
	return l
}

// WithSession runs fn while holding the session's lock, loading the context
// first (creating a fresh one on the first turn) and saving it afterwards
// when fn succeeds.
func (m *Manager) WithSession(ctx context.Context, sessionID string, fn func(sc *models.SessionContext) error) error {
	if sessionID == "" {
		return models.ErrEmptySessionID
	}
	l := m.lockFor(sessionID)
	l.Lock()
	defer l.Unlock()

	sc, err := m.store.Get(ctx, sessionID)
	if err != nil {
		slog.Error("Manager.WithSession: load failed", "error", err, "sessionID", sessionID)
		return err
	}
	if sc == nil {
		slog.Debug("Manager.WithSession: creating new session context", "sessionID", sessionID)
		sc = models.NewSessionContext()
	}

	if err := fn(sc); err != nil {
		return err
	}

	if err := m.store.Save(ctx, sessionID, sc); err != nil {
		slog.Error("Manager.WithSession: save failed", "error", err, "sessionID", sessionID)
		return err
	}
	return nil
}

// Peek returns the stored context without locking or creating one. Used by
// read-only transport endpoints.
func (m *Manager) Peek(ctx context.Context, sessionID string) (*models.SessionContext, error) {
	return m.store.Get(ctx, sessionID)
}
