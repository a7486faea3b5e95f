// Package session provides storage backends and turn serialization for
// per-conversation session contexts.
//
// Contexts are keyed by the opaque session identifier owned by the transport
// layer. A missing identifier is not an error: Get returns (nil, nil) and the
// Manager creates a fresh context on first use.
package session

import (
	"context"
	"sync"

	"github.com/treinafit/luka/internal/models"
)

// Store defines the interface for session context persistence.
type Store interface {
	// Get retrieves the context for a session id, or (nil, nil) if none exists.
	Get(ctx context.Context, sessionID string) (*models.SessionContext, error)

	// Save stores or replaces the context for a session id.
	Save(ctx context.Context, sessionID string, sc *models.SessionContext) error

	// Delete removes the context for a session id.
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps session contexts in a process-local map. State is lost on
// restart, which matches the persistence guarantees of the conversation core.
type MemoryStore struct {
	mu       sync.RWMutex
	contexts map[string]*models.SessionContext
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{contexts: make(map[string]*models.SessionContext)}
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*models.SessionContext, error) {
	if sessionID == "" {
		return nil, models.ErrEmptySessionID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.contexts[sessionID]
	if !ok {
		return nil, nil
	}
	return copyContext(sc), nil
}

func (s *MemoryStore) Save(ctx context.Context, sessionID string, sc *models.SessionContext) error {
	if sessionID == "" {
		return models.ErrEmptySessionID
	}
	copied := copyContext(sc)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[sessionID] = copied
	return nil
}

// copyContext deep-copies a context so callers never share the stored Tmp map
// or History slice.
func copyContext(sc *models.SessionContext) *models.SessionContext {
	copied := *sc
	copied.Tmp = make(map[string]string, len(sc.Tmp))
	for k, v := range sc.Tmp {
		copied.Tmp[k] = v
	}
	copied.History = append([]models.ChatMessage(nil), sc.History...)
	return &copied
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return models.ErrEmptySessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, sessionID)
	return nil
}
