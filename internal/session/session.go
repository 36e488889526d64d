package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"policy-rag/internal/models"
	"policy-rag/internal/vectorindex"
)

// Store maps opaque session identifiers to built indexes. Identifiers carry
// no structure a caller may rely on.
type Store interface {
	Create(index *vectorindex.Index) (string, error)
	Get(id string) (*vectorindex.Index, error)
}

// InMemoryStore keeps sessions in process memory for the process lifetime.
// There is no TTL; maxSessions bounds growth (0 leaves it unbounded).
type InMemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*vectorindex.Index
	maxSessions int
}

func NewInMemoryStore(maxSessions int) *InMemoryStore {
	return &InMemoryStore{
		sessions:    make(map[string]*vectorindex.Index),
		maxSessions: maxSessions,
	}
}

func (s *InMemoryStore) Create(index *vectorindex.Index) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		return "", models.ErrStoreFull
	}
	s.sessions[id] = index
	return id, nil
}

func (s *InMemoryStore) Get(id string) (*vectorindex.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	index, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return index, nil
}

func newSessionID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %v", err)
	}
	return id.String(), nil
}

// Len reports the current number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
