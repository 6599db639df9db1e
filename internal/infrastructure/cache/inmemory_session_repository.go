package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/stockwave/harmony/internal/domain/variation"
)

// InMemorySessionRepository implements variation.SessionRepository with a map
// of encoded sessions. Suitable for single-instance deployments and tests;
// state is lost on restart and not shared across instances.
type InMemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]storedSession
}

type storedSession struct {
	raw       []byte
	updatedAt time.Time
}

// NewInMemorySessionRepository creates an empty in-memory session repository
func NewInMemorySessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{
		sessions: make(map[int64]storedSession),
	}
}

// FindByProductID returns a copy of the stored session
func (r *InMemorySessionRepository) FindByProductID(ctx context.Context, productID int64) (*variation.Session, error) {
	r.mu.RLock()
	stored, ok := r.sessions[productID]
	r.mu.RUnlock()
	if !ok {
		return nil, variation.ErrSessionNotFound
	}
	return decodeSession(stored.raw)
}

// Save stores a copy of the session, replacing any previous one
func (r *InMemorySessionRepository) Save(ctx context.Context, session *variation.Session) error {
	raw, err := encodeSession(session)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.sessions[session.ProductID] = storedSession{raw: raw, updatedAt: session.UpdatedAt}
	r.mu.Unlock()
	return nil
}

// DeleteByProductID removes the session. Deleting a missing session is a no-op.
func (r *InMemorySessionRepository) DeleteByProductID(ctx context.Context, productID int64) error {
	r.mu.Lock()
	delete(r.sessions, productID)
	r.mu.Unlock()
	return nil
}

// DeleteIdleBefore removes sessions last saved before cutoff
func (r *InMemorySessionRepository) DeleteIdleBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []int64
	for productID, stored := range r.sessions {
		if stored.updatedAt.Before(cutoff) {
			delete(r.sessions, productID)
			removed = append(removed, productID)
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions
func (r *InMemorySessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func encodeSession(s *variation.Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode session: nil session")
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session of product %d: %w", s.ProductID, err)
	}
	return raw, nil
}

func decodeSession(raw []byte) (*variation.Session, error) {
	var s variation.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Attributes == nil {
		s.Attributes = []variation.Attribute{}
	}
	if s.Variations == nil {
		s.Variations = []variation.Variation{}
	}
	if s.Persisted == nil {
		s.Persisted = []variation.Variation{}
	}
	return &s, nil
}

// Ensure InMemorySessionRepository implements the session store interfaces
var (
	_ variation.SessionRepository = (*InMemorySessionRepository)(nil)
	_ variation.IdleSessionPurger = (*InMemorySessionRepository)(nil)
)
