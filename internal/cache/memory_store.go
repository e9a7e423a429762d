package cache

import (
	"context"
	"sync"
	"time"

	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/internal/utils"
)

// MemoryStore is a process-local session store. Expired sessions are
// removed on read and by Sweep.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.ConfirmationSession
	now      func() time.Time
}

// NewMemoryStore creates an empty store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.ConfirmationSession),
		now:      time.Now,
	}
}

// WithClock replaces the store's clock.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Put(_ context.Context, id string, options []models.ConfirmationOption, params models.ExtractedParams, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = newSession(id, options, params, s.now(), ttl)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.ConfirmationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	cp := *sess
	return &cp, nil
}

func (s *MemoryStore) Pop(_ context.Context, id string) (*models.ConfirmationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	delete(s.sessions, id)
	return sess, nil
}

func (s *MemoryStore) lookupLocked(id string) (*models.ConfirmationSession, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, utils.ErrSessionNotFound
	}
	if sess.Expired(s.now()) {
		delete(s.sessions, id)
		return nil, utils.ErrSessionNotFound
	}
	return sess, nil
}

// Sweep deletes every expired session and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
