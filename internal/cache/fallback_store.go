package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/costchecker/internal/metrics"
	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/internal/utils"
)

// FallbackStore writes to a persistent primary and keeps sessions in memory
// when the primary is unavailable. Reads try the primary, then memory.
type FallbackStore struct {
	primary Store
	memory  *MemoryStore
}

// NewFallbackStore composes primary with an in-memory fallback.
func NewFallbackStore(primary Store, memory *MemoryStore) *FallbackStore {
	return &FallbackStore{primary: primary, memory: memory}
}

// Memory returns the in-memory fallback, for sweeping.
func (s *FallbackStore) Memory() *MemoryStore {
	return s.memory
}

func (s *FallbackStore) Put(ctx context.Context, id string, options []models.ConfirmationOption, params models.ExtractedParams, ttl time.Duration) error {
	if err := s.primary.Put(ctx, id, options, params, ttl); err != nil {
		log.Warn().Err(err).Str("confirmation_id", id).Msg("Session store write failed, keeping session in memory")
		metrics.RecordSessionStoreFallback()
		return s.memory.Put(ctx, id, options, params, ttl)
	}
	return nil
}

func (s *FallbackStore) Get(ctx context.Context, id string) (*models.ConfirmationSession, error) {
	sess, err := s.primary.Get(ctx, id)
	if err == nil {
		return sess, nil
	}
	s.logReadError(err, id)
	return s.memory.Get(ctx, id)
}

func (s *FallbackStore) Pop(ctx context.Context, id string) (*models.ConfirmationSession, error) {
	sess, err := s.primary.Pop(ctx, id)
	if err == nil {
		return sess, nil
	}
	s.logReadError(err, id)
	return s.memory.Pop(ctx, id)
}

func (s *FallbackStore) logReadError(err error, id string) {
	if !errors.Is(err, utils.ErrSessionNotFound) {
		log.Warn().Err(err).Str("confirmation_id", id).Msg("Session store read failed, trying memory")
	}
}
