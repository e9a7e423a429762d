package cache

import (
	"context"
	"time"

	"github.com/GTDGit/costchecker/internal/models"
)

// DefaultSessionTTL is how long a confirmation session stays valid.
const DefaultSessionTTL = 5 * time.Minute

// Store keeps pending confirmation sessions. Get and Pop return
// utils.ErrSessionNotFound for unknown or expired ids. Pop deletes the
// session, and at most one caller can pop a given id.
type Store interface {
	Put(ctx context.Context, id string, options []models.ConfirmationOption, params models.ExtractedParams, ttl time.Duration) error
	Get(ctx context.Context, id string) (*models.ConfirmationSession, error)
	Pop(ctx context.Context, id string) (*models.ConfirmationSession, error)
}

func newSession(id string, options []models.ConfirmationOption, params models.ExtractedParams, now time.Time, ttl time.Duration) *models.ConfirmationSession {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	opts := make([]models.ConfirmationOption, len(options))
	copy(opts, options)
	return &models.ConfirmationSession{
		ID:        id,
		Options:   opts,
		Params:    params,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}
