package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/internal/utils"
)

// keyValue is the subset of RedisClient the confirmation cache needs.
type keyValue interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GetDel(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
}

// ConfirmationCache stores confirmation sessions in Redis.
// Key: confirmation:{id}, value: JSON session, TTL: the session TTL.
type ConfirmationCache struct {
	redis keyValue
	now   func() time.Time
}

// NewConfirmationCache creates a new ConfirmationCache.
func NewConfirmationCache(redis *RedisClient) *ConfirmationCache {
	return newConfirmationCache(redis)
}

func newConfirmationCache(kv keyValue) *ConfirmationCache {
	return &ConfirmationCache{redis: kv, now: time.Now}
}

func (c *ConfirmationCache) key(id string) string {
	return fmt.Sprintf("confirmation:%s", id)
}

// Put stores the session with the Redis key expiring at the same time.
func (c *ConfirmationCache) Put(ctx context.Context, id string, options []models.ConfirmationOption, params models.ExtractedParams, ttl time.Duration) error {
	sess := newSession(id, options, params, c.now(), ttl)
	jsonData, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation session: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(id), string(jsonData), sess.ExpiresAt.Sub(sess.CreatedAt)); err != nil {
		return fmt.Errorf("failed to set confirmation session: %w", err)
	}
	return nil
}

// Get reads the session without consuming it.
func (c *ConfirmationCache) Get(ctx context.Context, id string) (*models.ConfirmationSession, error) {
	jsonData, err := c.redis.Get(ctx, c.key(id))
	if err != nil {
		return nil, c.mapErr(err)
	}
	sess, err := c.decode(jsonData)
	if err != nil {
		return nil, err
	}
	if sess.Expired(c.now()) {
		_ = c.redis.Delete(ctx, c.key(id))
		return nil, utils.ErrSessionNotFound
	}
	return sess, nil
}

// Pop reads and deletes the session with GETDEL, so only one caller wins.
func (c *ConfirmationCache) Pop(ctx context.Context, id string) (*models.ConfirmationSession, error) {
	jsonData, err := c.redis.GetDel(ctx, c.key(id))
	if err != nil {
		return nil, c.mapErr(err)
	}
	sess, err := c.decode(jsonData)
	if err != nil {
		return nil, err
	}
	if sess.Expired(c.now()) {
		return nil, utils.ErrSessionNotFound
	}
	return sess, nil
}

func (c *ConfirmationCache) mapErr(err error) error {
	if errors.Is(err, redis.Nil) {
		return utils.ErrSessionNotFound
	}
	return err
}

func (c *ConfirmationCache) decode(jsonData string) (*models.ConfirmationSession, error) {
	var sess models.ConfirmationSession
	if err := json.Unmarshal([]byte(jsonData), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal confirmation session: %w", err)
	}
	return &sess, nil
}
