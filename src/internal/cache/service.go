package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"heartmon-svc/src/internal/config"
	"heartmon-svc/src/internal/models"
	"heartmon-svc/src/internal/session"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const sessionKeyPattern = "class-session:%s"

// Service is a read-through cache for class sessions in front of MongoDB.
// Entries are invalidated whenever a teacher action mutates the session.
type Service interface {
	GetSession(ctx context.Context, sessionID string) (*session.Session, error)
	CacheSession(ctx context.Context, sess *session.Session) error
	InvalidateSession(ctx context.Context, sessionID string) error
}

type cacheService struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func NewCacheService(client *redis.Client, cfg *config.Configuration) Service {
	return &cacheService{
		client: client,
		cfg:    &cfg.Cache,
	}
}

func (c *cacheService) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	key := fmt.Sprintf(sessionKeyPattern, sessionID)

	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logrus.WithField("key", key).Debug("Session not found in cache")
			return nil, nil // Not an error, just not found
		}
		logrus.WithError(err).WithField("key", key).Error("Failed to get session from cache")
		return nil, models.ErrRedisGet
	}

	var sess session.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to unmarshal session from cache")
		return nil, models.ErrRedisGet
	}

	logrus.WithField("key", key).Debug("Session retrieved from cache")
	return &sess, nil
}

func (c *cacheService) CacheSession(ctx context.Context, sess *session.Session) error {
	key := fmt.Sprintf(sessionKeyPattern, sess.ID)

	data, err := json.Marshal(sess)
	if err != nil {
		logrus.WithError(err).WithField("session_id", sess.ID).Error("Failed to marshal session for cache")
		return models.ErrRedisSet
	}

	expiration := time.Duration(c.cfg.SessionExpirationMinutes) * time.Minute
	if err := c.client.Set(ctx, key, data, expiration).Err(); err != nil {
		logrus.WithError(err).WithField("session_id", sess.ID).Error("Failed to cache session")
		return models.ErrRedisSet
	}

	logrus.WithField("session_id", sess.ID).Debug("Session cached")
	return nil
}

func (c *cacheService) InvalidateSession(ctx context.Context, sessionID string) error {
	key := fmt.Sprintf(sessionKeyPattern, sessionID)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to invalidate cached session")
		return models.ErrRedisDelete
	}
	return nil
}
