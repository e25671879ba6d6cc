package redisstore

// Package redisstore persists the session record in Redis, for deployments
// where the local filesystem is ephemeral. Semantics match the file store:
// a single versioned record, last write wins, any load problem is a miss.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/openfintools/personalcapital/internal/domain/auth"
	"github.com/openfintools/personalcapital/internal/pcerr"
)

const defaultKey = "pcdash:session"

// Store is a Redis-based session store.
type Store struct {
	client redis.UniversalClient
	key    string
	logger *slog.Logger
}

// New creates a Redis session store writing under the default key.
func New(client redis.UniversalClient, logger *slog.Logger) *Store {
	return NewWithKey(client, defaultKey, logger)
}

// NewWithKey creates a Redis session store with a custom key, so multiple
// identities can share one Redis instance.
func NewWithKey(client redis.UniversalClient, key string, logger *slog.Logger) *Store {
	if key == "" {
		key = defaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, key: key, logger: logger}
}

// Load reads the cached record. A missing key, unreadable payload, or
// version mismatch all yield pcerr.ErrCacheMiss.
func (s *Store) Load(ctx context.Context) (auth.CachedSession, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.DebugContext(ctx, "session cache read failed", "key", s.key, "error", err)
		}
		return auth.CachedSession{}, pcerr.ErrCacheMiss
	}

	var rec auth.CachedSession
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		s.logger.DebugContext(ctx, "discarding unreadable session cache", "key", s.key, "error", err)
		return auth.CachedSession{}, pcerr.ErrCacheMiss
	}
	if rec.Version != auth.CacheVersion {
		s.logger.DebugContext(ctx, "discarding session cache with stale version",
			"key", s.key, "have", rec.Version, "want", auth.CacheVersion)
		return auth.CachedSession{}, pcerr.ErrCacheMiss
	}
	return rec, nil
}

// Save overwrites the record under the current schema version. The record
// is kept without TTL; expiry detection happens at request time, not here.
func (s *Store) Save(ctx context.Context, sess auth.CachedSession) error {
	sess.Version = auth.CacheVersion

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("write session cache: %w", err)
	}

	s.logger.DebugContext(ctx, "cached session", "key", s.key, "cookies", len(sess.Cookies))
	return nil
}
