package filestore

// Package filestore persists the session record as a versioned JSON file
// under the user cache directory. Any problem reading the record back is a
// cache miss, never a fatal error: the cache is an optimization to avoid
// repeating multi-factor verification, not a durability guarantee.

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/openfintools/personalcapital/internal/domain/auth"
	"github.com/openfintools/personalcapital/internal/pcerr"
)

// Store is a file-based session store.
type Store struct {
	path   string
	logger *slog.Logger
}

// New creates a file-based session store writing to path.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// DefaultPath returns the platform-appropriate session file location.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(dir, "pcdash", "session.json"), nil
}

// Load reads the cached record. Absent, unreadable, and version-mismatched
// records all yield pcerr.ErrCacheMiss.
func (s *Store) Load(ctx context.Context) (auth.CachedSession, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return auth.CachedSession{}, pcerr.ErrCacheMiss
	}

	var rec auth.CachedSession
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.DebugContext(ctx, "discarding unreadable session cache", "path", s.path, "error", err)
		return auth.CachedSession{}, pcerr.ErrCacheMiss
	}
	if rec.Version != auth.CacheVersion {
		s.logger.DebugContext(ctx, "discarding session cache with stale version",
			"path", s.path, "have", rec.Version, "want", auth.CacheVersion)
		return auth.CachedSession{}, pcerr.ErrCacheMiss
	}
	return rec, nil
}

// Save overwrites the record under the current schema version, creating the
// parent directory as needed. The write goes through a temp file and rename
// so a crash mid-write reads as a miss, not as corruption.
func (s *Store) Save(ctx context.Context, sess auth.CachedSession) error {
	sess.Version = auth.CacheVersion

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session cache: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session cache: %w", err)
	}

	s.logger.DebugContext(ctx, "cached session", "path", s.path, "cookies", len(sess.Cookies))
	return nil
}
