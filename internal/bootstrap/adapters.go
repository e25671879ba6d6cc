package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/openfintools/personalcapital/config"
	"github.com/openfintools/personalcapital/internal/adapters/filestore"
	"github.com/openfintools/personalcapital/internal/adapters/otp"
	"github.com/openfintools/personalcapital/internal/adapters/redisstore"
	"github.com/openfintools/personalcapital/internal/ports"
)

// NewSessionStore builds the configured session store backend. It returns
// nil when caching is disabled; callers treat a nil store as "no
// persistence".
//
//nolint:ireturn // The store backend is selected at runtime.
func NewSessionStore(cfg config.CacheConfig, logger *slog.Logger) (ports.SessionStore, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Backend {
	case config.CacheBackendFile:
		path := cfg.Path
		if path == "" {
			p, err := filestore.DefaultPath()
			if err != nil {
				return nil, fmt.Errorf("resolve session cache path: %w", err)
			}
			path = p
		}
		return filestore.New(path, logger), nil

	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return redisstore.NewWithKey(client, cfg.RedisKey, logger), nil
	}

	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// NewCodeProvider builds the one-time code source from auth configuration.
// It returns nil when no TOTP secret is configured; callers fall back to
// an interactive prompt.
//
//nolint:ireturn // The provider is selected at runtime.
func NewCodeProvider(cfg config.AuthConfig) (ports.CodeProvider, error) {
	if cfg.TOTPSecret == "" {
		return nil, nil
	}
	p, err := otp.New(cfg.TOTPSecret)
	if err != nil {
		return nil, fmt.Errorf("build totp provider: %w", err)
	}
	return p, nil
}
