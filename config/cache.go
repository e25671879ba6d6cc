package config

import (
	"fmt"
	"strings"
)

// CacheBackend selects where the session record is persisted.
type CacheBackend string

const (
	// CacheBackendFile persists the session under the user cache directory.
	CacheBackendFile CacheBackend = "file"
	// CacheBackendRedis persists the session in Redis, for containerized
	// deployments where the filesystem is ephemeral.
	CacheBackendRedis CacheBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for CacheBackend.
func (b *CacheBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "file", "redis":
		*b = CacheBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid CacheBackend: %q (valid options: file, redis)", string(text))
	}
}

// CacheConfig controls cross-run session persistence. Caching is an
// optimization to avoid repeating multi-factor verification, not a
// durability guarantee.
type CacheConfig struct {
	// Enabled turns session caching on. When off, every run starts from an
	// empty authorization context.
	Enabled bool `env:"ENABLED" envDefault:"true"`

	// Backend selects the store implementation.
	Backend CacheBackend `env:"BACKEND" envDefault:"file"`

	// Path overrides the session file location (file backend only).
	// Empty means a platform-appropriate user cache directory.
	Path string `env:"PATH"`

	// RedisAddr is the Redis host:port (redis backend only).
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	// RedisKey is the key the session record is stored under.
	RedisKey string `env:"REDIS_KEY" envDefault:"pcdash:session"`
}
