package cache

import (
	"fmt"
	"io"

	"sio-go/internal/config"
	"sio-go/internal/organize"
)

// Store is a Cache whose lifecycle the application manages.
type Store interface {
	organize.Cache
	io.Closer
}

// NewCacheFromConfig creates a Cache implementation based on the config type.
func NewCacheFromConfig(cfg config.CacheConfig) (Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryCache(), nil
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite cache requires path to be set")
		}
		return NewSQLiteCache(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.Type)
	}
}
