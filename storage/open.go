package storage

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/linanwx/floatchat/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the backend named by cfg.Backend. The returned closer releases
// any connection the backend holds.
func Open(cfg config.StorageConfig) (Port, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "file":
		dir, err := config.ResolvePath(cfg.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: resolve dir: %w", err)
		}
		return NewFile(dir), nopCloser{}, nil

	case "memory":
		return NewMemory(), nopCloser{}, nil

	case "sqlite":
		path, err := config.ResolvePath(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: resolve sqlite path: %w", err)
		}
		s, err := NewSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	case "redis":
		if strings.TrimSpace(cfg.Redis) == "" {
			return nil, nil, fmt.Errorf("storage: redis backend requires storage.redis URL")
		}
		opts, err := redis.ParseURL(cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: parse redis URL: %w", err)
		}
		r := NewRedis(redis.NewClient(opts), cfg.Prefix, time.Duration(cfg.TTL)*time.Second)
		return r, r, nil

	default:
		return nil, nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
