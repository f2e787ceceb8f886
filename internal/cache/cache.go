package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store — кеш собранных JSON-представлений страниц, ключ — логический путь.
type Store interface {
	Get(ctx context.Context, path string) ([]byte, bool)
	Set(ctx context.Context, path string, payload []byte) error
	InvalidatePaths(ctx context.Context, paths ...string) error
}

// ViewCache хранит представления в Redis с ограниченным TTL.
// Инвалидация — явная, по списку путей, после коммита сохранения курса.
type ViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewViewCache(client *redis.Client, ttl time.Duration) *ViewCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ViewCache{client: client, ttl: ttl}
}

func (c *ViewCache) Get(ctx context.Context, path string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key(path)).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *ViewCache) Set(ctx context.Context, path string, payload []byte) error {
	return c.client.Set(ctx, key(path), payload, c.ttl).Err()
}

func (c *ViewCache) InvalidatePaths(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, key(p))
	}
	return c.client.Del(ctx, keys...).Err()
}

func key(path string) string {
	return "view:" + path
}

// Noop — заглушка на случай, когда Redis не настроен.
type Noop struct{}

func (Noop) Get(ctx context.Context, path string) ([]byte, bool) { return nil, false }

func (Noop) Set(ctx context.Context, path string, payload []byte) error { return nil }

func (Noop) InvalidatePaths(ctx context.Context, paths ...string) error { return nil }
