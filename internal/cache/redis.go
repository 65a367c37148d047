package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"

	"tinylink-go/constant"
)

// RedisCache 多实例共享的缓存（redigo）
type RedisCache struct {
	pool        *redis.Pool
	ttl         time.Duration
	negativeTTL time.Duration
}

func NewRedisCache(pool *redis.Pool, ttl, negativeTTL time.Duration) *RedisCache {
	return &RedisCache{
		pool:        pool,
		ttl:         ttl,
		negativeTTL: negativeTTL,
	}
}

func (c *RedisCache) Get(ctx context.Context, code string) (*Entry, error) {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis get conn: %w", err)
	}
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", constant.GetLinkCodeKey(code)))
	if errors.Is(err, redis.ErrNil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", code, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode cache entry %s: %w", code, err)
	}
	return &entry, nil
}

func (c *RedisCache) Set(ctx context.Context, entry *Entry) error {
	return c.set(ctx, entry, c.ttl)
}

func (c *RedisCache) SetMissing(ctx context.Context, code string) error {
	return c.set(ctx, &Entry{Code: code, Missing: true}, c.negativeTTL)
}

func (c *RedisCache) set(ctx context.Context, entry *Entry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis get conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("SET", constant.GetLinkCodeKey(entry.Code), data, "PX", ttl.Milliseconds()); err != nil {
		return fmt.Errorf("redis SET %s: %w", entry.Code, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, code string) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis get conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("DEL", constant.GetLinkCodeKey(code)); err != nil {
		return fmt.Errorf("redis DEL %s: %w", code, err)
	}
	return nil
}
