package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"

	"tinylink-go/pkg/logging"
)

// LocalCache 进程内缓存（ristretto），每个条目 cost 为 1
type LocalCache struct {
	client      *ristretto.Cache
	ttl         time.Duration
	negativeTTL time.Duration
}

// NewLocalCache maxEntries 为最多缓存的条目数
func NewLocalCache(maxEntries int64, ttl, negativeTTL time.Duration) (*LocalCache, error) {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10, // 官方建议为条目数的 10 倍
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	logging.Logger.Info("Local cache initialized",
		zap.Int64("max_entries", maxEntries),
		zap.Duration("ttl", ttl),
	)

	return &LocalCache{
		client:      client,
		ttl:         ttl,
		negativeTTL: negativeTTL,
	}, nil
}

func (c *LocalCache) Get(_ context.Context, code string) (*Entry, error) {
	value, ok := c.client.Get(code)
	if !ok {
		return nil, ErrMiss
	}
	entry, ok := value.(Entry)
	if !ok {
		return nil, ErrMiss
	}
	return &entry, nil
}

func (c *LocalCache) Set(_ context.Context, entry *Entry) error {
	c.client.SetWithTTL(entry.Code, *entry, 1, c.ttl)
	c.client.Wait()
	return nil
}

func (c *LocalCache) SetMissing(_ context.Context, code string) error {
	c.client.SetWithTTL(code, Entry{Code: code, Missing: true}, 1, c.negativeTTL)
	c.client.Wait()
	return nil
}

func (c *LocalCache) Delete(_ context.Context, code string) error {
	c.client.Del(code)
	return nil
}

// Close 释放 ristretto 后台协程
func (c *LocalCache) Close() {
	c.client.Close()
}
