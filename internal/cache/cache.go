package cache

import (
	"context"
	"errors"
	"time"

	"tinylink-go/internal/model"
)

// ErrMiss 缓存中没有该短码
var ErrMiss = errors.New("cache miss")

// Entry 解析短码所需的最小字段集合（不含密钥）
type Entry struct {
	LinkID          uint      `json:"link_id"`
	Code            string    `json:"code"`
	TargetURL       string    `json:"target_url"`
	CreatedAt       time.Time `json:"created_at"`
	ExpirationHours int       `json:"expiration_hours"`

	// Missing 为 true 表示短码确认不存在（负缓存）
	Missing bool `json:"missing,omitempty"`
}

func (e *Entry) ExpiresAt() time.Time {
	return model.ExpiresAt(e.CreatedAt, e.ExpirationHours)
}

// IsExpiredAt 与 model.Link 共用同一过期判定
func (e *Entry) IsExpiredAt(now time.Time) bool {
	return model.IsExpiredAt(e.CreatedAt, e.ExpirationHours, now)
}

// LinkCache 短码解析缓存
type LinkCache interface {
	// Get 未命中时返回 ErrMiss
	Get(ctx context.Context, code string) (*Entry, error)
	Set(ctx context.Context, entry *Entry) error
	// SetMissing 记录短码不存在，避免重复穿透到数据库
	SetMissing(ctx context.Context, code string) error
	Delete(ctx context.Context, code string) error
}

// Chain 按顺序组合多级缓存（本地在前，Redis 在后）
type Chain struct {
	layers []LinkCache
}

func NewChain(layers ...LinkCache) *Chain {
	return &Chain{layers: layers}
}

// Get 依次查询各级缓存，命中较后的层时回填前面的层
func (c *Chain) Get(ctx context.Context, code string) (*Entry, error) {
	for i, layer := range c.layers {
		entry, err := layer.Get(ctx, code)
		if errors.Is(err, ErrMiss) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for j := 0; j < i; j++ {
			if entry.Missing {
				_ = c.layers[j].SetMissing(ctx, code)
			} else {
				_ = c.layers[j].Set(ctx, entry)
			}
		}
		return entry, nil
	}
	return nil, ErrMiss
}

func (c *Chain) Set(ctx context.Context, entry *Entry) error {
	var errs []error
	for _, layer := range c.layers {
		errs = append(errs, layer.Set(ctx, entry))
	}
	return errors.Join(errs...)
}

func (c *Chain) SetMissing(ctx context.Context, code string) error {
	var errs []error
	for _, layer := range c.layers {
		errs = append(errs, layer.SetMissing(ctx, code))
	}
	return errors.Join(errs...)
}

func (c *Chain) Delete(ctx context.Context, code string) error {
	var errs []error
	for _, layer := range c.layers {
		errs = append(errs, layer.Delete(ctx, code))
	}
	return errors.Join(errs...)
}

// Len 缓存层数
func (c *Chain) Len() int {
	return len(c.layers)
}
