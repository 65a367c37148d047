package service

import (
	"context"
	"time"

	"tinylink-go/internal/cache"
	"tinylink-go/internal/model"
	"tinylink-go/internal/repository"
	"tinylink-go/pkg/privacy"
)

// Store 短链服务依赖的持久化操作，由 repository.LinkStore 实现
type Store interface {
	WithTx(ctx context.Context, fn func(w repository.LinkWriter) error) error
	FindLinkByCode(ctx context.Context, code string) (*model.Link, error)
	DeleteLinkByCode(ctx context.Context, code string) (bool, error)
	InsertClick(ctx context.Context, linkID uint, hashedAddress *string, at time.Time) error
	InsertPeek(ctx context.Context, linkID uint, at time.Time) error
	AggregateClicks(ctx context.Context, linkID uint) (repository.ClickStats, error)
	RecentClickTimestamps(ctx context.Context, linkID uint, since time.Time) ([]time.Time, error)
}

// LinkService 短链的创建与解析
type LinkService struct {
	store  Store
	hasher *privacy.Hasher
	cache  cache.LinkCache
	now    func() time.Time
}

type Option func(*LinkService)

// WithClock 替换时间源（测试用）
func WithClock(now func() time.Time) Option {
	return func(s *LinkService) {
		s.now = now
	}
}

// WithCache 设置解析缓存，默认不缓存
func WithCache(c cache.LinkCache) Option {
	return func(s *LinkService) {
		s.cache = c
	}
}

func NewLinkService(store Store, hasher *privacy.Hasher, opts ...Option) *LinkService {
	s := &LinkService{
		store:  store,
		hasher: hasher,
		cache:  cache.NewChain(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LinkService) utcNow() time.Time {
	return s.now().UTC()
}
