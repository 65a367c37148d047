package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"tinylink-go/constant"
	"tinylink-go/internal/cache"
	"tinylink-go/internal/dto"
	"tinylink-go/internal/metrics"
	"tinylink-go/internal/model"
	"tinylink-go/internal/repository"
	"tinylink-go/pkg/logging"
	"tinylink-go/pkg/utils"
)

// Resolve 解析短码并记录一次点击；不存在与已过期对外不可区分
func (s *LinkService) Resolve(ctx context.Context, code, requesterAddr string) ResolveOutcome {
	out := s.resolve(ctx, code, func(entry *cache.Entry, now time.Time) error {
		return s.store.InsertClick(ctx, entry.LinkID, s.hasher.HashAddress(requesterAddr), now)
	})
	metrics.Resolutions.WithLabelValues("resolve", out.Kind.String()).Inc()
	return out
}

// Peek 返回目标地址但不计入点击，只记录一次查看
func (s *LinkService) Peek(ctx context.Context, code string) ResolveOutcome {
	out := s.resolve(ctx, code, func(entry *cache.Entry, now time.Time) error {
		return s.store.InsertPeek(ctx, entry.LinkID, now)
	})
	metrics.Resolutions.WithLabelValues("peek", out.Kind.String()).Inc()
	return out
}

func (s *LinkService) resolve(ctx context.Context, code string, record func(entry *cache.Entry, now time.Time) error) ResolveOutcome {
	entry, err := s.lookup(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return ResolveOutcome{Kind: OutcomeNotFound}
	}
	if err != nil {
		logging.Logger.Error("Failed to look up link", zap.String("code", code), zap.Error(err))
		return resolveInternal(err)
	}

	now := s.utcNow()
	if entry.IsExpiredAt(now) {
		return ResolveOutcome{Kind: OutcomeNotFound}
	}

	if err := record(entry, now); err != nil {
		logging.Logger.Error("Failed to record link visit", zap.String("code", code), zap.Error(err))
		return resolveInternal(err)
	}

	return ResolveOutcome{Kind: OutcomeFound, TargetURL: entry.TargetURL}
}

// lookup 先查缓存再查库，不存在时写入负缓存
func (s *LinkService) lookup(ctx context.Context, code string) (*cache.Entry, error) {
	if utils.ValidateCode(code) != nil {
		return nil, repository.ErrNotFound
	}

	entry, err := s.cache.Get(ctx, code)
	switch {
	case err == nil && entry.Missing:
		metrics.CacheLookups.WithLabelValues("negative_hit").Inc()
		return nil, repository.ErrNotFound
	case err == nil:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return entry, nil
	case errors.Is(err, cache.ErrMiss):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		// 缓存不可用时直接回源
		metrics.CacheLookups.WithLabelValues("error").Inc()
		logging.Logger.Warn("Link cache lookup failed", zap.String("code", code), zap.Error(err))
	}

	link, err := s.store.FindLinkByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		link, err = s.confirmMissing(ctx, code)
	}
	if err != nil {
		return nil, err
	}

	entry = entryFromLink(link)
	if cerr := s.cache.Set(ctx, entry); cerr != nil {
		logging.Logger.Warn("Failed to cache link", zap.String("code", code), zap.Error(cerr))
	}
	return entry, nil
}

// confirmMissing 写入负缓存后回查一次：
// 若期间有事务提交了该短码，回查会读到记录，随后写入的正缓存覆盖负缓存；
// 若提交发生在回查之后，提交方的失效操作必然晚于负缓存写入
func (s *LinkService) confirmMissing(ctx context.Context, code string) (*model.Link, error) {
	if err := s.cache.SetMissing(ctx, code); err != nil {
		logging.Logger.Warn("Failed to cache missing link", zap.String("code", code), zap.Error(err))
		return nil, repository.ErrNotFound
	}

	link, err := s.store.FindLinkByCode(ctx, code)
	if err == nil || errors.Is(err, repository.ErrNotFound) {
		return link, err
	}

	// 回查失败时无法确认，撤销负缓存
	logging.Logger.Warn("Failed to confirm missing link", zap.String("code", code), zap.Error(err))
	if derr := s.cache.Delete(ctx, code); derr != nil {
		logging.Logger.Warn("Failed to invalidate link cache", zap.String("code", code), zap.Error(derr))
	}
	return nil, repository.ErrNotFound
}

func entryFromLink(link *model.Link) *cache.Entry {
	return &cache.Entry{
		LinkID:          link.ID,
		Code:            link.Code,
		TargetURL:       link.TargetURL,
		CreatedAt:       link.CreatedAt.UTC(),
		ExpirationHours: link.ExpirationHours,
	}
}

// GetInfo 查询短链详情：
// 基础字段任何人可见，创建时间、有效期、过期时间与近期点击记录只对持有正确密钥的调用方返回
func (s *LinkService) GetInfo(ctx context.Context, code string, callerSecret *string, includeHistory bool) InfoOutcome {
	out := s.getInfo(ctx, code, callerSecret, includeHistory)
	metrics.Resolutions.WithLabelValues("info", out.Kind.String()).Inc()
	return out
}

func (s *LinkService) getInfo(ctx context.Context, code string, callerSecret *string, includeHistory bool) InfoOutcome {
	link, err := s.findLink(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return InfoOutcome{Kind: OutcomeNotFound}
	}
	if err != nil {
		logging.Logger.Error("Failed to look up link", zap.String("code", code), zap.Error(err))
		return infoInternal(err)
	}

	stats, err := s.store.AggregateClicks(ctx, link.ID)
	if err != nil {
		logging.Logger.Error("Failed to aggregate clicks", zap.String("code", code), zap.Error(err))
		return infoInternal(err)
	}

	info := &dto.LinkInfo{
		Code:         link.Code,
		TargetURL:    link.TargetURL,
		UniqueClicks: stats.Unique,
		TotalClicks:  stats.Total,
	}

	// 密钥错误与未提供密钥的表现完全一致
	if callerSecret == nil || *callerSecret != link.Secret {
		return InfoOutcome{Kind: OutcomeFound, Info: info}
	}

	createdAt := link.CreatedAt.UTC()
	expirationHours := link.ExpirationHours
	expiresAt := link.ExpiresAt()
	info.CreatedAt = &createdAt
	info.ExpirationHours = &expirationHours
	info.ExpiresAt = &expiresAt

	if includeHistory {
		since := s.utcNow().Add(-constant.RecentHistoryWindow)
		history, err := s.store.RecentClickTimestamps(ctx, link.ID, since)
		if err != nil {
			logging.Logger.Error("Failed to load click history", zap.String("code", code), zap.Error(err))
			return infoInternal(err)
		}
		info.WeekHistory = &history
	}

	return InfoOutcome{Kind: OutcomeFound, Info: info}
}

// Delete 删除短链，必须提供正确的密钥
func (s *LinkService) Delete(ctx context.Context, code string, callerSecret *string) DeleteOutcome {
	out := s.delete(ctx, code, callerSecret)
	metrics.Resolutions.WithLabelValues("delete", out.Kind.String()).Inc()
	return out
}

func (s *LinkService) delete(ctx context.Context, code string, callerSecret *string) DeleteOutcome {
	link, err := s.findLink(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return DeleteOutcome{Kind: OutcomeNotFound}
	}
	if err != nil {
		logging.Logger.Error("Failed to look up link", zap.String("code", code), zap.Error(err))
		return deleteInternal(err)
	}

	if callerSecret == nil {
		return DeleteOutcome{Kind: OutcomeUnauthenticated}
	}
	if *callerSecret != link.Secret {
		return DeleteOutcome{Kind: OutcomeUnauthorized}
	}

	deleted, err := s.store.DeleteLinkByCode(ctx, code)
	if err != nil {
		logging.Logger.Error("Failed to delete link", zap.String("code", code), zap.Error(err))
		return deleteInternal(err)
	}
	if !deleted {
		// 并发删除
		return DeleteOutcome{Kind: OutcomeNotFound}
	}

	if err := s.cache.Delete(ctx, code); err != nil {
		logging.Logger.Warn("Failed to invalidate link cache", zap.String("code", code), zap.Error(err))
	}

	logging.Logger.Info("Link deleted", zap.String("code", code))
	return DeleteOutcome{Kind: OutcomeDeleted}
}

// findLink 绕过缓存直接查库（需要密钥字段）
func (s *LinkService) findLink(ctx context.Context, code string) (*model.Link, error) {
	if utils.ValidateCode(code) != nil {
		return nil, repository.ErrNotFound
	}
	return s.store.FindLinkByCode(ctx, code)
}
