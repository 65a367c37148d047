package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tinylink-go/internal/model"
)

var ErrNotFound = errors.New("link not found")

// LinkWriter 事务内可用的写操作
type LinkWriter interface {
	// InsertLink 插入一条使用占位短码的记录，返回数据库分配的 id
	InsertLink(placeholderCode, targetURL, secret string, expirationHours int) (uint, error)
	// SetCode 将占位短码替换为正式短码
	SetCode(id uint, code string) error
}

// ClickStats 点击统计
type ClickStats struct {
	Unique int64
	Total  int64
}

// LinkStore 基于 gorm 的短链持久化
type LinkStore struct {
	db *gorm.DB
}

func NewLinkStore(db *gorm.DB) *LinkStore {
	return &LinkStore{db: db}
}

// WithTx 在单个事务中执行 fn，fn 返回错误或 panic 时回滚
func (s *LinkStore) WithTx(ctx context.Context, fn func(w LinkWriter) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txWriter{tx: tx})
	})
}

type txWriter struct {
	tx *gorm.DB
}

func (w *txWriter) InsertLink(placeholderCode, targetURL, secret string, expirationHours int) (uint, error) {
	link := model.Link{
		Code:            placeholderCode,
		TargetURL:       targetURL,
		Secret:          secret,
		ExpirationHours: expirationHours,
	}
	if err := w.tx.Create(&link).Error; err != nil {
		return 0, fmt.Errorf("insert link: %w", err)
	}
	return link.ID, nil
}

func (w *txWriter) SetCode(id uint, code string) error {
	result := w.tx.Model(&model.Link{}).Where("id = ?", id).Update("code", code)
	if result.Error != nil {
		return fmt.Errorf("set link code: %w", result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("set link code: %d rows affected for id %d", result.RowsAffected, id)
	}
	return nil
}

// FindLinkByCode 按短码查询，不存在时返回 ErrNotFound
func (s *LinkStore) FindLinkByCode(ctx context.Context, code string) (*model.Link, error) {
	var link model.Link
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find link %q: %w", code, err)
	}
	return &link, nil
}

// DeleteLinkByCode 删除短链及其点击、查看记录，返回是否删除了记录
func (s *LinkStore) DeleteLinkByCode(ctx context.Context, code string) (bool, error) {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link model.Link
		if err := tx.Select("id").Where("code = ?", code).First(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Where("link_id = ?", link.ID).Delete(&model.Click{}).Error; err != nil {
			return err
		}
		if err := tx.Where("link_id = ?", link.ID).Delete(&model.Peek{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&model.Link{}, link.ID)
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete link %q: %w", code, err)
	}
	return deleted, nil
}

// InsertClick 记录一次点击，hashedAddress 为 nil 表示来源未知
func (s *LinkStore) InsertClick(ctx context.Context, linkID uint, hashedAddress *string, at time.Time) error {
	click := model.Click{
		LinkID:        linkID,
		HashedAddress: hashedAddress,
		CreatedAt:     at.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&click).Error; err != nil {
		return fmt.Errorf("insert click: %w", err)
	}
	return nil
}

// InsertPeek 记录一次只读查看
func (s *LinkStore) InsertPeek(ctx context.Context, linkID uint, at time.Time) error {
	peek := model.Peek{
		LinkID:    linkID,
		CreatedAt: at.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&peek).Error; err != nil {
		return fmt.Errorf("insert peek: %w", err)
	}
	return nil
}

// AggregateClicks 统计点击：
// 独立访客 = 不同的非空地址哈希数 + (存在匿名点击 ? 1 : 0)，总数 = 全部点击行数
func (s *LinkStore) AggregateClicks(ctx context.Context, linkID uint) (ClickStats, error) {
	var row struct {
		Total             int64
		DistinctAddresses int64
		Anonymous         int64
	}
	err := s.db.WithContext(ctx).
		Model(&model.Click{}).
		Select("COUNT(*) AS total, "+
			"COUNT(DISTINCT hashed_address) AS distinct_addresses, "+
			"COALESCE(SUM(CASE WHEN hashed_address IS NULL THEN 1 ELSE 0 END), 0) AS anonymous").
		Where("link_id = ?", linkID).
		Scan(&row).Error
	if err != nil {
		return ClickStats{}, fmt.Errorf("aggregate clicks: %w", err)
	}

	stats := ClickStats{Unique: row.DistinctAddresses, Total: row.Total}
	if row.Anonymous > 0 {
		stats.Unique++
	}
	return stats, nil
}

// RecentClickTimestamps 返回 since 之后的点击时间，按时间倒序
func (s *LinkStore) RecentClickTimestamps(ctx context.Context, linkID uint, since time.Time) ([]time.Time, error) {
	var clicks []model.Click
	err := s.db.WithContext(ctx).
		Select("created_at").
		Where("link_id = ? AND created_at > ?", linkID, since.UTC()).
		Order("created_at DESC").
		Find(&clicks).Error
	if err != nil {
		return nil, fmt.Errorf("recent clicks: %w", err)
	}

	timestamps := make([]time.Time, 0, len(clicks))
	for _, c := range clicks {
		timestamps = append(timestamps, c.CreatedAt.UTC())
	}
	return timestamps, nil
}
