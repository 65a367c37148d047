package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tinylink-go/constant"
	"tinylink-go/internal/apperrors"
	"tinylink-go/internal/dto"
	"tinylink-go/internal/metrics"
	"tinylink-go/internal/repository"
	"tinylink-go/pkg/base62"
	"tinylink-go/pkg/logging"
	"tinylink-go/pkg/utils"
)

// CreateLink 创建短链：
// 在同一事务内先以占位短码插入记录拿到 id，再写入 base62(id) 作为正式短码
func (s *LinkService) CreateLink(ctx context.Context, req dto.CreateLinkRequest) (*dto.CreatedLink, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	secret, err := utils.RandomString(constant.SecretLength)
	if err != nil {
		logging.Logger.Error("Failed to generate link secret", zap.Error(err))
		return nil, apperrors.SystemErrorDefault().WithCause(err)
	}

	// 占位短码以 "~" 开头，不会与任何 base62 短码或其他占位短码冲突
	placeholder := constant.PlaceholderPrefix + uuid.NewString()

	var code string
	err = s.store.WithTx(ctx, func(w repository.LinkWriter) error {
		id, err := w.InsertLink(placeholder, req.TargetURL, secret, req.ExpirationHoursOrDefault())
		if err != nil {
			return err
		}
		code = base62.Encode(uint64(id))
		return w.SetCode(id, code)
	})
	if err != nil {
		logging.Logger.Error("Failed to create link",
			zap.String("target_url", req.TargetURL),
			zap.Error(err),
		)
		return nil, apperrors.SystemErrorDefault().WithCause(err)
	}

	// 清除该短码可能存在的负缓存
	if err := s.cache.Delete(ctx, code); err != nil {
		logging.Logger.Warn("Failed to invalidate link cache", zap.String("code", code), zap.Error(err))
	}

	metrics.LinksCreated.Inc()
	logging.Logger.Info("Link created",
		zap.String("code", code),
		zap.Int("expiration_hours", req.ExpirationHoursOrDefault()),
	)

	return &dto.CreatedLink{
		Code:   code,
		Secret: secret,
	}, nil
}
