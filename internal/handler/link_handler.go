package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tinylink-go/constant"
	"tinylink-go/internal/apperrors"
	"tinylink-go/internal/dto"
	"tinylink-go/internal/i18n"
	"tinylink-go/internal/service"
	"tinylink-go/response"
)

const maxBodyBytes = 64 << 10

// LinkService 处理器依赖的短链操作，由 service.LinkService 实现
type LinkService interface {
	CreateLink(ctx context.Context, req dto.CreateLinkRequest) (*dto.CreatedLink, error)
	Resolve(ctx context.Context, code, requesterAddr string) service.ResolveOutcome
	Peek(ctx context.Context, code string) service.ResolveOutcome
	GetInfo(ctx context.Context, code string, callerSecret *string, includeHistory bool) service.InfoOutcome
	Delete(ctx context.Context, code string, callerSecret *string) service.DeleteOutcome
}

type LinkHandler struct {
	svc LinkService
}

func NewLinkHandler(svc LinkService) *LinkHandler {
	return &LinkHandler{svc: svc}
}

// CreateLink 创建短链（POST /api/links）
func (h *LinkHandler) CreateLink(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	raw, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = c.Error(apperrors.InvalidRequestError("error.body_too_large", "Request body is too large", constant.LocationAll))
			return
		}
		_ = c.Error(apperrors.InvalidRequestError("error.body_not_object", "Request body must be a JSON object", constant.LocationAll))
		return
	}

	req, err := dto.ParseCreateLinkRequest(raw)
	if err != nil {
		zap.L().Debug("Create link payload rejected",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	created, err := h.svc.CreateLink(ctx, req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(created, i18n.T(ctx, "link.created", nil, "Link created")))
}

// Resolve 跳转到目标地址（GET /t/:code）
func (h *LinkHandler) Resolve(c *gin.Context) {
	out := h.svc.Resolve(c.Request.Context(), c.Param("code"), c.ClientIP())
	write(c, renderResolve(out))
}

// Peek 返回目标地址文本，不计入点击（GET /peek/:code）
func (h *LinkHandler) Peek(c *gin.Context) {
	out := h.svc.Peek(c.Request.Context(), c.Param("code"))
	write(c, renderPeek(out))
}

// GetInfo 短链详情（GET /api/links/:code?week_history=true）
func (h *LinkHandler) GetInfo(c *gin.Context) {
	includeHistory := false
	if raw, ok := c.GetQuery("week_history"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			_ = c.Error(apperrors.TypeMismatch("boolean", "query", "week_history"))
			return
		}
		includeHistory = v
	}

	ctx := c.Request.Context()
	out := h.svc.GetInfo(ctx, c.Param("code"), secretFromHeader(c), includeHistory)
	write(c, renderInfo(out, i18n.T(ctx, "link.info", nil, "Link info")))
}

// Delete 删除短链（DELETE /api/links/:code，需要 X-Link-Secret）
func (h *LinkHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	out := h.svc.Delete(ctx, c.Param("code"), secretFromHeader(c))
	write(c, renderDelete(out, i18n.T(ctx, "link.deleted", nil, "Link deleted")))
}

// secretFromHeader 未携带密钥头时返回 nil，携带空值时返回空串
func secretFromHeader(c *gin.Context) *string {
	values, ok := c.Request.Header[http.CanonicalHeaderKey(constant.LinkSecretHeader)]
	if !ok || len(values) == 0 {
		return nil
	}
	secret := values[0]
	return &secret
}

func write(c *gin.Context, r rendered) {
	switch {
	case r.err != nil:
		_ = c.Error(r.err)
	case r.location != "":
		c.Redirect(r.status, r.location)
	case r.body != nil:
		c.JSON(r.status, r.body)
	default:
		c.String(r.status, r.text)
	}
}
