package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tinylink-go/internal/apperrors"
	"tinylink-go/internal/i18n"
	"tinylink-go/pkg/logging"
	"tinylink-go/response"
)

// GlobalErrorMiddleware 全局错误中间件：
// 收集 c.Errors 中的错误，本地化后统一输出，内部错误只记录日志不暴露细节
func GlobalErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		var list apperrors.List
		for _, ginErr := range c.Errors {
			list = append(list, apperrors.Flatten(ginErr.Err)...)
		}

		ctx := c.Request.Context()
		fieldErrs := make([]response.FieldError, 0, len(list))
		for _, appErr := range list {
			if appErr.IsInternal() {
				logging.Logger.Error("Request failed with internal error",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(RequestIDKey)),
					zap.Error(appErr),
				)
			}
			fieldErrs = append(fieldErrs, response.FieldError{
				Message:  i18n.T(ctx, appErr.MessageID, appErr.TemplateData, appErr.Message),
				Location: appErr.Location,
			})
		}

		c.AbortWithStatusJSON(list.Code(), response.Errors(fieldErrs))
	}
}
