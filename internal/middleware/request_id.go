package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tinylink-go/constant"
)

// RequestIDKey gin 上下文中请求 ID 的键
const RequestIDKey = "request_id"

// RequestID 沿用调用方传入的 X-Request-ID，没有时生成一个
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(constant.RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(constant.RequestIDHeader, id)
		c.Next()
	}
}
