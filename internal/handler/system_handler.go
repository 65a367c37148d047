package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Ping 存活检查
func Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// Version 返回构建版本
func Version(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, version)
	}
}
