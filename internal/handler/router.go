package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes 注册全部路由；linkMiddleware 只作用于短链相关路由，系统路由不受影响
func RegisterRoutes(r gin.IRouter, h *LinkHandler, version string, linkMiddleware ...gin.HandlerFunc) {
	r.GET("/ping", Ping)
	r.GET("/version", Version(version))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	links := r.Group("", linkMiddleware...)
	api := links.Group("/api")
	{
		api.POST("/links", h.CreateLink)
		api.GET("/links/:code", h.GetInfo)
		api.DELETE("/links/:code", h.Delete)
	}

	links.GET("/t/:code", h.Resolve)
	links.GET("/peek/:code", h.Peek)
}
