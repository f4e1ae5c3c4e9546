package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prateekraiger/buildmeCV/internal/api/middleware"
	"github.com/prateekraiger/buildmeCV/internal/config"
	"github.com/prateekraiger/buildmeCV/internal/metrics"
)

// NewRouter 构建 Gin 路由引擎，挂载公共中间件、健康检查与指标端点。
func NewRouter(cfg *config.Config, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = cfg.API.MaxImportBytes
	router.Use(
		gin.Recovery(),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		metrics.GinMiddleware(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", middleware.ScrapeTokenMiddleware(cfg.API.MetricsToken), gin.WrapH(promhttp.Handler()))

	return router
}
