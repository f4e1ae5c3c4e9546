package metrics

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buildmecv",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP 请求耗时分布（秒）。",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"group", "method", "path", "status"},
	)

	requestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildmecv",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP 请求总数。",
		},
		[]string{"group", "method", "path", "status"},
	)

	requestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "buildmecv",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "当前正在处理的 HTTP 请求数量。",
		},
	)

	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "buildmecv",
			Subsystem: "http",
			Name:      "websocket_connections",
			Help:      "当前保持的预览推送 WebSocket 连接数。",
		},
	)
)

func register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestDuration, requestTotal, requestsInFlight, wsConnections)
	})
}

// TrackWebSocket 记录一个 WebSocket 连接，返回的函数在连接关闭时调用。
func TrackWebSocket() func() {
	register()
	wsConnections.Inc()
	return wsConnections.Dec
}

// routeGroups 把 /v1 下的首段路径归并为业务分组，便于按功能聚合面板。
var routeGroups = map[string]string{
	"session":   "session",
	"resume":    "editing",
	"templates": "editing",
	"preview":   "preview",
	"ws":        "preview",
	"download":  "export",
	"enhance":   "enhance",
}

// RouteGroup maps a gin route pattern to its dashboard group.
func RouteGroup(fullPath string) string {
	switch {
	case fullPath == "":
		return "unmatched"
	case !strings.HasPrefix(fullPath, "/v1/"):
		return "system"
	}
	head, _, _ := strings.Cut(strings.TrimPrefix(fullPath, "/v1/"), "/")
	if g, ok := routeGroups[head]; ok {
		return g
	}
	return "other"
}

// GinMiddleware 为 Gin 路由注册 Prometheus 指标采集逻辑。
func GinMiddleware() gin.HandlerFunc {
	register()

	return func(c *gin.Context) {
		start := time.Now()
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		c.Next()

		// 未匹配路由统一归为一个标签，避免任意路径撑爆基数
		path := c.FullPath()
		group := RouteGroup(path)
		if path == "" {
			path = "unmatched"
		}
		labels := prometheus.Labels{
			"group":  group,
			"method": c.Request.Method,
			"path":   path,
			"status": strconv.Itoa(c.Writer.Status()),
		}

		requestDuration.With(labels).Observe(time.Since(start).Seconds())
		requestTotal.With(labels).Inc()
	}
}
