package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ScrapeTokenMiddleware 保护 /metrics 等内部端点。token 为空时放行。
// 密钥只接受 Header 传递，避免 query 泄露到日志。
func ScrapeTokenMiddleware(token string) gin.HandlerFunc {
	token = strings.TrimSpace(token)
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := strings.TrimSpace(c.GetHeader("X-Internal-Secret"))
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
