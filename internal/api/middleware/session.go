package middleware

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prateekraiger/buildmeCV/internal/session"
)

const sessionIDKey = "sessionID"

// TokenFromRequest 依次从 Authorization: Bearer 和会话 Cookie 中取令牌。
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.Fields(header)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// SessionMiddleware 校验会话令牌并将 sessionID 注入上下文。
func SessionMiddleware(sessions *session.Service, cookieName string, onUnauthorized gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c, cookieName)
		if token == "" {
			onUnauthorized(c)
			return
		}

		claims, err := sessions.Validate(token)
		if err != nil {
			LoggerFromContext(c).Debug("session token rejected", slog.Any("error", err))
			onUnauthorized(c)
			return
		}

		c.Set(sessionIDKey, claims.SessionID)
		c.Next()
	}
}

// GetSessionID 从上下文中取出会话 ID。
func GetSessionID(c *gin.Context) string {
	if value, ok := c.Get(sessionIDKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
