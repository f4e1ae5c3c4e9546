package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prateekraiger/buildmeCV/internal/api/middleware"
	"github.com/prateekraiger/buildmeCV/internal/session"
	"github.com/prateekraiger/buildmeCV/internal/store"
)

// SessionHandler 签发匿名会话令牌。
type SessionHandler struct {
	sessions   *session.Service
	stores     *store.Registry
	cookieName string
	secure     bool
}

// NewSessionHandler 构造 SessionHandler。secure 控制 Cookie 的 Secure 标记。
func NewSessionHandler(sessions *session.Service, stores *store.Registry, cookieName string, secure bool) *SessionHandler {
	return &SessionHandler{sessions: sessions, stores: stores, cookieName: cookieName, secure: secure}
}

type sessionResponse struct {
	session.Token
	Version    uint64 `json:"version"`
	Completion int    `json:"completion"`
}

// CreateSession 创建会话并打开其简历存储（首次打开即为示例简历）。
func (h *SessionHandler) CreateSession(c *gin.Context) {
	token, err := h.sessions.Issue()
	if err != nil {
		middleware.LoggerFromContext(c).Error("issue session token failed", slog.Any("error", err))
		Internal(c, "failed to create session")
		return
	}

	s, err := h.stores.Get(c.Request.Context(), token.SessionID)
	if err != nil {
		middleware.LoggerFromContext(c).Error("open session store failed",
			slog.String("session_id", token.SessionID),
			slog.Any("error", err),
		)
		Internal(c, "failed to open resume store")
		return
	}

	if h.cookieName != "" {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.cookieName, token.Value, int(h.sessions.TTL().Seconds()), "/", "", h.secure, true)
	}

	c.JSON(http.StatusCreated, sessionResponse{
		Token:      token,
		Version:    s.Version(),
		Completion: s.Completion(),
	})
}

// openStore 取当前会话的 Store，失败时已写出响应。
func openStore(c *gin.Context, stores *store.Registry) (*store.Store, string, bool) {
	sid := middleware.GetSessionID(c)
	if sid == "" {
		AbortUnauthorized(c)
		return nil, "", false
	}
	s, err := stores.Get(c.Request.Context(), sid)
	if err != nil {
		middleware.LoggerFromContext(c).Error("open session store failed",
			slog.String("session_id", sid),
			slog.Any("error", err),
		)
		Internal(c, "failed to open resume store")
		return nil, "", false
	}
	return s, sid, true
}
