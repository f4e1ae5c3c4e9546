package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/prateekraiger/buildmeCV/internal/api/middleware"
	"github.com/prateekraiger/buildmeCV/internal/metrics"
	"github.com/prateekraiger/buildmeCV/internal/preview"
	"github.com/prateekraiger/buildmeCV/internal/session"
	"github.com/prateekraiger/buildmeCV/internal/store"
	"github.com/prateekraiger/buildmeCV/internal/worker"
)

const (
	wsAuthTimeout  = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 5 * time.Second
)

// WsHandler 负责 WebSocket 鉴权，并推送预览更新与导出通知。
type WsHandler struct {
	redisClient    *redis.Client
	sessions       *session.Service
	stores         *store.Registry
	previews       *preview.Manager
	cookieName     string
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

// NewWsHandler 构造 WebSocket 处理器。redisClient 为 nil 时只推送预览更新。
func NewWsHandler(
	redisClient *redis.Client,
	sessions *session.Service,
	stores *store.Registry,
	previews *preview.Manager,
	cookieName string,
	logger *slog.Logger,
	allowedOrigins []string,
) *WsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &WsHandler{
		redisClient:    redisClient,
		sessions:       sessions,
		stores:         stores,
		previews:       previews,
		cookieName:     cookieName,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if len(h.allowedOrigins) == 0 {
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
	return h
}

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleConnection 负责升级连接并启动读写循环。
// 携带有效会话 Cookie 的连接直接通过；否则第一条消息必须是 {"type":"auth","token":...}。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	cookieSession := ""
	if token := middleware.TokenFromRequest(c, h.cookieName); token != "" {
		if claims, err := h.sessions.Validate(token); err == nil {
			cookieSession = claims.SessionID
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()
	defer metrics.TrackWebSocket()()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	baseLog := h.logger.With(slog.String("client_ip", c.ClientIP()))

	sessionCh := make(chan string, 1)
	errCh := make(chan error, 2)
	if cookieSession != "" {
		sessionCh <- cookieSession
	}

	go h.readLoop(ctx, conn, cookieSession != "", sessionCh, errCh, cancel, baseLog)

	var sid string
	timer := time.NewTimer(wsAuthTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		writeClose(conn, websocket.ClosePolicyViolation, "auth timeout")
		baseLog.Warn("websocket authentication timed out")
		return
	case err := <-errCh:
		if err != nil {
			baseLog.Warn("websocket authentication failed", slog.Any("error", err))
		}
		return
	case sid = <-sessionCh:
	}

	sessionLog := baseLog.With(slog.String("session_id", sid))
	s, err := h.stores.Get(ctx, sid)
	if err != nil {
		writeClose(conn, websocket.CloseInternalServerErr, "store unavailable")
		sessionLog.Error("open session store failed", slog.Any("error", err))
		return
	}
	updates, stop := surfaceFor(h.previews, sid, s).Watch()
	defer stop()

	go h.writeLoop(ctx, conn, sid, updates, errCh, cancel, sessionLog)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			sessionLog.Info("websocket connection closed", slog.Any("error", err))
		} else {
			sessionLog.Info("websocket connection closed")
		}
	}
}

func (h *WsHandler) readLoop(
	ctx context.Context,
	conn *websocket.Conn,
	authenticated bool,
	sessionCh chan<- string,
	errCh chan<- error,
	cancel context.CancelFunc,
	log *slog.Logger,
) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			writeClose(conn, websocket.CloseAbnormalClosure, "read error")
			errCh <- fmt.Errorf("read message: %w", err)
			cancel()
			return
		}

		if !authenticated {
			var authMsg wsAuthMessage
			if err := json.Unmarshal(message, &authMsg); err != nil {
				writeClose(conn, websocket.ClosePolicyViolation, "invalid auth payload")
				errCh <- fmt.Errorf("decode auth payload: %w", err)
				cancel()
				return
			}
			if authMsg.Type != "auth" || authMsg.Token == "" {
				writeClose(conn, websocket.ClosePolicyViolation, "auth required")
				errCh <- errors.New("invalid auth message")
				cancel()
				return
			}

			claims, err := h.sessions.Validate(authMsg.Token)
			if err != nil {
				writeClose(conn, websocket.ClosePolicyViolation, "unauthorized")
				errCh <- fmt.Errorf("validate token: %w", err)
				cancel()
				return
			}

			authenticated = true
			sessionCh <- claims.SessionID
			log.Info("websocket authenticated", slog.String("session_id", claims.SessionID))
			continue
		}

		// 客户端消息无需处理，保持循环以检测断开。
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	deadline := time.Now().Add(wsWriteTimeout)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}

// writeLoop 是连接上唯一的数据写入者：预览更新、Redis 导出通知与心跳。
func (h *WsHandler) writeLoop(
	ctx context.Context,
	conn *websocket.Conn,
	sessionID string,
	updates <-chan preview.Update,
	errCh chan<- error,
	cancel context.CancelFunc,
	log *slog.Logger,
) {
	var notifications <-chan *redis.Message
	if h.redisClient != nil {
		channel := worker.NotifyChannel(sessionID)
		pubsub := h.redisClient.Subscribe(ctx, channel)
		defer pubsub.Close()
		notifications = pubsub.Channel()
		log.Info("subscribed to redis channel", slog.String("channel", channel))
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	fail := func(err error) {
		errCh <- err
		cancel()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				fail(errors.New("preview detached"))
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
				fail(fmt.Errorf("set write deadline: %w", err))
				return
			}
			if err := conn.WriteJSON(update); err != nil {
				fail(fmt.Errorf("write preview update: %w", err))
				return
			}
		case msg, ok := <-notifications:
			if !ok {
				fail(errors.New("pubsub channel closed"))
				return
			}
			log.Info("forwarding export notification to client")
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
				fail(fmt.Errorf("set write deadline: %w", err))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				fail(fmt.Errorf("write message: %w", err))
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(wsWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				fail(fmt.Errorf("write ping: %w", err))
				return
			}
		}
	}
}
