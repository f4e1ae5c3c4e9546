package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prateekraiger/buildmeCV/internal/api/middleware"
	"github.com/prateekraiger/buildmeCV/internal/preview"
	"github.com/prateekraiger/buildmeCV/internal/store"
)

// PreviewHandler 返回会话的实时预览页面。
type PreviewHandler struct {
	stores   *store.Registry
	previews *preview.Manager
}

func NewPreviewHandler(stores *store.Registry, previews *preview.Manager) *PreviewHandler {
	return &PreviewHandler{stores: stores, previews: previews}
}

// surfaceFor 返回会话的预览面板；Store 若在挂载钩子之前已打开则补挂。
func surfaceFor(previews *preview.Manager, sid string, s *store.Store) *preview.Surface {
	if surface, ok := previews.Get(sid); ok {
		return surface
	}
	previews.Attach(sid, s)
	surface, _ := previews.Get(sid)
	return surface
}

// GetPreview GET /v1/preview
func (h *PreviewHandler) GetPreview(c *gin.Context) {
	s, sid, ok := openStore(c, h.stores)
	if !ok {
		return
	}
	surface := surfaceFor(h.previews, sid, s)

	html, version := surface.HTML()
	if len(html) == 0 {
		if err := surface.Err(); err != nil {
			middleware.LoggerFromContext(c).Error("preview unavailable", slog.Any("error", err))
		}
		Internal(c, "preview is not available")
		return
	}

	c.Header("X-Preview-Version", strconv.FormatUint(version, 10))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}
