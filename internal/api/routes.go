package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/prateekraiger/buildmeCV/internal/api/middleware"
	"github.com/prateekraiger/buildmeCV/internal/compositor"
	"github.com/prateekraiger/buildmeCV/internal/config"
	"github.com/prateekraiger/buildmeCV/internal/enhance"
	"github.com/prateekraiger/buildmeCV/internal/preview"
	"github.com/prateekraiger/buildmeCV/internal/session"
	"github.com/prateekraiger/buildmeCV/internal/store"
	"github.com/prateekraiger/buildmeCV/internal/templates"
	"github.com/prateekraiger/buildmeCV/internal/transfer"
)

// Services 汇总路由所需的依赖，由 cmd/api 组装。
type Services struct {
	Config     *config.Config
	Logger     *slog.Logger
	DB         *gorm.DB
	Redis      *redis.Client // 可为 nil：不转发导出通知
	Counter    RateCounter   // 可为 nil：不限流
	Queue      Enqueuer
	Storage    ArtifactLinker
	Sessions   *session.Service
	Stores     *store.Registry
	Previews   *preview.Manager
	Templates  *templates.Registry
	Compositor *compositor.Compositor
	Importer   *transfer.Importer
	Enhancer   *enhance.Enhancer
}

// RegisterRoutes 注册 /v1 下的 API 路由。
func RegisterRoutes(router *gin.Engine, svc Services) {
	cfg := svc.Config
	cookieName := cfg.Session.CookieName

	sessionHandler := NewSessionHandler(svc.Sessions, svc.Stores, cookieName, cfg.Session.Secure)
	resumeHandler := NewResumeHandler(svc.Stores, svc.Importer)
	templateHandler := NewTemplateHandler(svc.Templates)
	previewHandler := NewPreviewHandler(svc.Stores, svc.Previews)
	downloadHandler := NewDownloadHandler(svc.Stores, svc.Compositor, svc.DB, svc.Queue, svc.Storage, cfg.Render.PresignedTTL)
	enhanceHandler := NewEnhanceHandler(svc.Stores, svc.Enhancer, svc.Counter, cfg.AI.RateLimit)
	wsHandler := NewWsHandler(svc.Redis, svc.Sessions, svc.Stores, svc.Previews, cookieName, svc.Logger, cfg.API.AllowedOrigins)
	sessionMiddleware := middleware.SessionMiddleware(svc.Sessions, cookieName, AbortUnauthorized)

	v1 := router.Group("/v1")
	{
		v1.POST("/session", sessionHandler.CreateSession)
		v1.GET("/ws", wsHandler.HandleConnection)
		v1.GET("/templates", templateHandler.ListTemplates)

		resumeGroup := v1.Group("/resume")
		resumeGroup.Use(sessionMiddleware)
		{
			resumeGroup.GET("", resumeHandler.GetResume)
			resumeGroup.PUT("", resumeHandler.PutResume)
			resumeGroup.PATCH("/field", resumeHandler.UpdateField)
			resumeGroup.GET("/completion", resumeHandler.GetCompletion)
			resumeGroup.POST("/reset", resumeHandler.Reset)
			resumeGroup.GET("/export", resumeHandler.Export)
			resumeGroup.POST("/import", resumeHandler.Import)
			resumeGroup.POST("/sections/:key/move", resumeHandler.MoveSection)
			resumeGroup.POST("/:section", resumeHandler.AddListItem)
			resumeGroup.PUT("/:section/:id", resumeHandler.UpdateListItem)
			resumeGroup.DELETE("/:section/:id", resumeHandler.RemoveListItem)
		}

		authed := v1.Group("")
		authed.Use(sessionMiddleware)
		{
			authed.GET("/preview", previewHandler.GetPreview)
			authed.GET("/download", downloadHandler.Download)
			authed.POST("/download", downloadHandler.Enqueue)
			authed.GET("/download/:task/link", downloadHandler.GetDownloadLink)
			authed.POST("/enhance", enhanceHandler.Enhance)
		}
	}
}
