package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/prateekraiger/buildmeCV/internal/api/middleware"
	"github.com/prateekraiger/buildmeCV/internal/compositor"
	"github.com/prateekraiger/buildmeCV/internal/database"
	"github.com/prateekraiger/buildmeCV/internal/errcode"
	"github.com/prateekraiger/buildmeCV/internal/resume"
	"github.com/prateekraiger/buildmeCV/internal/store"
	"github.com/prateekraiger/buildmeCV/internal/tasks"
)

// Enqueuer is the subset of *asynq.Client used to schedule exports.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ArtifactLinker is the subset of *storage.Client used to hand out exports.
type ArtifactLinker interface {
	Exists(ctx context.Context, objectKey string) (bool, error)
	DownloadURL(ctx context.Context, objectKey, filename string, ttl time.Duration) (string, error)
}

// DownloadHandler 负责同步下载与异步导出。
type DownloadHandler struct {
	stores     *store.Registry
	compositor *compositor.Compositor
	db         *gorm.DB
	queue      Enqueuer
	storage    ArtifactLinker
	linkTTL    time.Duration
}

// NewDownloadHandler 构造 DownloadHandler。
func NewDownloadHandler(
	stores *store.Registry,
	comp *compositor.Compositor,
	db *gorm.DB,
	queue Enqueuer,
	storage ArtifactLinker,
	linkTTL time.Duration,
) *DownloadHandler {
	if linkTTL <= 0 {
		linkTTL = 15 * time.Minute
	}
	return &DownloadHandler{
		stores:     stores,
		compositor: comp,
		db:         db,
		queue:      queue,
		storage:    storage,
		linkTTL:    linkTTL,
	}
}

// Download GET /v1/download：同步生成 PDF 并直接返回。
func (h *DownloadHandler) Download(c *gin.Context) {
	s, sid, ok := openStore(c, h.stores)
	if !ok {
		return
	}

	art, err := h.compositor.BuildFor(c.Request.Context(), sid, s.Snapshot())
	if err != nil {
		compositionError(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.Filename}))
	c.Header("X-Resume-Pages", strconv.Itoa(art.Pages))
	c.Data(http.StatusOK, art.ContentType, art.Data)
}

// compositionError 区分校验失败（422）、重复导出（409）和合成失败（500）。
func compositionError(c *gin.Context, err error) {
	var verr *resume.ValidationError
	var cerr *compositor.CompositionError
	switch {
	case errors.As(err, &verr):
		Unprocessable(c, verr.Error(), verr.Missing)
	case errors.Is(err, compositor.ErrBusy):
		Conflict(c, err.Error())
	case errors.As(err, &cerr):
		Error(c, http.StatusInternalServerError, errcode.CompositionFailed, "failed to generate pdf")
	default:
		middleware.LoggerFromContext(c).Error("pdf export failed", slog.Any("error", err))
		Internal(c, "failed to generate pdf")
	}
}

// Enqueue POST /v1/download：记录导出任务并入队，立即返回 202。
// 任务携带当前快照，后续编辑不影响本次导出。
func (h *DownloadHandler) Enqueue(c *gin.Context) {
	s, sid, ok := openStore(c, h.stores)
	if !ok {
		return
	}
	doc, version := s.Snapshot(), s.Version()
	if err := resume.ValidateForExport(doc); err != nil {
		compositionError(c, err)
		return
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		Internal(c, "failed to encode resume")
		return
	}

	ctx := c.Request.Context()
	record := database.ExportRecord{
		TaskID:    uuid.NewString(),
		SessionID: sid,
		Filename:  resume.PDFFilename(doc.Personal.Name),
		Status:    database.ExportStatusPending,
	}
	if err := h.db.WithContext(ctx).Create(&record).Error; err != nil {
		middleware.LoggerFromContext(c).Error("create export record failed", slog.Any("error", err))
		Internal(c, "failed to create export")
		return
	}

	task, err := tasks.NewPDFExportTask(tasks.PDFExportPayload{
		TaskID:        record.TaskID,
		SessionID:     sid,
		Version:       version,
		Resume:        raw,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	if _, err := h.queue.EnqueueContext(ctx, task); err != nil {
		middleware.LoggerFromContext(c).Error("enqueue pdf export failed",
			slog.String("task_id", record.TaskID),
			slog.Any("error", err),
		)
		_ = h.db.WithContext(ctx).Model(&record).Updates(map[string]any{
			"status": database.ExportStatusFailed,
			"error":  "enqueue failed",
		}).Error
		Internal(c, "failed to enqueue pdf export")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "PDF export request accepted",
		"task_id": record.TaskID,
		"status":  record.Status,
		"version": version,
	})
}

// GetDownloadLink GET /v1/download/:task/link：为已完成的导出生成预签名链接。
func (h *DownloadHandler) GetDownloadLink(c *gin.Context) {
	sid := middleware.GetSessionID(c)
	if sid == "" {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	var record database.ExportRecord
	err := h.db.WithContext(ctx).
		Where("task_id = ? AND session_id = ?", c.Param("task"), sid).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "export not found")
			return
		}
		Internal(c, "failed to query export")
		return
	}

	switch record.Status {
	case database.ExportStatusPending:
		Conflict(c, "pdf not ready")
		return
	case database.ExportStatusFailed:
		Error(c, http.StatusConflict, errcode.CompositionFailed, "pdf export failed")
		return
	}

	exists, err := h.storage.Exists(ctx, record.ObjectKey)
	if err != nil {
		middleware.LoggerFromContext(c).Error("stat export object failed",
			slog.String("object_key", record.ObjectKey),
			slog.Any("error", err),
		)
		Internal(c, "failed to check export")
		return
	}
	if !exists {
		NotFound(c, "export file no longer exists")
		return
	}

	signedURL, err := h.storage.DownloadURL(ctx, record.ObjectKey, record.Filename, h.linkTTL)
	if err != nil {
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":        signedURL,
		"filename":   record.Filename,
		"pages":      record.Pages,
		"expires_in": int(h.linkTTL.Seconds()),
	})
}
