package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/prateekraiger/buildmeCV/internal/compositor"
	"github.com/prateekraiger/buildmeCV/internal/database"
	"github.com/prateekraiger/buildmeCV/internal/errcode"
	"github.com/prateekraiger/buildmeCV/internal/resume"
	"github.com/prateekraiger/buildmeCV/internal/storage"
	"github.com/prateekraiger/buildmeCV/internal/tasks"
	"github.com/prateekraiger/buildmeCV/internal/templates"
)

// ArtifactStore receives finished files. *storage.Client implements it.
type ArtifactStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
}

// Thumbnailer captures a PNG of an HTML page. *pdf.Chromium implements it.
type Thumbnailer interface {
	Screenshot(ctx context.Context, html string) ([]byte, error)
}

// ExportTaskHandler 负责消费 PDF 导出任务。
type ExportTaskHandler struct {
	db          *gorm.DB
	storage     ArtifactStore
	publisher   Publisher
	compositor  *compositor.Compositor
	registry    *templates.Registry
	thumbnailer Thumbnailer
	logger      *slog.Logger
}

// NewExportTaskHandler 创建任务处理器。thumbnailer 可以为 nil，此时不生成缩略图。
func NewExportTaskHandler(
	db *gorm.DB,
	store ArtifactStore,
	publisher Publisher,
	comp *compositor.Compositor,
	registry *templates.Registry,
	thumbnailer Thumbnailer,
	logger *slog.Logger,
) *ExportTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportTaskHandler{
		db:          db,
		storage:     store,
		publisher:   publisher,
		compositor:  comp,
		registry:    registry,
		thumbnailer: thumbnailer,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.PDFExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("session_id", payload.SessionID),
		slog.String("task_id", payload.TaskID),
	)
	log.Info("starting pdf export task")

	var record database.ExportRecord
	if err := h.db.WithContext(ctx).Where(&database.ExportRecord{TaskID: payload.TaskID}).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("export record not found, skipping task")
			return nil
		}
		log.Error("query export record failed", slog.Any("error", err))
		return err
	}

	var doc resume.ResumeData
	if err := json.Unmarshal(payload.Resume, &doc); err != nil {
		h.fail(ctx, log, &record, payload, errcode.SystemError, "invalid resume snapshot", false, nil)
		return fmt.Errorf("decode resume snapshot: %v: %w", err, asynq.SkipRetry)
	}

	defer func() {
		if retErr == nil || errors.Is(retErr, asynq.SkipRetry) || !isFinalAsynqAttempt(ctx) {
			return
		}
		h.fail(ctx, log, &record, payload, errcode.CompositionFailed, strings.TrimSpace(retErr.Error()), true, nil)
	}()

	art, err := h.compositor.Build(ctx, doc)
	if err != nil {
		var verr *resume.ValidationError
		if errors.As(err, &verr) {
			h.fail(ctx, log, &record, payload, errcode.ValidationFailed, verr.Error(), false, verr.Missing)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		log.Error("compose pdf failed", slog.Any("error", err))
		return err
	}

	objectName := storage.ExportKey(payload.SessionID, payload.TaskID)
	if err := h.storage.UploadFile(ctx, objectName, bytes.NewReader(art.Data), int64(len(art.Data)), art.ContentType); err != nil {
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	update := map[string]any{
		"object_key": objectName,
		"filename":   art.Filename,
		"pages":      art.Pages,
		"status":     database.ExportStatusDone,
		"error":      "",
	}
	if err := h.db.WithContext(ctx).Model(&record).Updates(update).Error; err != nil {
		log.Error("update export record failed", slog.Any("error", err))
		return err
	}

	notify := ExportNotifyMessage{
		Status:        database.ExportStatusDone,
		TaskID:        payload.TaskID,
		Filename:      art.Filename,
		Pages:         art.Pages,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := PublishNotify(ctx, h.publisher, payload.SessionID, notify); err != nil {
		// PDF 已就绪，客户端可以通过查询链接获取，不必重试整个任务
		log.Error("publish redis notification failed", slog.Any("error", err))
	}

	if err := h.uploadThumbnail(ctx, payload, doc); err != nil {
		log.Warn("generate export thumbnail failed", slog.Any("error", err))
	}

	log.Info("pdf export task completed", slog.Int("pages", art.Pages))
	return nil
}

func (h *ExportTaskHandler) fail(ctx context.Context, log *slog.Logger, record *database.ExportRecord, payload tasks.PDFExportPayload, code int, msg string, retryable bool, missing []string) {
	if err := h.db.WithContext(ctx).Model(record).Updates(map[string]any{
		"status": database.ExportStatusFailed,
		"error":  truncate(msg, 512),
	}).Error; err != nil {
		log.Error("mark export failed", slog.Any("error", err))
	}
	notify := ExportNotifyMessage{
		Status:        "error",
		TaskID:        payload.TaskID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     code,
		ErrorMessage:  msg,
		Missing:       missing,
		Retryable:     retryable,
	}
	if err := PublishNotify(ctx, h.publisher, payload.SessionID, notify); err != nil {
		log.Error("publish export error notification failed", slog.Any("error", err))
	}
}

func (h *ExportTaskHandler) uploadThumbnail(ctx context.Context, payload tasks.PDFExportPayload, doc resume.ResumeData) error {
	if h.thumbnailer == nil {
		return nil
	}
	tpl := h.registry.Lookup(doc.Template)
	var html bytes.Buffer
	if _, err := tpl.Screen.Page(&html, tpl.Tree(resume.Sanitize(doc))); err != nil {
		return fmt.Errorf("render thumbnail html: %w", err)
	}
	png, err := h.thumbnailer.Screenshot(ctx, html.String())
	if err != nil {
		return fmt.Errorf("capture thumbnail: %w", err)
	}
	key := storage.ThumbnailKey(payload.SessionID, payload.TaskID)
	if err := h.storage.UploadFile(ctx, key, bytes.NewReader(png), int64(len(png)), "image/png"); err != nil {
		return fmt.Errorf("upload thumbnail: %w", err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
