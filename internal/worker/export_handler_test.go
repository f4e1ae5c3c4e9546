package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prateekraiger/buildmeCV/internal/compositor"
	"github.com/prateekraiger/buildmeCV/internal/database"
	"github.com/prateekraiger/buildmeCV/internal/errcode"
	"github.com/prateekraiger/buildmeCV/internal/resume"
	"github.com/prateekraiger/buildmeCV/internal/tasks"
	"github.com/prateekraiger/buildmeCV/internal/templates"
)

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (f *fakeStorage) UploadFile(_ context.Context, name string, r io.Reader, _ int64, contentType string) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects, f.types = map[string][]byte{}, map[string]string{}
	}
	f.objects[name], f.types[name] = data, contentType
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	channels []string
	messages []ExportNotifyMessage
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	var msg ExportNotifyMessage
	_ = json.Unmarshal(message.([]byte), &msg)
	f.mu.Lock()
	f.channels = append(f.channels, channel)
	f.messages = append(f.messages, msg)
	f.mu.Unlock()
	return redis.NewIntResult(1, nil)
}

type fakeThumbnailer struct{ html string }

func (f *fakeThumbnailer) Screenshot(_ context.Context, html string) ([]byte, error) {
	f.html = html
	return []byte("\x89PNG"), nil
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func exportTask(t *testing.T, db *gorm.DB, taskID string, doc resume.ResumeData) *asynq.Task {
	t.Helper()
	require.NoError(t, db.Create(&database.ExportRecord{
		TaskID:    taskID,
		SessionID: "sess",
		Status:    database.ExportStatusPending,
	}).Error)
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	task, err := tasks.NewPDFExportTask(tasks.PDFExportPayload{TaskID: taskID, SessionID: "sess", Resume: raw})
	require.NoError(t, err)
	return task
}

func newHandler(db *gorm.DB, st ArtifactStore, pub Publisher, thumb Thumbnailer) *ExportTaskHandler {
	reg := templates.Default()
	return NewExportTaskHandler(db, st, pub, compositor.New(reg), reg, thumb, nil)
}

func TestExportTaskSuccess(t *testing.T) {
	db := setupDB(t)
	st, pub, thumb := &fakeStorage{}, &fakePublisher{}, &fakeThumbnailer{}
	h := newHandler(db, st, pub, thumb)

	require.NoError(t, h.ProcessTask(context.Background(), exportTask(t, db, "task-ok", resume.Default())))

	pdf := st.objects["exports/sess/task-ok.pdf"]
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Equal(t, "application/pdf", st.types["exports/sess/task-ok.pdf"])
	assert.Equal(t, "image/png", st.types["exports/sess/task-ok.png"])
	assert.Contains(t, thumb.html, "Jane Doe")

	var rec database.ExportRecord
	require.NoError(t, db.Where("task_id = ?", "task-ok").First(&rec).Error)
	assert.Equal(t, database.ExportStatusDone, rec.Status)
	assert.Equal(t, "exports/sess/task-ok.pdf", rec.ObjectKey)
	assert.Equal(t, "Jane_Doe_Resume.pdf", rec.Filename)
	assert.Equal(t, 1, rec.Pages)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, "user_notify:sess", pub.channels[0])
	assert.Equal(t, NotifyType, pub.messages[0].Type)
	assert.Equal(t, database.ExportStatusDone, pub.messages[0].Status)
	assert.Equal(t, errcode.OK, pub.messages[0].ErrorCode)
}

func TestExportTaskValidationFailureSkipsRetry(t *testing.T) {
	db := setupDB(t)
	st, pub := &fakeStorage{}, &fakePublisher{}
	h := newHandler(db, st, pub, nil)

	doc := resume.Default()
	doc.Personal.Email = ""
	err := h.ProcessTask(context.Background(), exportTask(t, db, "task-invalid", doc))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, st.objects)

	var rec database.ExportRecord
	require.NoError(t, db.Where("task_id = ?", "task-invalid").First(&rec).Error)
	assert.Equal(t, database.ExportStatusFailed, rec.Status)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, errcode.ValidationFailed, pub.messages[0].ErrorCode)
	assert.Equal(t, []string{"personal.email"}, pub.messages[0].Missing)
	assert.False(t, pub.messages[0].Retryable)
}

func TestExportTaskUploadFailureRetries(t *testing.T) {
	db := setupDB(t)
	pub := &fakePublisher{}
	h := newHandler(db, &fakeStorage{err: errors.New("minio down")}, pub, nil)

	err := h.ProcessTask(context.Background(), exportTask(t, db, "task-retry", resume.Default()))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))

	var rec database.ExportRecord
	require.NoError(t, db.Where("task_id = ?", "task-retry").First(&rec).Error)
	assert.Equal(t, database.ExportStatusPending, rec.Status)
	// 非最后一次尝试时不通知客户端
	assert.Empty(t, pub.messages)
}

func TestExportTaskMissingRecord(t *testing.T) {
	db := setupDB(t)
	h := newHandler(db, &fakeStorage{}, &fakePublisher{}, nil)

	task, err := tasks.NewPDFExportTask(tasks.PDFExportPayload{TaskID: "ghost", SessionID: "sess", Resume: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.NoError(t, h.ProcessTask(context.Background(), task))

	bad := asynq.NewTask(tasks.TypePDFExport, []byte("{"))
	assert.ErrorIs(t, h.ProcessTask(context.Background(), bad), asynq.SkipRetry)
}
