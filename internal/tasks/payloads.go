package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypePDFExport = "pdf:export"
)

// PDFExportPayload 携带导出时刻的简历快照，worker 不再回读 Store，
// 因此导出内容与用户点击时看到的版本一致。
type PDFExportPayload struct {
	TaskID        string          `json:"task_id"`
	SessionID     string          `json:"session_id"`
	Version       uint64          `json:"version"`
	Resume        json.RawMessage `json:"resume"`
	CorrelationID string          `json:"correlation_id"`
}

// NewPDFExportTask 构造一个新的简历 PDF 导出任务。TaskID 同时作为 asynq 任务 ID，重复入队会被拒绝。
func NewPDFExportTask(p PDFExportPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal export payload: %w", err)
	}
	return asynq.NewTask(TypePDFExport, payload,
		asynq.TaskID(p.TaskID),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
		asynq.Retention(24*time.Hour),
	), nil
}
