package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document 保存一个会话的简历快照信封（resume + version + savedAt）。
// Key 对应 store 的存储键，例如 "buildmecv-resume-storage:<session>"。
type Document struct {
	ID        uint           `gorm:"primaryKey"`
	Key       string         `gorm:"uniqueIndex;size:191"`
	Payload   datatypes.JSON
	CreatedAt time.Time
	UpdatedAt time.Time
}

// 导出任务状态
const (
	ExportStatusPending = "pending"
	ExportStatusDone    = "completed"
	ExportStatusFailed  = "failed"
)

// ExportRecord 记录一次异步 PDF 导出，worker 完成后回填对象键。
type ExportRecord struct {
	gorm.Model
	TaskID    string `gorm:"uniqueIndex;size:64"`
	SessionID string `gorm:"index;size:64"`
	Filename  string `gorm:"size:255"`
	ObjectKey string `gorm:"size:512"`
	Status    string `gorm:"size:32"`
	Error     string `gorm:"size:512"`
	Pages     int
}

// AutoMigrate creates or updates every table owned by the service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Document{}, &ExportRecord{})
}
