package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NotifyType is the "type" of export notifications.
const NotifyType = "export"

// ExportNotifyMessage 统一的 WebSocket 消息协议（通过 Redis Pub/Sub 转发给前端）。
type ExportNotifyMessage struct {
	Type          string   `json:"type"`
	Status        string   `json:"status"`
	TaskID        string   `json:"task_id"`
	Filename      string   `json:"filename,omitempty"`
	Pages         int      `json:"pages,omitempty"`
	CorrelationID string   `json:"correlation_id,omitempty"`
	ErrorCode     int      `json:"error_code"`
	ErrorMessage  string   `json:"error_message,omitempty"`
	Missing       []string `json:"missing,omitempty"`
	Retryable     bool     `json:"retryable"`
}

// Publisher is the subset of *redis.Client used for notifications.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// NotifyChannel returns the pub/sub channel of a session.
func NotifyChannel(sessionID string) string {
	return "user_notify:" + sessionID
}

// PublishNotify 序列化消息并发布到会话频道。
func PublishNotify(ctx context.Context, p Publisher, sessionID string, msg ExportNotifyMessage) error {
	msg.Type = NotifyType
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := NotifyChannel(sessionID)
	if err := p.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
