package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType 任务类型
type TaskType string

const (
	// TaskContactEmail 发送联系表单邮件
	TaskContactEmail TaskType = "contact_email"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	// StatusPending 等待处理（包括等待重试）
	StatusPending TaskStatus = "pending"
	// StatusProcessing 处理中
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted 已完成
	StatusCompleted TaskStatus = "completed"
	// StatusFailed 重试耗尽后失败
	StatusFailed TaskStatus = "failed"
)

// Task 任务基础结构
type Task struct {
	ID          string          `json:"id"`           // 任务唯一标识符
	Type        TaskType        `json:"type"`         // 任务类型
	RefID       string          `json:"ref_id"`       // 关联的业务ID，例如联系表单提交ID
	Status      TaskStatus      `json:"status"`       // 任务状态
	Payload     json.RawMessage `json:"payload"`      // 任务载荷
	Result      json.RawMessage `json:"result"`       // 任务结果
	Error       string          `json:"error"`        // 最近一次错误
	CreatedAt   time.Time       `json:"created_at"`   // 创建时间
	UpdatedAt   time.Time       `json:"updated_at"`   // 更新时间
	StartedAt   *time.Time      `json:"started_at"`   // 开始处理时间
	CompletedAt *time.Time      `json:"completed_at"` // 完成时间
	Attempts    int             `json:"attempts"`     // 已尝试次数
	MaxRetries  int             `json:"max_retries"`  // 最大重试次数
}

// Finished 任务是否已经结束
func (t *Task) Finished() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// ContactEmailPayload 联系表单邮件任务载荷
// 入队时邮件已经组装完毕，worker只负责投递
type ContactEmailPayload struct {
	SubmissionID string `json:"submission_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	ReplyTo      string `json:"reply_to"`
	Subject      string `json:"subject"`
	Text         string `json:"text"`
}

// ContactEmailResult 联系表单邮件任务结果
type ContactEmailResult struct {
	MessageID string `json:"message_id"`
}

// ErrTaskNotFound 任务未找到错误
var ErrTaskNotFound = TaskError("task not found")

// ErrInvalidPayload 无效的任务载荷错误
var ErrInvalidPayload = TaskError("invalid task payload")

// TaskError 任务错误类型
type TaskError string

// Error 实现error接口
func (e TaskError) Error() string {
	return string(e)
}

// MarshalPayload 将任务载荷序列化为JSON
func MarshalPayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(payload)
}

// UnmarshalPayload 将JSON反序列化为任务载荷
func UnmarshalPayload(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return ErrInvalidPayload
	}
	return json.Unmarshal(data, v)
}
