package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubmissionStatus 联系表单投递状态
type SubmissionStatus string

const (
	// SubmissionQueued 已入队等待发送
	SubmissionQueued SubmissionStatus = "queued"
	// SubmissionSent 邮件已发送
	SubmissionSent SubmissionStatus = "sent"
	// SubmissionFailed 发送失败
	SubmissionFailed SubmissionStatus = "failed"
)

// Valid 是否为已知状态
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionQueued, SubmissionSent, SubmissionFailed:
		return true
	}
	return false
}

// ContactSubmission 联系表单提交记录
type ContactSubmission struct {
	ID             string           `gorm:"primaryKey;size:36"`      // 提交ID (uuid)
	FirstName      string           `gorm:"size:100;not null"`       // 名
	LastName       string           `gorm:"size:100;not null"`       // 姓
	Email          string           `gorm:"size:255;not null;index"` // 提交人邮箱
	Phone          string           `gorm:"size:50;not null"`        // 电话
	Company        string           `gorm:"size:255"`                // 公司，可选
	Details        string           `gorm:"type:text;not null"`      // 留言内容
	Status         SubmissionStatus `gorm:"size:20;not null;index"`  // 投递状态
	MessageID      string           `gorm:"size:100"`                // 邮件服务返回的消息ID
	TaskID         string           `gorm:"size:36"`                 // 异步投递的任务ID
	Error          string           `gorm:"type:text"`               // 最近一次错误
	RemoteIP       string           `gorm:"size:64"`                 // 客户端IP
	RecaptchaScore *float64         `gorm:""`                        // 人机验证得分
	Metadata       datatypes.JSON   `gorm:"type:json"`               // 附加信息，例如 User-Agent
	CreatedAt      time.Time        `gorm:"not null;index"`          // 创建时间
	UpdatedAt      time.Time        `gorm:"not null"`                // 更新时间
	SentAt         *time.Time       `gorm:""`                        // 发送成功时间
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (s *ContactSubmission) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.Status == "" {
		s.Status = SubmissionQueued
	}
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (s *ContactSubmission) BeforeUpdate(tx *gorm.DB) (err error) {
	s.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (ContactSubmission) TableName() string {
	return "contact_submissions"
}
