package repository

import "github.com/fyerfyer/motorsport-site/internal/models"

// SubmissionRepository 联系表单提交记录仓储接口
type SubmissionRepository interface {
	// Create 创建提交记录
	Create(sub *models.ContactSubmission) error

	// GetByID 根据ID获取提交记录
	GetByID(id string) (*models.ContactSubmission, error)

	// List 列出提交记录，支持分页和筛选，按创建时间倒序
	List(offset, limit int, filters map[string]interface{}) ([]*models.ContactSubmission, int64, error)

	// UpdateStatus 更新投递状态
	UpdateStatus(id string, status models.SubmissionStatus, messageID, errorMsg string) error

	// SetTaskID 记录异步投递的任务ID
	SetTaskID(id, taskID string) error
}
