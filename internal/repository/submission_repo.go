package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyerfyer/motorsport-site/internal/database"
	"github.com/fyerfyer/motorsport-site/internal/models"
	"gorm.io/gorm"
)

// submissionRepository 提交记录仓储实现
type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository 使用全局数据库连接创建仓储
func NewSubmissionRepository() SubmissionRepository {
	return &submissionRepository{db: database.MustDB()}
}

// NewSubmissionRepositoryWithDB 使用指定的数据库连接创建仓储
func NewSubmissionRepositoryWithDB(db *gorm.DB) SubmissionRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &submissionRepository{db: db}
}

// Create 创建提交记录
func (r *submissionRepository) Create(sub *models.ContactSubmission) error {
	if sub.ID == "" {
		return errors.New("submission ID cannot be empty")
	}
	return r.db.Create(sub).Error
}

// GetByID 根据ID获取提交记录
func (r *submissionRepository) GetByID(id string) (*models.ContactSubmission, error) {
	var sub models.ContactSubmission
	err := r.db.Where("id = ?", id).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrSubmissionNotFound, id)
		}
		return nil, err
	}
	return &sub, nil
}

// List 列出提交记录
// 支持的筛选条件：status、email、start_time、end_time
func (r *submissionRepository) List(offset, limit int, filters map[string]interface{}) ([]*models.ContactSubmission, int64, error) {
	var subs []*models.ContactSubmission
	var total int64

	query := r.db.Model(&models.ContactSubmission{})

	if filters != nil {
		switch s := filters["status"].(type) {
		case models.SubmissionStatus:
			query = query.Where("status = ?", string(s))
		case string:
			if s != "" {
				query = query.Where("status = ?", s)
			}
		}

		if email, ok := filters["email"].(string); ok && email != "" {
			query = query.Where("email = ?", email)
		}

		// 时间范围过滤
		if start, ok := filters["start_time"].(time.Time); ok && !start.IsZero() {
			query = query.Where("created_at >= ?", start)
		}
		if end, ok := filters["end_time"].(time.Time); ok && !end.IsZero() {
			query = query.Where("created_at <= ?", end)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, 0, err
	}

	return subs, total, nil
}

// UpdateStatus 更新投递状态
// 成功时记录消息ID和发送时间，失败时记录错误信息
func (r *submissionRepository) UpdateStatus(id string, status models.SubmissionStatus, messageID, errorMsg string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", models.ErrInvalidSubmissionStatus, status)
	}

	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if messageID != "" {
		updates["message_id"] = messageID
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}
	if status == models.SubmissionSent {
		now := time.Now()
		updates["sent_at"] = &now
		updates["error"] = ""
	}

	res := r.db.Model(&models.ContactSubmission{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrSubmissionNotFound, id)
	}
	return nil
}

// SetTaskID 记录异步投递的任务ID
func (r *submissionRepository) SetTaskID(id, taskID string) error {
	return r.db.Model(&models.ContactSubmission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"task_id":    taskID,
			"updated_at": time.Now(),
		}).Error
}
