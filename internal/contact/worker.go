package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyerfyer/motorsport-site/internal/models"
	"github.com/fyerfyer/motorsport-site/internal/repository"
	"github.com/fyerfyer/motorsport-site/pkg/taskqueue"
	"github.com/sirupsen/logrus"
)

var _ taskqueue.Handler = (*EmailTaskHandler)(nil)

// EmailTaskHandler 在worker中投递排队的联系表单邮件
type EmailTaskHandler struct {
	mailer Mailer
	repo   repository.SubmissionRepository
	logger *logrus.Logger
}

// NewEmailTaskHandler 创建任务处理器，repo 可以为 nil
func NewEmailTaskHandler(mailer Mailer, repo repository.SubmissionRepository, logger *logrus.Logger) *EmailTaskHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EmailTaskHandler{mailer: mailer, repo: repo, logger: logger}
}

// GetTaskTypes 支持的任务类型
func (h *EmailTaskHandler) GetTaskTypes() []taskqueue.TaskType {
	return []taskqueue.TaskType{taskqueue.TaskContactEmail}
}

// ProcessTask 发送邮件并更新提交记录
// 邮件服务的4xx错误不会因重试而改变，直接放弃
func (h *EmailTaskHandler) ProcessTask(ctx context.Context, task *taskqueue.Task) error {
	var p taskqueue.ContactEmailPayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &p); err != nil {
		return fmt.Errorf("%w: %v", taskqueue.SkipRetry, err)
	}
	if h.mailer == nil {
		return fmt.Errorf("%w: %v", taskqueue.SkipRetry, ErrMailerNotConfigured)
	}

	log := h.logger.WithFields(logrus.Fields{
		"task_id":       task.ID,
		"submission_id": p.SubmissionID,
		"attempt":       task.Attempts + 1,
	})

	messageID, err := h.mailer.Send(ctx, &Email{
		From:           p.From,
		To:             p.To,
		ReplyTo:        p.ReplyTo,
		Subject:        p.Subject,
		Text:           p.Text,
		IdempotencyKey: p.SubmissionID,
	})
	if err != nil {
		var mErr *MailerError
		permanent := errors.As(err, &mErr) && !mErr.Temporary()
		if permanent || taskqueue.LastAttempt(ctx) {
			h.updateStatus(p.SubmissionID, models.SubmissionFailed, "", err.Error())
		} else {
			h.updateStatus(p.SubmissionID, models.SubmissionQueued, "", err.Error())
		}
		log.WithError(err).Warn("Contact email delivery failed")
		if permanent {
			return fmt.Errorf("%w: %v", taskqueue.SkipRetry, err)
		}
		return err
	}

	h.updateStatus(p.SubmissionID, models.SubmissionSent, messageID, "")
	task.Result, _ = taskqueue.MarshalPayload(&taskqueue.ContactEmailResult{MessageID: messageID})
	log.WithField("message_id", messageID).Info("Contact email sent")
	return nil
}

func (h *EmailTaskHandler) updateStatus(id string, status models.SubmissionStatus, messageID, errMsg string) {
	if h.repo == nil || id == "" {
		return
	}
	if err := h.repo.UpdateStatus(id, status, messageID, errMsg); err != nil {
		h.logger.WithError(err).WithField("submission_id", id).Warn("Failed to update submission status")
	}
}
