// Package contact 实现联系表单：校验、人机验证、记录和邮件投递
package contact

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fyerfyer/motorsport-site/internal/models"
	"github.com/fyerfyer/motorsport-site/internal/repository"
	"github.com/fyerfyer/motorsport-site/pkg/taskqueue"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Config 投递配置
type Config struct {
	FromEmail string  // 发件地址
	ToEmail   string  // 收件地址
	Subject   string  // 邮件主题
	MinScore  float64 // 人机验证最低分
}

// Request 一次表单提交
type Request struct {
	Body      []byte
	RemoteIP  string
	UserAgent string
}

// Receipt 提交结果
type Receipt struct {
	ID           string // 同步发送时为邮件ID，异步时为提交ID
	SubmissionID string
	Queued       bool
}

// Status 提交记录的投递状态
type Status struct {
	ID        string                  `json:"id"`
	Status    models.SubmissionStatus `json:"status"`
	Attempts  int                     `json:"attempts"`
	CreatedAt time.Time               `json:"created_at"`
	SentAt    *time.Time              `json:"sent_at,omitempty"`
	LastError string                  `json:"last_error,omitempty"`
}

// Service 联系表单服务
type Service struct {
	cfg      Config
	mailer   Mailer
	verifier Verifier
	repo     repository.SubmissionRepository
	queue    taskqueue.Queue
	logger   *logrus.Logger
}

// Option 服务选项
type Option func(*Service)

// WithVerifier 启用人机验证
func WithVerifier(v Verifier) Option {
	return func(s *Service) {
		s.verifier = v
	}
}

// WithRepository 记录每次提交
func WithRepository(repo repository.SubmissionRepository) Option {
	return func(s *Service) {
		s.repo = repo
	}
}

// WithQueue 通过任务队列异步投递
func WithQueue(q taskqueue.Queue) Option {
	return func(s *Service) {
		s.queue = q
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService 创建联系表单服务，mailer 为 nil 表示邮件服务未配置
func NewService(cfg Config, mailer Mailer, opts ...Option) *Service {
	if cfg.MinScore == 0 {
		cfg.MinScore = DefaultMinScore
	}
	if cfg.Subject == "" {
		cfg.Subject = "Contact Form Submission"
	}
	s := &Service{
		cfg:    cfg,
		mailer: mailer,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit 处理一次表单提交
// 检查顺序：邮件配置、请求体、人机验证，之后记录并投递
func (s *Service) Submit(ctx context.Context, req Request) (*Receipt, error) {
	if s.mailer == nil {
		return nil, ErrMailerNotConfigured
	}
	if s.cfg.FromEmail == "" || s.cfg.ToEmail == "" {
		return nil, ErrSenderNotConfigured
	}

	form, err := DecodeForm(req.Body)
	if err != nil {
		return nil, err
	}

	score, err := s.verify(ctx, form, req.RemoteIP)
	if err != nil {
		return nil, err
	}

	sub := &models.ContactSubmission{
		ID:             uuid.New().String(),
		FirstName:      form.FirstName,
		LastName:       form.LastName,
		Email:          form.Email,
		Phone:          form.Phone,
		Company:        form.CompanyName(),
		Details:        form.Details,
		Status:         models.SubmissionQueued,
		RemoteIP:       req.RemoteIP,
		RecaptchaScore: score,
		Metadata:       metadata(req),
	}
	s.record(sub)

	email := &Email{
		From:           s.cfg.FromEmail,
		To:             s.cfg.ToEmail,
		ReplyTo:        form.Email,
		Subject:        s.cfg.Subject,
		Text:           FormatEmailBody(form),
		IdempotencyKey: sub.ID,
	}

	if s.queue != nil {
		taskID, err := s.queue.Enqueue(ctx, taskqueue.TaskContactEmail, sub.ID, payloadFromEmail(sub.ID, email))
		if err == nil {
			if s.repo != nil {
				if err := s.repo.SetTaskID(sub.ID, taskID); err != nil {
					s.logger.WithError(err).WithField("submission_id", sub.ID).Warn("Failed to store task id")
				}
			}
			return &Receipt{ID: sub.ID, SubmissionID: sub.ID, Queued: true}, nil
		}
		// 队列不可用时退回同步发送
		s.logger.WithError(err).WithField("submission_id", sub.ID).Warn("Failed to enqueue contact email, sending inline")
	}

	messageID, err := s.mailer.Send(ctx, email)
	if err != nil {
		s.logger.WithError(err).WithField("submission_id", sub.ID).Error("Failed to send contact email")
		s.updateStatus(sub.ID, models.SubmissionFailed, "", err.Error())

		var mErr *MailerError
		if errors.As(err, &mErr) && mErr.Message != "" {
			return nil, &Error{Status: ErrSendFailed.Status, Message: mErr.Message}
		}
		return nil, ErrSendFailed
	}

	s.updateStatus(sub.ID, models.SubmissionSent, messageID, "")
	s.logger.WithFields(logrus.Fields{
		"submission_id": sub.ID,
		"message_id":    messageID,
	}).Info("Contact email sent")

	return &Receipt{ID: messageID, SubmissionID: sub.ID}, nil
}

// Status 查询提交记录的投递状态
func (s *Service) Status(ctx context.Context, id string) (*Status, error) {
	if s.repo == nil {
		return nil, ErrSubmissionNotFound
	}
	sub, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, models.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	st := &Status{
		ID:        sub.ID,
		Status:    sub.Status,
		CreatedAt: sub.CreatedAt,
		SentAt:    sub.SentAt,
		LastError: sub.Error,
	}
	// 同步投递只尝试一次
	if sub.TaskID == "" && sub.Status != models.SubmissionQueued {
		st.Attempts = 1
	}
	if s.queue != nil && sub.TaskID != "" {
		tasks, err := s.queue.GetTasksByRef(ctx, sub.ID)
		if err != nil {
			s.logger.WithError(err).WithField("submission_id", sub.ID).Warn("Failed to load delivery tasks")
		}
		for _, t := range tasks {
			st.Attempts += t.Attempts
		}
	}
	return st, nil
}

// verify 执行人机验证，未启用时返回 nil 分数
func (s *Service) verify(ctx context.Context, form *Form, remoteIP string) (*float64, error) {
	if s.verifier == nil {
		return nil, nil
	}
	token := form.Token()
	if token == "" {
		return nil, ErrRecaptchaRequired
	}

	v, err := s.verifier.Verify(ctx, token, remoteIP)
	if err != nil {
		s.logger.WithError(err).Warn("reCAPTCHA verification request failed")
		return nil, ErrRecaptchaFailed
	}
	if !v.Success {
		s.logger.WithField("error_codes", v.ErrorCodes).Info("reCAPTCHA verification rejected")
		return nil, ErrRecaptchaFailed
	}

	score := v.ScoreOrZero()
	if score < s.cfg.MinScore {
		s.logger.WithField("score", score).Info("reCAPTCHA score below threshold")
		return nil, ErrRecaptchaScoreTooLow
	}
	return &score, nil
}

// record 保存提交记录，失败只记日志
func (s *Service) record(sub *models.ContactSubmission) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Create(sub); err != nil {
		s.logger.WithError(err).WithField("submission_id", sub.ID).Error("Failed to record contact submission")
	}
}

func (s *Service) updateStatus(id string, status models.SubmissionStatus, messageID, errMsg string) {
	if s.repo == nil {
		return
	}
	if err := s.repo.UpdateStatus(id, status, messageID, errMsg); err != nil {
		s.logger.WithError(err).WithField("submission_id", id).Warn("Failed to update submission status")
	}
}

func metadata(req Request) datatypes.JSON {
	if req.UserAgent == "" {
		return nil
	}
	data, err := json.Marshal(map[string]string{"user_agent": req.UserAgent})
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

func payloadFromEmail(submissionID string, e *Email) *taskqueue.ContactEmailPayload {
	return &taskqueue.ContactEmailPayload{
		SubmissionID: submissionID,
		From:         e.From,
		To:           e.To,
		ReplyTo:      e.ReplyTo,
		Subject:      e.Subject,
		Text:         e.Text,
	}
}
