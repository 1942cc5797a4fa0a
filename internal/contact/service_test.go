package contact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fyerfyer/motorsport-site/internal/database"
	"github.com/fyerfyer/motorsport-site/internal/models"
	"github.com/fyerfyer/motorsport-site/internal/repository"
	"github.com/fyerfyer/motorsport-site/pkg/taskqueue"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const validBody = `{"firstName":"Jane","lastName":"Doe","email":"jane@example.com","phone":"555-0100","company":"Acme","details":"Sponsorship inquiry","recaptchaToken":"tok"}`

// MockMailer 模拟邮件服务
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, email *Email) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

// MockVerifier 模拟人机验证
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token, remoteIP string) (*Verification, error) {
	args := m.Called(ctx, token, remoteIP)
	v, _ := args.Get(0).(*Verification)
	return v, args.Error(1)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() Config {
	return Config{
		FromEmail: "site@example.com",
		ToEmail:   "team@example.com",
		Subject:   "Torres Motorsports Contact Form Submission",
	}
}

func setupRepo(t *testing.T) repository.SubmissionRepository {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:contact_%d?mode=memory&cache=shared", time.Now().UnixNano())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return repository.NewSubmissionRepositoryWithDB(db)
}

func score(f float64) *float64 { return &f }

func TestSubmit_ConfigurationChecks(t *testing.T) {
	ctx := context.Background()

	_, err := NewService(testConfig(), nil).Submit(ctx, Request{Body: []byte(validBody)})
	assert.ErrorIs(t, err, ErrMailerNotConfigured)

	cfg := testConfig()
	cfg.ToEmail = ""
	_, err = NewService(cfg, &MockMailer{}).Submit(ctx, Request{Body: []byte(validBody)})
	assert.ErrorIs(t, err, ErrSenderNotConfigured)

	// 配置检查先于请求体解析
	_, err = NewService(testConfig(), nil).Submit(ctx, Request{Body: []byte(`{`)})
	assert.ErrorIs(t, err, ErrMailerNotConfigured)
}

func TestSubmit_SendsEmail(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(e *Email) bool {
		return e.From == "site@example.com" &&
			e.To == "team@example.com" &&
			e.ReplyTo == "jane@example.com" &&
			e.Subject == "Torres Motorsports Contact Form Submission" &&
			e.Text == "Name: Jane Doe\nEmail: jane@example.com\nPhone: 555-0100\nCompany: Acme\n\nMessage:\nSponsorship inquiry" &&
			e.IdempotencyKey != ""
	})).Return("email-1", nil).Once()

	repo := setupRepo(t)
	svc := NewService(testConfig(), mailer, WithRepository(repo), WithLogger(quietLogger()))

	receipt, err := svc.Submit(context.Background(), Request{Body: []byte(validBody), RemoteIP: "10.0.0.1", UserAgent: "test-agent"})
	require.NoError(t, err)
	assert.Equal(t, "email-1", receipt.ID)
	assert.False(t, receipt.Queued)
	mailer.AssertExpectations(t)

	sub, err := repo.GetByID(receipt.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSent, sub.Status)
	assert.Equal(t, "email-1", sub.MessageID)
	assert.Equal(t, "10.0.0.1", sub.RemoteIP)
	assert.Contains(t, string(sub.Metadata), "test-agent")

	st, err := svc.Status(context.Background(), receipt.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSent, st.Status)
	assert.Equal(t, 1, st.Attempts)
}

func TestSubmit_MailerErrors(t *testing.T) {
	ctx := context.Background()

	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything).Return("", &MailerError{StatusCode: 422, Message: "Invalid `from` field"}).Once()
	repo := setupRepo(t)
	svc := NewService(testConfig(), mailer, WithRepository(repo), WithLogger(quietLogger()))

	_, err := svc.Submit(ctx, Request{Body: []byte(validBody)})
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 500, ce.Status)
	assert.Equal(t, "Invalid `from` field", ce.Message)

	failed, total, err := repo.List(0, 10, map[string]interface{}{"status": models.SubmissionFailed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Contains(t, failed[0].Error, "Invalid `from` field")

	st, err := svc.Status(ctx, failed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionFailed, st.Status)
	assert.Equal(t, 1, st.Attempts)
	assert.Contains(t, st.LastError, "Invalid `from` field")

	mailer.On("Send", mock.Anything, mock.Anything).Return("", errors.New("connection reset")).Once()
	_, err = svc.Submit(ctx, Request{Body: []byte(validBody)})
	assert.ErrorIs(t, err, ErrSendFailed)
}

func TestSubmit_Recaptcha(t *testing.T) {
	ctx := context.Background()
	noToken := `{"firstName":"Jane","lastName":"Doe","email":"jane@example.com","phone":"555","details":"hi"}`

	tests := []struct {
		name    string
		body    string
		result  *Verification
		err     error
		wantErr error
	}{
		{"missing token", noToken, nil, nil, ErrRecaptchaRequired},
		{"not success", validBody, &Verification{Success: false}, nil, ErrRecaptchaFailed},
		{"verifier unreachable", validBody, nil, errors.New("timeout"), ErrRecaptchaFailed},
		{"low score", validBody, &Verification{Success: true, Score: score(0.3)}, nil, ErrRecaptchaScoreTooLow},
		{"no score counts as zero", validBody, &Verification{Success: true}, nil, ErrRecaptchaScoreTooLow},
		{"threshold score passes", validBody, &Verification{Success: true, Score: score(0.5)}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(MockVerifier)
			verifier.On("Verify", mock.Anything, "tok", "10.0.0.1").Return(tt.result, tt.err).Maybe()
			mailer := new(MockMailer)
			mailer.On("Send", mock.Anything, mock.Anything).Return("email-1", nil).Maybe()

			svc := NewService(testConfig(), mailer, WithVerifier(verifier), WithLogger(quietLogger()))
			receipt, err := svc.Submit(ctx, Request{Body: []byte(tt.body), RemoteIP: "10.0.0.1"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "email-1", receipt.ID)
		})
	}
}

func TestSubmit_Queued(t *testing.T) {
	mr := miniredis.RunT(t)
	q, err := taskqueue.NewRedisQueue(&taskqueue.Config{RedisAddr: mr.Addr(), RetryLimit: 3, Logger: quietLogger()})
	require.NoError(t, err)
	defer q.Close()

	mailer := new(MockMailer)
	repo := setupRepo(t)
	svc := NewService(testConfig(), mailer, WithRepository(repo), WithQueue(q), WithLogger(quietLogger()))
	ctx := context.Background()

	receipt, err := svc.Submit(ctx, Request{Body: []byte(validBody)})
	require.NoError(t, err)
	assert.True(t, receipt.Queued)
	assert.Equal(t, receipt.SubmissionID, receipt.ID)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)

	sub, err := repo.GetByID(receipt.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionQueued, sub.Status)
	require.NotEmpty(t, sub.TaskID)

	task, err := q.GetTask(ctx, sub.TaskID)
	require.NoError(t, err)
	var payload taskqueue.ContactEmailPayload
	require.NoError(t, taskqueue.UnmarshalPayload(task.Payload, &payload))
	assert.Equal(t, receipt.SubmissionID, payload.SubmissionID)
	assert.Equal(t, "jane@example.com", payload.ReplyTo)

	// worker 投递
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(e *Email) bool {
		return e.IdempotencyKey == receipt.SubmissionID
	})).Return("email-9", nil).Once()
	handler := NewEmailTaskHandler(mailer, repo, quietLogger())
	require.NoError(t, handler.ProcessTask(ctx, task))
	assert.Contains(t, string(task.Result), "email-9")

	require.NoError(t, q.UpdateTaskStatus(ctx, task.ID, taskqueue.StatusProcessing, nil, ""))
	st, err := svc.Status(ctx, receipt.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSent, st.Status)
	assert.Equal(t, 1, st.Attempts)
	assert.NotNil(t, st.SentAt)
}

func TestEmailTaskHandler_Failures(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	require.NoError(t, repo.Create(&models.ContactSubmission{
		ID: "sub-1", FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Phone: "555", Details: "hi",
	}))

	payload, err := taskqueue.MarshalPayload(&taskqueue.ContactEmailPayload{SubmissionID: "sub-1", To: "team@example.com"})
	require.NoError(t, err)
	task := &taskqueue.Task{ID: "task-1", Type: taskqueue.TaskContactEmail, Payload: payload}

	t.Run("permanent error skips retry", func(t *testing.T) {
		mailer := new(MockMailer)
		mailer.On("Send", mock.Anything, mock.Anything).Return("", &MailerError{StatusCode: 403, Message: "domain not verified"})
		err := NewEmailTaskHandler(mailer, repo, quietLogger()).ProcessTask(ctx, task)
		assert.ErrorIs(t, err, taskqueue.SkipRetry)

		sub, err := repo.GetByID("sub-1")
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionFailed, sub.Status)
	})

	t.Run("temporary error on last attempt", func(t *testing.T) {
		mailer := new(MockMailer)
		mailer.On("Send", mock.Anything, mock.Anything).Return("", &MailerError{StatusCode: 503, Message: "unavailable"})
		err := NewEmailTaskHandler(mailer, repo, quietLogger()).ProcessTask(ctx, task)
		require.Error(t, err)
		assert.NotErrorIs(t, err, taskqueue.SkipRetry)
	})

	t.Run("invalid payload", func(t *testing.T) {
		err := NewEmailTaskHandler(new(MockMailer), nil, quietLogger()).ProcessTask(ctx, &taskqueue.Task{ID: "t"})
		assert.ErrorIs(t, err, taskqueue.SkipRetry)
	})
}

func TestStatus_NotFound(t *testing.T) {
	svc := NewService(testConfig(), &MockMailer{}, WithRepository(setupRepo(t)))
	_, err := svc.Status(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSubmissionNotFound)

	_, err = NewService(testConfig(), &MockMailer{}).Status(context.Background(), "x")
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}
