package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultResendEndpoint Resend 发信接口
const DefaultResendEndpoint = "https://api.resend.com/emails"

// Email 待发送的邮件
type Email struct {
	From           string
	To             string
	ReplyTo        string
	Subject        string
	Text           string
	IdempotencyKey string // 同一个key重复发送只投递一次
}

// Mailer 邮件发送接口，返回服务端的消息ID
type Mailer interface {
	Send(ctx context.Context, email *Email) (string, error)
}

// ResendMailer 通过 Resend HTTP API 发送邮件
type ResendMailer struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// MailerOption ResendMailer 选项
type MailerOption func(*ResendMailer)

// WithEndpoint 覆盖发信接口地址
func WithEndpoint(endpoint string) MailerOption {
	return func(m *ResendMailer) {
		m.endpoint = endpoint
	}
}

// WithHTTPClient 使用自定义HTTP客户端
func WithHTTPClient(client *http.Client) MailerOption {
	return func(m *ResendMailer) {
		m.client = client
	}
}

// NewResendMailer 创建 Resend 邮件客户端
func NewResendMailer(apiKey string, opts ...MailerOption) *ResendMailer {
	m := &ResendMailer{
		apiKey:   apiKey,
		endpoint: DefaultResendEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// Send 发送邮件
func (m *ResendMailer) Send(ctx context.Context, email *Email) (string, error) {
	body, err := json.Marshal(resendRequest{
		From:    email.From,
		To:      []string{email.To},
		ReplyTo: email.ReplyTo,
		Subject: email.Subject,
		Text:    email.Text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if email.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", email.IdempotencyKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call mailer: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read mailer response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		mErr := &MailerError{StatusCode: resp.StatusCode}
		if json.Unmarshal(data, mErr) != nil || mErr.Message == "" {
			mErr.Message = http.StatusText(resp.StatusCode)
		}
		// 响应体里的 statusCode 可能缺失
		mErr.StatusCode = resp.StatusCode
		return "", mErr
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("failed to decode mailer response: %w", err)
	}
	return out.ID, nil
}
