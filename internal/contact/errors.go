package contact

import (
	"fmt"
	"net/http"
)

// Error 可以直接返回给客户端的错误，Message 即响应中的 error 字段
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	// ErrMailerNotConfigured 未配置邮件服务密钥
	ErrMailerNotConfigured = &Error{http.StatusInternalServerError, "Email service is not configured"}
	// ErrSenderNotConfigured 未配置发件或收件地址
	ErrSenderNotConfigured = &Error{http.StatusInternalServerError, "RESEND_FROM_EMAIL and CONTACT_EMAIL must be set"}
	// ErrInvalidJSON 请求体不是合法JSON
	ErrInvalidJSON = &Error{http.StatusBadRequest, "Invalid JSON body"}
	// ErrInvalidFields 必填字段缺失或格式错误
	ErrInvalidFields = &Error{http.StatusBadRequest, "Missing or invalid fields: firstName, lastName, email, phone, details"}
	// ErrRecaptchaRequired 已启用人机验证但请求未携带token
	ErrRecaptchaRequired = &Error{http.StatusBadRequest, "reCAPTCHA verification required"}
	// ErrRecaptchaFailed 人机验证未通过
	ErrRecaptchaFailed = &Error{http.StatusBadRequest, "reCAPTCHA verification failed"}
	// ErrRecaptchaScoreTooLow 人机验证得分过低
	ErrRecaptchaScoreTooLow = &Error{http.StatusBadRequest, "reCAPTCHA score too low. Please try again."}
	// ErrSendFailed 发送失败且没有可用的错误信息
	ErrSendFailed = &Error{http.StatusInternalServerError, "Failed to send email"}
	// ErrSubmissionNotFound 提交记录不存在
	ErrSubmissionNotFound = &Error{http.StatusNotFound, "Submission not found"}
)

// MailerError 邮件服务返回的错误
type MailerError struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (e *MailerError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("mailer error %d (%s): %s", e.StatusCode, e.Name, e.Message)
	}
	return fmt.Sprintf("mailer error %d: %s", e.StatusCode, e.Message)
}

// Temporary 限流和服务端错误可以重试
func (e *MailerError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
