package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultRecaptchaEndpoint reCAPTCHA 校验接口
const DefaultRecaptchaEndpoint = "https://www.google.com/recaptcha/api/siteverify"

// DefaultMinScore 低于此分数的请求视为机器人
const DefaultMinScore = 0.5

// Verification 校验结果
type Verification struct {
	Success    bool     `json:"success"`
	Score      *float64 `json:"score,omitempty"`
	Action     string   `json:"action,omitempty"`
	Hostname   string   `json:"hostname,omitempty"`
	ErrorCodes []string `json:"error-codes,omitempty"`
}

// ScoreOrZero 没有分数时按0处理
func (v *Verification) ScoreOrZero() float64 {
	if v.Score == nil {
		return 0
	}
	return *v.Score
}

// Verifier 人机验证接口
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (*Verification, error)
}

// RecaptchaVerifier 调用 Google siteverify 接口
type RecaptchaVerifier struct {
	secret   string
	endpoint string
	client   *http.Client
}

// NewRecaptchaVerifier 创建校验器，endpoint 为空时使用默认地址
func NewRecaptchaVerifier(secret, endpoint string) *RecaptchaVerifier {
	if endpoint == "" {
		endpoint = DefaultRecaptchaEndpoint
	}
	return &RecaptchaVerifier{
		secret:   secret,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify 以表单方式提交 secret 和 token
func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) (*Verification, error) {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call recaptcha: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recaptcha returned status %d", resp.StatusCode)
	}

	var out Verification
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode recaptcha response: %w", err)
	}
	return &out, nil
}
