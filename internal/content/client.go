package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"
)

// Client 内容查询接口
// out 为结果的解码目标，结果为null时保持零值
type Client interface {
	Query(ctx context.Context, query string, params map[string]interface{}, out interface{}) error
}

// HTTPClient 通过HTTP查询接口执行GROQ查询
type HTTPClient struct {
	client *http.Client
	config *Config
	logger *logrus.Logger
}

// APIError 表示内容后端返回的错误
type APIError struct {
	StatusCode  int    `json:"status_code"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("content API error (status code: %d): %s - %s", e.StatusCode, e.Type, e.Description)
}

// Temporary 5xx和429可以重试
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// queryResponse 查询接口的响应信封
type queryResponse struct {
	Result json.RawMessage `json:"result"`
	Ms     int             `json:"ms"`
	Error  *struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	} `json:"error"`
}

// NewClient 创建内容查询客户端
func NewClient(config *Config, logger *logrus.Logger) (*HTTPClient, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		config: config,
		logger: logger,
	}, nil
}

// Query 执行GROQ查询
// 参数按 $name 形式以JSON编码放入查询串
func (c *HTTPClient) Query(ctx context.Context, query string, params map[string]interface{}, out interface{}) error {
	values := url.Values{}
	values.Set("query", query)
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode query param %s: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}
	endpoint := c.config.QueryURL() + "?" + values.Encode()

	var body []byte
	err := retry.Do(
		func() error {
			var err error
			body, err = c.do(ctx, endpoint)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.config.MaxRetries+1)),
		retry.Delay(c.config.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.WithFields(logrus.Fields{
				"attempt": n + 1,
				"error":   err.Error(),
			}).Warn("Content query attempt failed")
		}),
	)
	if err != nil {
		return err
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to unmarshal content response: %w", err)
	}
	if out == nil || len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to decode content result: %w", err)
	}
	return nil
}

// do 发送一次请求并返回响应体
func (c *HTTPClient) do(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Motorsport-Site-Go-Client/1.0")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Type: "queryError", Description: string(body)}
		var errResp queryResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
			apiErr.Type = errResp.Error.Type
			apiErr.Description = errResp.Error.Description
		}
		return nil, apiErr
	}

	return body, nil
}

// isRetryable 传输错误和临时性API错误可重试
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}
