package content

import (
	"fmt"
	"time"
)

// Config 内容后端连接配置
type Config struct {
	ProjectID  string        // 项目ID
	Dataset    string        // 数据集名称
	APIVersion string        // API版本，形如 2024-01-01
	UseCDN     bool          // 是否走CDN接口
	Token      string        // 读取令牌（可选，私有数据集需要）
	BaseURL    string        // 覆盖默认接口地址，测试时使用
	Timeout    time.Duration // 请求超时时间
	MaxRetries int           // 最大重试次数
	RetryDelay time.Duration // 重试间隔
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Dataset:    "production",
		APIVersion: "2024-01-01",
		UseCDN:     true,
		Timeout:    10 * time.Second,
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
	}
}

// WithProject 设置项目和数据集
func (c *Config) WithProject(projectID, dataset string) *Config {
	c.ProjectID = projectID
	c.Dataset = dataset
	return c
}

// WithBaseURL 设置接口地址
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithRetry 设置重试参数
func (c *Config) WithRetry(maxRetries int, retryDelay time.Duration) *Config {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
	return c
}

// WithToken 设置读取令牌
func (c *Config) WithToken(token string) *Config {
	c.Token = token
	return c
}

// QueryURL 返回查询接口地址
// 带令牌的请求不走CDN
func (c *Config) QueryURL() string {
	base := c.BaseURL
	if base == "" {
		host := "api.sanity.io"
		if c.UseCDN && c.Token == "" {
			host = "apicdn.sanity.io"
		}
		base = fmt.Sprintf("https://%s.%s", c.ProjectID, host)
	}
	return fmt.Sprintf("%s/v%s/data/query/%s", base, c.APIVersion, c.Dataset)
}

// Validate 检查必填项
func (c *Config) Validate() error {
	if c.BaseURL == "" && c.ProjectID == "" {
		return fmt.Errorf("content project id is required")
	}
	if c.Dataset == "" {
		return fmt.Errorf("content dataset is required")
	}
	if c.APIVersion == "" {
		return fmt.Errorf("content api version is required")
	}
	return nil
}
