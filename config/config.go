package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用程序配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Site     SiteConfig     `mapstructure:"site"`
	Sanity   SanityConfig   `mapstructure:"sanity"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Contact  ContactConfig  `mapstructure:"contact"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`          // 服务器主机
	Port         int           `mapstructure:"port"`          // 服务器端口
	Mode         string        `mapstructure:"mode"`          // gin运行模式：debug 或 release
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`  // 读取超时
	WriteTimeout time.Duration `mapstructure:"write_timeout"` // 写入超时
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`        // 日志级别
	File       string `mapstructure:"file"`         // 日志文件，为空时只输出到标准输出
	MaxSizeMB  int    `mapstructure:"max_size_mb"`  // 单个日志文件大小
	MaxBackups int    `mapstructure:"max_backups"`  // 保留的旧日志文件数
	MaxAgeDays int    `mapstructure:"max_age_days"` // 旧日志保留天数
}

// SiteConfig 站点配置
type SiteConfig struct {
	Name            string        `mapstructure:"name"`             // 站点名称
	BaseURL         string        `mapstructure:"base_url"`         // 站点地址，用于站点地图
	BioMaxChars     int           `mapstructure:"bio_max_chars"`    // 简介折叠前显示的字符数
	Revalidate      time.Duration `mapstructure:"revalidate"`       // 内容缓存时间
	RevalidateToken string        `mapstructure:"revalidate_token"` // 清除缓存接口的令牌
}

// SanityConfig 内容后端配置
type SanityConfig struct {
	ProjectID  string        `mapstructure:"project_id"`  // 项目ID
	Dataset    string        `mapstructure:"dataset"`     // 数据集
	APIVersion string        `mapstructure:"api_version"` // API版本
	UseCDN     bool          `mapstructure:"use_cdn"`     // 是否走CDN
	Token      string        `mapstructure:"token"`       // 读取令牌
	Timeout    time.Duration `mapstructure:"timeout"`     // 请求超时
	MaxRetries int           `mapstructure:"max_retries"` // 最大重试次数
	RetryDelay time.Duration `mapstructure:"retry_delay"` // 重试间隔
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Enable    bool   `mapstructure:"enable"`     // 是否启用缓存
	Type      string `mapstructure:"type"`       // 缓存类型：memory 或 redis
	Address   string `mapstructure:"address"`    // Redis地址
	Password  string `mapstructure:"password"`   // Redis密码
	DB        int    `mapstructure:"db"`         // Redis数据库
	KeyPrefix string `mapstructure:"key_prefix"` // 键前缀
}

// StorageConfig 快照存储配置
type StorageConfig struct {
	Enable    bool   `mapstructure:"enable"`   // 是否保存首页快照
	Type      string `mapstructure:"type"`     // 存储类型：local 或 minio
	Path      string `mapstructure:"path"`     // 本地存储路径
	Bucket    string `mapstructure:"bucket"`   // MinIO桶名称
	Endpoint  string `mapstructure:"endpoint"` // MinIO端点
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"` // 是否使用SSL
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enable bool   `mapstructure:"enable"` // 是否记录联系表单提交
	Type   string `mapstructure:"type"`   // 数据库类型
	DSN    string `mapstructure:"dsn"`    // 数据源名称
}

// QueueConfig 任务队列配置
type QueueConfig struct {
	Enable        bool          `mapstructure:"enable"`         // 是否异步投递邮件
	Type          string        `mapstructure:"type"`           // 队列类型
	RedisAddr     string        `mapstructure:"redis_addr"`     // Redis地址
	RedisPassword string        `mapstructure:"redis_password"` // Redis密码
	RedisDB       int           `mapstructure:"redis_db"`       // Redis数据库编号
	Concurrency   int           `mapstructure:"concurrency"`    // 任务处理并发数
	RetryLimit    int           `mapstructure:"retry_limit"`    // 任务最大重试次数
	RetryDelay    time.Duration `mapstructure:"retry_delay"`    // 重试延迟
}

// ContactConfig 联系表单配置
type ContactConfig struct {
	ResendAPIKey     string  `mapstructure:"resend_api_key"`     // 邮件服务密钥
	FromEmail        string  `mapstructure:"from_email"`         // 发件地址
	ToEmail          string  `mapstructure:"to_email"`           // 收件地址
	Subject          string  `mapstructure:"subject"`            // 邮件主题
	RecaptchaSecret  string  `mapstructure:"recaptcha_secret"`   // reCAPTCHA服务端密钥，为空时不校验
	RecaptchaSiteKey string  `mapstructure:"recaptcha_site_key"` // reCAPTCHA站点密钥
	MinScore         float64 `mapstructure:"min_score"`          // 最低得分
}

// Load 从文件和环境变量加载配置
func Load(configPath string) (*Config, error) {
	var config Config

	// 设置默认配置路径
	if configPath == "" {
		configPath = "config.yaml"
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件不存在时写出一份默认配置
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: Config file not found at %s, using defaults", configPath)
			if err := os.MkdirAll(filepath.Dir(configPath), 0755); err == nil {
				if err := v.WriteConfigAs(configPath); err != nil {
					log.Printf("Warning: Could not write default config to %s: %v", configPath, err)
				}
			}
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		log.Printf("Using config file: %s", v.ConfigFileUsed())
	}

	// 支持环境变量覆盖，例如 SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	processEnvironmentVariables(&config)
	applyLegacyEnv(&config)

	return &config, nil
}

// processEnvironmentVariables 展开配置值中的 ${VAR} 引用
func processEnvironmentVariables(cfg *Config) {
	for _, field := range []*string{
		&cfg.Sanity.ProjectID,
		&cfg.Sanity.Token,
		&cfg.Cache.Password,
		&cfg.Storage.AccessKey,
		&cfg.Storage.SecretKey,
		&cfg.Queue.RedisPassword,
		&cfg.Contact.ResendAPIKey,
		&cfg.Contact.FromEmail,
		&cfg.Contact.ToEmail,
		&cfg.Contact.RecaptchaSecret,
		&cfg.Contact.RecaptchaSiteKey,
		&cfg.Site.RevalidateToken,
	} {
		*field = expandEnv(*field)
	}
}

// expandEnv 展开 ${VAR}，变量未设置时置空
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	return s
}

// applyLegacyEnv 兼容部署环境中已有的变量名，仅在配置为空时生效
func applyLegacyEnv(cfg *Config) {
	fill := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fill(&cfg.Contact.ResendAPIKey, "RESEND_API_KEY")
	fill(&cfg.Contact.FromEmail, "RESEND_FROM_EMAIL")
	fill(&cfg.Contact.ToEmail, "CONTACT_EMAIL")
	fill(&cfg.Contact.RecaptchaSecret, "RECAPTCHA_SECRET_KEY")
	fill(&cfg.Contact.RecaptchaSiteKey, "NEXT_PUBLIC_RECAPTCHA_SITE_KEY")
	fill(&cfg.Sanity.ProjectID, "NEXT_PUBLIC_SANITY_PROJECT_ID")
	fill(&cfg.Sanity.Token, "SANITY_API_TOKEN")
}

// setDefaults 设置配置的默认值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	// 站点默认配置
	v.SetDefault("site.name", "Torres Motorsports")
	v.SetDefault("site.base_url", "https://torresmotorsports.com")
	v.SetDefault("site.bio_max_chars", 1516)
	v.SetDefault("site.revalidate", "60s")
	v.SetDefault("site.revalidate_token", "")

	// 内容后端默认配置
	v.SetDefault("sanity.project_id", "${SANITY_PROJECT_ID}")
	v.SetDefault("sanity.dataset", "production")
	v.SetDefault("sanity.api_version", "2024-01-01")
	v.SetDefault("sanity.use_cdn", true)
	v.SetDefault("sanity.token", "")
	v.SetDefault("sanity.timeout", "10s")
	v.SetDefault("sanity.max_retries", 3)
	v.SetDefault("sanity.retry_delay", "500ms")

	// 缓存默认配置
	v.SetDefault("cache.enable", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.key_prefix", "site")

	// 快照存储默认配置
	v.SetDefault("storage.enable", true)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.path", "./data/snapshots")
	v.SetDefault("storage.bucket", "site-snapshots")
	v.SetDefault("storage.use_ssl", false)

	// 数据库默认配置
	v.SetDefault("database.enable", true)
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "data/site.db")

	// 队列默认配置
	v.SetDefault("queue.enable", false)
	v.SetDefault("queue.type", "redis")
	v.SetDefault("queue.redis_addr", "localhost:6379")
	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("queue.concurrency", 4)
	v.SetDefault("queue.retry_limit", 5)
	v.SetDefault("queue.retry_delay", "30s")

	// 联系表单默认配置
	v.SetDefault("contact.resend_api_key", "${RESEND_API_KEY}")
	v.SetDefault("contact.from_email", "${RESEND_FROM_EMAIL}")
	v.SetDefault("contact.to_email", "${CONTACT_EMAIL}")
	v.SetDefault("contact.subject", "Torres Motorsports Contact Form Submission")
	v.SetDefault("contact.recaptcha_secret", "${RECAPTCHA_SECRET_KEY}")
	v.SetDefault("contact.recaptcha_site_key", "")
	v.SetDefault("contact.min_score", 0.5)
}
