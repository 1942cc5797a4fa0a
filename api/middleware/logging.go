package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log = logrus.New()

// 初始化日志配置
func init() {
	// 设置输出到标准输出
	log.SetOutput(os.Stdout)
	// 设置日志格式为JSON格式
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	// 根据环境变量设置日志级别
	if os.Getenv("DEBUG") == "true" {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

// LogFileConfig 日志文件输出配置
type LogFileConfig struct {
	Path       string // 日志文件路径，为空时只输出到标准输出
	MaxSizeMB  int    // 单个文件最大大小
	MaxBackups int    // 保留的旧文件数
	MaxAgeDays int    // 旧文件保留天数
}

// ConfigureLogger 设置日志级别和输出
// 配置了文件路径时同时写入标准输出和滚动日志文件
func ConfigureLogger(level string, file LogFileConfig) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if file.Path == "" {
		log.SetOutput(os.Stdout)
		return log, nil
	}

	if err := os.MkdirAll(filepath.Dir(file.Path), 0755); err != nil {
		return log, err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   file.Path,
		MaxSize:    file.MaxSizeMB,
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays,
		Compress:   true,
	}))
	return log, nil
}

// Logger 日志中间件
// 5xx 记为 Error，4xx 记为 Warn，静态资源只在 debug 级别记录
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			FieldStatus:   status,
			FieldLatency:  time.Since(start).String(),
			FieldClientIP: c.ClientIP(),
			FieldMethod:   c.Request.Method,
			FieldPath:     path,
			"user_agent":  c.Request.UserAgent(),
		})
		if traceID := TraceID(c); traceID != "" {
			entry = entry.WithField(FieldTraceID, traceID)
		}
		if slug := c.Param("slug"); slug != "" {
			entry = entry.WithField(FieldSlug, slug)
		}

		switch {
		case status >= 500:
			entry.Error("HTTP request")
		case status >= 400:
			entry.Warn("HTTP request")
		case strings.HasPrefix(path, "/static/"):
			entry.Debug("HTTP request")
		default:
			entry.Info("HTTP request")
		}
	}
}

// 请求体中不落日志的字段，联系表单里的个人信息和人机验证令牌
var redactedFields = map[string]bool{
	"email":          true,
	"phone":          true,
	"recaptchaToken": true,
}

// RequestBodyLog 请求体日志中间件
// 在DEBUG模式下记录JSON请求体，敏感字段替换为占位符
func RequestBodyLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		if log.Level < logrus.DebugLevel || c.Request.Body == nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		if err == nil && len(body) > 0 {
			log.WithFields(logrus.Fields{
				FieldMethod: c.Request.Method,
				FieldPath:   c.Request.URL.Path,
				"body":      redactBody(body),
			}).Debug("Request body")
		}

		c.Next()
	}
}

// redactBody 遮盖JSON对象中的敏感字段，非JSON内容只记录长度
func redactBody(body []byte) string {
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return fmt.Sprintf("<%d bytes>", len(body))
	}
	for k := range fields {
		if redactedFields[k] {
			fields[k] = "[redacted]"
		}
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return fmt.Sprintf("<%d bytes>", len(body))
	}
	return string(out)
}

// ResponseLogger 响应日志中间件
// 只记录JSON响应，页面和PDF不记录
func ResponseLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if log.Level < logrus.DebugLevel {
			c.Next()
			return
		}

		writer := &responseBodyWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer

		c.Next()

		if !strings.HasPrefix(writer.Header().Get("Content-Type"), "application/json") {
			return
		}
		log.WithFields(logrus.Fields{
			FieldMethod: c.Request.Method,
			FieldPath:   c.Request.URL.Path,
			FieldStatus: c.Writer.Status(),
			"response":  writer.body.String(),
		}).Debug("Response body")
	}
}

// responseBodyWriter 自定义的响应写入器
// 用于捕获响应体内容
type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 重写Write方法，将响应体同时写入buffer
func (r *responseBodyWriter) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

const (
	traceIDHeader = "X-Trace-ID"
	traceIDKey    = "TraceID"
)

// SetTraceID 将追踪ID设置到上下文和响应头中
// 上游带来的ID过长或为空时重新生成
func SetTraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceIDHeader)
		if traceID == "" || len(traceID) > 64 {
			traceID = uuid.New().String()
		}

		c.Set(traceIDKey, traceID)
		c.Header(traceIDHeader, traceID)
		c.Next()
	}
}

// TraceID 返回当前请求的追踪ID，错误页上展示给访客
func TraceID(c *gin.Context) string {
	if v, ok := c.Get(traceIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// 常用日志字段
const (
	FieldTraceID  = "trace_id"    // 追踪ID
	FieldSlug     = "slug"        // 页面路径片段
	FieldPath     = "path"        // 请求路径
	FieldMethod   = "method"      // 请求方法
	FieldStatus   = "status_code" // 状态码
	FieldLatency  = "latency"     // 延迟时间
	FieldClientIP = "client_ip"   // 客户端IP
	FieldError    = "error"       // 错误信息
)

// GetLogger 返回进程共用的日志记录器
func GetLogger() *logrus.Logger {
	return log
}
