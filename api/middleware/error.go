package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/fyerfyer/motorsport-site/api/model"
	"github.com/fyerfyer/motorsport-site/internal/content"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 定义应用中的错误类型常量
const (
	ErrorTypeValidation = "VALIDATION_ERROR" // 输入验证错误
	ErrorTypeNotFound   = "NOT_FOUND_ERROR"  // 资源不存在错误
	ErrorTypeInternal   = "INTERNAL_ERROR"   // 内部服务器错误
	ErrorTypeUpstream   = "UPSTREAM_ERROR"   // 内容后端等上游服务错误
)

// AppError 应用错误结构体
type AppError struct {
	Type    string // 错误类型
	Message string // 错误消息
	Details string // 详细错误信息
	Code    int    // 错误代码
}

// Error 实现error接口的方法
func (e AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewValidationError 创建输入验证错误
func NewValidationError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadRequest,
	}
}

// NewNotFoundError 创建资源不存在错误
func NewNotFoundError(message string) AppError {
	return AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
		Code:    http.StatusNotFound,
	}
}

// NewInternalError 创建内部服务器错误
func NewInternalError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusInternalServerError,
	}
}

// NewUpstreamError 创建上游服务错误
func NewUpstreamError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeUpstream,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadGateway,
	}
}

// FromError 将领域错误映射为应用错误
func FromError(err error) AppError {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var appErrPtr *AppError
	if errors.As(err, &appErrPtr) {
		return *appErrPtr
	}
	if errors.Is(err, content.ErrNotFound) {
		return NewNotFoundError("Content not found")
	}
	var apiErr *content.APIError
	if errors.As(err, &apiErr) {
		return NewUpstreamError("Content backend error", apiErr.Error())
	}
	return NewInternalError("Internal server error", err.Error())
}

// ErrorMiddleware 统一错误处理中间件
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 捕获 panic
		defer func() {
			if err := recover(); err != nil {
				log.WithFields(logrus.Fields{
					"error": err,
					"stack": string(debug.Stack()),
					"path":  c.Request.URL.Path,
				}).Error("Panic recovered in API request")

				errorResponse := model.NewErrorResponse(
					http.StatusInternalServerError,
					"An unexpected error occurred",
				)

				// 在开发环境中可以返回详细错误
				if gin.Mode() == gin.DebugMode {
					errorResponse.Message = fmt.Sprintf("Panic: %v", err)
				}
				errorResponse.TraceID = TraceID(c)

				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse)
			}
		}()

		c.Next()

		// 处理器已经写出响应时不再覆盖
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		traceID := TraceID(c)
		appErr := FromError(err)

		entry := log.WithFields(logrus.Fields{
			"error_type": appErr.Type,
			FieldTraceID: traceID,
			FieldPath:    c.Request.URL.Path,
		})
		if appErr.Code >= http.StatusInternalServerError {
			entry.WithError(err).Error(appErr.Message)
		} else {
			entry.Warn(appErr.Message)
		}

		errResp := model.NewErrorResponse(appErr.Code, appErr.Message)
		errResp.TraceID = traceID

		// 在开发环境下显示具体错误信息
		if gin.Mode() == gin.DebugMode && appErr.Details != "" {
			errResp.Message = appErr.Error()
		}

		c.AbortWithStatusJSON(appErr.Code, errResp)
	}
}

// HandleError 在处理器中使用的错误处理辅助函数
func HandleError(c *gin.Context, err error) {
	// 添加错误到上下文中
	_ = c.Error(err)
}
