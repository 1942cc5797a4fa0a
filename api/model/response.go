package model

import (
	"github.com/fyerfyer/motorsport-site/internal/richtext"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// BioResponse 简介切分结果
type BioResponse struct {
	Heading  string            `json:"heading"`   // 标题
	Before   richtext.Document `json:"before"`    // 始终显示的部分
	After    richtext.Document `json:"after"`     // 折叠部分，可能为空
	HasMore  bool              `json:"has_more"`  // 是否显示"阅读更多"
	MaxChars int               `json:"max_chars"` // 切分使用的字符上限
}

// ContactResponse 联系表单提交成功响应
// 保持表单前端期望的扁平结构
type ContactResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Queued  bool   `json:"queued,omitempty"`
}

// ContactErrorResponse 联系表单错误响应
type ContactErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}
