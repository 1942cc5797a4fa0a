package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/fyerfyer/motorsport-site/api/model"
	"github.com/gin-gonic/gin"
)

// HealthCheck 单个依赖的检查函数
type HealthCheck func(ctx context.Context) error

// HealthHandler 健康检查
type HealthHandler struct {
	checks map[string]HealthCheck
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health 返回各依赖的状态，任一失败时返回503
// GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	resp := model.HealthResponse{Status: "ok"}
	code := http.StatusOK
	if len(h.checks) > 0 {
		resp.Services = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Services[name] = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Services[name] = "ok"
	}

	c.JSON(code, resp)
}
