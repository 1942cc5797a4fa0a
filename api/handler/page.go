package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fyerfyer/motorsport-site/api/middleware"
	"github.com/fyerfyer/motorsport-site/api/model"
	"github.com/fyerfyer/motorsport-site/internal/content"
	"github.com/fyerfyer/motorsport-site/internal/richtext"
	"github.com/fyerfyer/motorsport-site/internal/view"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ContentSource 页面所需的内容查询
type ContentSource interface {
	HomePage(ctx context.Context) (*content.HomePage, error)
	SiteSettings(ctx context.Context) (*content.SiteSettings, error)
	LegalPageWithSettings(ctx context.Context, slug string) (*content.LegalPage, *content.SiteSettings, error)
	LegalPageSlugs(ctx context.Context) ([]content.SitemapEntry, error)
	Invalidate() error
}

// PageHandler 渲染站点页面
type PageHandler struct {
	content ContentSource // 内容服务
	views   *view.Builder // 页面数据组装
	logger  *logrus.Logger
}

// NewPageHandler 创建页面处理器
func NewPageHandler(source ContentSource, views *view.Builder) *PageHandler {
	return &PageHandler{
		content: source,
		views:   views,
		logger:  middleware.GetLogger(),
	}
}

// Home 首页
// GET /
func (h *PageHandler) Home(c *gin.Context) {
	page, err := h.content.HomePage(c.Request.Context())
	if err != nil {
		h.renderError(c, err, "Failed to load home page")
		return
	}

	data, err := h.views.Home(page)
	if err != nil {
		h.renderError(c, err, "Failed to build home page")
		return
	}

	c.HTML(http.StatusOK, "home.html", data)
}

// Legal 法律条款页面
// GET /:slug
func (h *PageHandler) Legal(c *gin.Context) {
	slug := c.Param("slug")

	page, settings, err := h.content.LegalPageWithSettings(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			h.NotFound(c)
			return
		}
		h.renderError(c, err, "Failed to load legal page")
		return
	}

	data, err := h.views.Legal(page, settings)
	if err != nil {
		h.renderError(c, err, "Failed to build legal page")
		return
	}

	c.HTML(http.StatusOK, "legal.html", data)
}

// NotFound 未匹配的路由
// API路径返回JSON，其余返回404页面
func (h *PageHandler) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		middleware.HandleError(c, middleware.NewNotFoundError("Resource not found"))
		return
	}

	// 站点设置只影响页眉页脚，取不到时照常渲染
	settings, err := h.content.SiteSettings(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Warn("Failed to load site settings for 404 page")
	}
	c.HTML(http.StatusNotFound, "not_found.html", h.views.NotFound(settings))
}

// Bio 返回简介正文的切分结果
// GET /api/bio?max_chars=N
func (h *PageHandler) Bio(c *gin.Context) {
	maxChars := h.views.BioMaxChars()
	if raw := c.Query("max_chars"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			middleware.HandleError(c, middleware.NewValidationError("Invalid max_chars", raw))
			return
		}
		maxChars = n
	}

	page, err := h.content.HomePage(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if page.Bio == nil {
		middleware.HandleError(c, middleware.NewNotFoundError("Bio not found"))
		return
	}

	// 默认阈值走带缓存的切分
	var split richtext.SplitResult
	if maxChars == h.views.BioMaxChars() {
		split = h.views.SplitBio(page.Bio)
	} else {
		split = richtext.Split(page.Bio.Body, maxChars)
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.BioResponse{
		Heading:  page.Bio.Heading,
		Before:   split.Before,
		After:    split.After,
		HasMore:  split.HasMore(),
		MaxChars: maxChars,
	}))
}

// Revalidate 清除内容缓存
// POST /api/revalidate
func (h *PageHandler) Revalidate(c *gin.Context) {
	if err := h.content.Invalidate(); err != nil {
		middleware.HandleError(c, middleware.NewInternalError("Failed to clear content cache", err.Error()))
		return
	}
	h.logger.WithField(middleware.FieldTraceID, middleware.TraceID(c)).Info("Content cache cleared")
	c.JSON(http.StatusOK, model.NewSuccessResponse(gin.H{"revalidated": true}))
}

// renderError 记录错误并渲染错误页面
func (h *PageHandler) renderError(c *gin.Context, err error, msg string) {
	traceID := middleware.TraceID(c)
	h.logger.WithError(err).WithFields(logrus.Fields{
		middleware.FieldTraceID: traceID,
		middleware.FieldPath:    c.Request.URL.Path,
	}).Error(msg)

	status := middleware.FromError(err).Code
	if status < http.StatusInternalServerError {
		status = http.StatusInternalServerError
	}
	c.HTML(status, "error.html", h.views.Error(traceID))
}
