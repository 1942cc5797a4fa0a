package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/fyerfyer/motorsport-site/api/middleware"
	"github.com/fyerfyer/motorsport-site/api/model"
	"github.com/fyerfyer/motorsport-site/internal/contact"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 请求体大小上限
const maxContactBodyBytes = 64 << 10

// ContactService 联系表单服务
type ContactService interface {
	Submit(ctx context.Context, req contact.Request) (*contact.Receipt, error)
	Status(ctx context.Context, id string) (*contact.Status, error)
}

// ContactHandler 处理联系表单请求
type ContactHandler struct {
	service ContactService
	logger  *logrus.Logger
}

// NewContactHandler 创建联系表单处理器
func NewContactHandler(service ContactService) *ContactHandler {
	return &ContactHandler{
		service: service,
		logger:  middleware.GetLogger(),
	}
}

// Submit 提交联系表单
// POST /api/contact
// 错误响应保持 {"error": "..."} 的扁平结构
func (h *ContactHandler) Submit(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxContactBodyBytes))
	if err != nil {
		h.fail(c, contact.ErrInvalidJSON)
		return
	}

	receipt, err := h.service.Submit(c.Request.Context(), contact.Request{
		Body:      body,
		RemoteIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"submission_id":         receipt.SubmissionID,
		"queued":                receipt.Queued,
		middleware.FieldTraceID: middleware.TraceID(c),
	}).Info("Contact form submitted")

	c.JSON(http.StatusOK, model.ContactResponse{
		Success: true,
		ID:      receipt.ID,
		Queued:  receipt.Queued,
	})
}

// Status 查询提交的投递状态
// GET /api/contact/:id
func (h *ContactHandler) Status(c *gin.Context) {
	st, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, contact.ErrSubmissionNotFound) {
			middleware.HandleError(c, middleware.NewNotFoundError(contact.ErrSubmissionNotFound.Message))
			return
		}
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(st))
}

func (h *ContactHandler) fail(c *gin.Context, err error) {
	var cerr *contact.Error
	if !errors.As(err, &cerr) {
		cerr = contact.ErrSendFailed
	}

	entry := h.logger.WithError(err).WithFields(logrus.Fields{
		middleware.FieldTraceID: middleware.TraceID(c),
		middleware.FieldStatus:  cerr.Status,
	})
	if cerr.Status >= http.StatusInternalServerError {
		entry.Error("Contact form submission failed")
	} else {
		entry.Warn("Contact form submission rejected")
	}

	c.JSON(cerr.Status, model.ContactErrorResponse{Error: cerr.Message})
}
