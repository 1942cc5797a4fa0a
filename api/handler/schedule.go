package handler

import (
	"net/http"

	"github.com/fyerfyer/motorsport-site/api/middleware"
	"github.com/fyerfyer/motorsport-site/internal/schedule"
	"github.com/gin-gonic/gin"
)

// SchedulePDF 可打印的赛程表
// GET /schedule.pdf
func (h *PageHandler) SchedulePDF(c *gin.Context) {
	page, err := h.content.HomePage(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	events := make([]schedule.Event, 0, len(page.ScheduleEvents))
	for _, ev := range page.ScheduleEvents {
		events = append(events, schedule.Event{
			RaceName:  ev.RaceName,
			StartDate: ev.StartDate,
			EndDate:   ev.EndDate,
		})
	}

	pdf, err := schedule.RenderPDF(events, schedule.PDFOptions{Team: h.views.SiteName()})
	if err != nil {
		middleware.HandleError(c, middleware.NewInternalError("Failed to render schedule", err.Error()))
		return
	}

	c.Header("Content-Disposition", `inline; filename="schedule.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
