package handler

import (
	"github.com/gin-gonic/gin"
	apporder "github.com/orderdesk/backend/internal/application/order"
)

// ReportHandler serves report figures over a view's displayed rows.
type ReportHandler struct {
	BaseHandler
	reports *apporder.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports *apporder.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Summary returns the status counts.
// GET /views/:view/reports/summary
func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.reports.Summary(c.Request.Context(), currentUser(c), currentView(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Charts returns the chart series.
// GET /views/:view/reports/charts
func (h *ReportHandler) Charts(c *gin.Context) {
	charts, err := h.reports.Charts(c.Request.Context(), currentUser(c), currentView(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, charts)
}

// Prefill suggests order fields from recognized invoice text.
// POST /orders/prefill
func (h *ReportHandler) Prefill(c *gin.Context) {
	var req apporder.PrefillRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.Success(c, h.reports.Prefill(req))
}
