package handler

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apporder "github.com/orderdesk/backend/internal/application/order"
	"github.com/orderdesk/backend/internal/interfaces/http/middleware"
)

// ExportObserver counts generated exports by format.
type ExportObserver interface {
	ObserveExport(format string)
}

type nopExportObserver struct{}

func (nopExportObserver) ObserveExport(string) {}

// ExportHandler streams generated files of a view.
type ExportHandler struct {
	BaseHandler
	exports  *apporder.ExportService
	observer ExportObserver
}

// NewExportHandler creates a new ExportHandler. observer may be nil.
func NewExportHandler(exports *apporder.ExportService, observer ExportObserver) *ExportHandler {
	if observer == nil {
		observer = nopExportObserver{}
	}
	return &ExportHandler{exports: exports, observer: observer}
}

// CSV downloads the displayed rows as CSV.
// GET /views/:view/exports/csv
func (h *ExportHandler) CSV(c *gin.Context) {
	f, err := h.exports.CSV(c.Request.Context(), currentUser(c), currentView(c))
	h.send(c, "csv", f, err)
}

// XLSX downloads the displayed rows as a workbook.
// GET /views/:view/exports/xlsx
func (h *ExportHandler) XLSX(c *gin.Context) {
	f, err := h.exports.XLSX(c.Request.Context(), currentUser(c), currentView(c))
	h.send(c, "xlsx", f, err)
}

// StatusReportPDF downloads the PDF report of one status.
// GET /views/:view/exports/pdf?status=
func (h *ExportHandler) StatusReportPDF(c *gin.Context) {
	status := c.Query("status")
	if strings.TrimSpace(status) == "" {
		h.BadRequest(c, "The status query parameter is required")
		return
	}
	f, err := h.exports.StatusReportPDF(c.Request.Context(), currentUser(c), currentView(c), status)
	h.send(c, "pdf", f, err)
}

// InvoicePNG downloads the invoice image of one order. The route parameter
// may carry a trailing ".png".
// GET /views/:view/exports/invoice/:id
func (h *ExportHandler) InvoicePNG(c *gin.Context) {
	id := strings.TrimSuffix(c.Param("id"), ".png")
	f, err := h.exports.InvoicePNG(c.Request.Context(), currentUser(c), currentView(c), id)
	h.send(c, "png", f, err)
}

// Artifact downloads a stored export of the view.
// GET /views/:view/artifacts/*name
func (h *ExportHandler) Artifact(c *gin.Context) {
	f, err := h.exports.OpenArtifact(c.Request.Context(), currentView(c), c.Param("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	c.Data(http.StatusOK, f.ContentType, f.Data)
}

func (h *ExportHandler) send(c *gin.Context, format string, f *apporder.ExportFile, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.observer.ObserveExport(format)

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	if f.URL != "" {
		c.Header(middleware.ExportURLHeader, f.URL)
	}
	c.Data(http.StatusOK, f.ContentType, f.Data)
}
