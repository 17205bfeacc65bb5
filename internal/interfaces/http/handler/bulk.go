package handler

import (
	"github.com/gin-gonic/gin"
	apporder "github.com/orderdesk/backend/internal/application/order"
	"github.com/orderdesk/backend/internal/infrastructure/logger"
	"github.com/orderdesk/backend/internal/infrastructure/spreadsheet"
	"go.uber.org/zap"
)

// csvFormField is the multipart field of a serial number upload.
const csvFormField = "file"

// DeleteSelected deletes the selected rows.
// POST /views/:view/orders/delete-selected
func (h *OrderHandler) DeleteSelected(c *gin.Context) {
	res, err := h.tables.DeleteSelected(c.Request.Context(), currentUser(c), currentView(c))
	h.bulkDeleted(c, "delete_selected", res, err)
}

// DeleteByStatus deletes every displayed row with a status.
// POST /views/:view/orders/delete-by-status
func (h *OrderHandler) DeleteByStatus(c *gin.Context) {
	var req StatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.tables.DeleteByStatus(c.Request.Context(), currentUser(c), currentView(c), req.Status)
	h.bulkDeleted(c, "delete_by_status", res, err)
}

// DeleteAll deletes every displayed row.
// POST /views/:view/orders/delete-all
func (h *OrderHandler) DeleteAll(c *gin.Context) {
	res, err := h.tables.DeleteAll(c.Request.Context(), currentUser(c), currentView(c))
	h.bulkDeleted(c, "delete_all", res, err)
}

func (h *OrderHandler) bulkDeleted(c *gin.Context, operation string, res *apporder.BulkDeleteResult, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.observer.ObserveBulk(operation, len(res.Deleted), len(res.Failed))
	h.Success(c, res)
}

// BulkImport creates one order per pasted serial number.
// POST /views/:view/orders/bulk
func (h *OrderHandler) BulkImport(c *gin.Context) {
	var req apporder.BulkImportRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.tables.BulkImport(c.Request.Context(), currentUser(c), currentView(c), req)
	h.bulkImported(c, res, err)
}

// BulkImportCSV creates one order per serial number of an uploaded CSV. The
// shared fields come from the other form fields.
// POST /views/:view/orders/bulk/csv
func (h *OrderHandler) BulkImportCSV(c *gin.Context) {
	var req apporder.BulkImportRequest
	if err := c.ShouldBind(&req); err != nil {
		h.bindError(c, err)
		return
	}
	fh, err := c.FormFile(csvFormField)
	if err != nil {
		h.BadRequest(c, "A CSV file is required in the \"file\" field")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer f.Close()

	serials, err := spreadsheet.ReadSerials(f)
	if err != nil {
		logger.GetGinLogger(c).Info("Rejected serial upload",
			zap.String("filename", fh.Filename),
			zap.Error(err))
		h.BadRequest(c, err.Error())
		return
	}
	res, err := h.tables.BulkImportSerials(c.Request.Context(), currentUser(c), currentView(c), serials, req)
	h.bulkImported(c, res, err)
}

func (h *OrderHandler) bulkImported(c *gin.Context, res *apporder.BulkImportResult, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.observer.ObserveBulk("import", res.Created, res.Skipped)
	h.Success(c, res)
}

// BulkStatus sets the status of every pasted serial number.
// POST /views/:view/orders/bulk-status
func (h *OrderHandler) BulkStatus(c *gin.Context) {
	var req apporder.BulkStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.tables.BulkStatus(c.Request.Context(), currentUser(c), currentView(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.observer.ObserveBulk("status", res.Updated, len(res.NotFound))
	h.Success(c, res)
}
