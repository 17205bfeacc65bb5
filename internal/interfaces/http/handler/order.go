package handler

import (
	"github.com/gin-gonic/gin"
	apporder "github.com/orderdesk/backend/internal/application/order"
	"github.com/orderdesk/backend/internal/interfaces/http/middleware"
)

// BulkObserver records the outcome of bulk operations.
type BulkObserver interface {
	ObserveBulk(operation string, succeeded, failed int)
}

type nopBulkObserver struct{}

func (nopBulkObserver) ObserveBulk(string, int, int) {}

// OrderHandler serves the per-view order tables.
type OrderHandler struct {
	BaseHandler
	tables   *apporder.TableService
	observer BulkObserver
}

// NewOrderHandler creates a new OrderHandler. observer may be nil.
func NewOrderHandler(tables *apporder.TableService, observer BulkObserver) *OrderHandler {
	if observer == nil {
		observer = nopBulkObserver{}
	}
	return &OrderHandler{tables: tables, observer: observer}
}

// StatusRequest carries a single order status.
type StatusRequest struct {
	Status string `json:"status" binding:"required,order_status"`
}

// ListViews returns the views the caller may open.
// GET /views
func (h *OrderHandler) ListViews(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	views := make([]apporder.View, 0)
	for _, v := range h.tables.Views() {
		if v.Owner == "" || (claims != nil && claims.CanAccessOwner(v.Owner)) {
			views = append(views, v)
		}
	}
	h.Success(c, views)
}

// List refetches the view with the filter in the query string.
// GET /views/:view/orders
func (h *OrderHandler) List(c *gin.Context) {
	var req apporder.FilterRequest
	if !h.BindQuery(c, &req) {
		return
	}
	table, err := h.tables.Refresh(c.Request.Context(), currentUser(c), currentView(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, table, int64(table.Count), len(table.Selected))
}

// Current returns the held rows without refetching.
// GET /views/:view/orders/current
func (h *OrderHandler) Current(c *gin.Context) {
	table, err := h.tables.Current(c.Request.Context(), currentUser(c), currentView(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, table, int64(table.Count), len(table.Selected))
}

// Get returns one held row.
// GET /views/:view/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.tables.Find(c.Request.Context(), currentUser(c), currentView(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Create adds an order.
// POST /views/:view/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req apporder.OrderInput
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.tables.Create(c.Request.Context(), currentUser(c), currentView(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, o)
}

// Update replaces the editable fields of an order.
// PUT /views/:view/orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	var req apporder.OrderInput
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.tables.Update(c.Request.Context(), currentUser(c), currentView(c), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// UpdateStatus changes the status of one order.
// PATCH /views/:view/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.tables.UpdateStatus(c.Request.Context(), currentUser(c), currentView(c), c.Param("id"), req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Delete removes one order.
// DELETE /views/:view/orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.tables.Delete(c.Request.Context(), currentUser(c), currentView(c), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetSelection returns the selected IDs.
// GET /views/:view/selection
func (h *OrderHandler) GetSelection(c *gin.Context) {
	sel, err := h.tables.Selection(c.Request.Context(), currentUser(c), currentView(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sel)
}

// ApplySelection changes the selection.
// POST /views/:view/selection
func (h *OrderHandler) ApplySelection(c *gin.Context) {
	var req apporder.SelectionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sel, err := h.tables.ApplySelection(c.Request.Context(), currentUser(c), currentView(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sel)
}
