package handler

import (
	"github.com/gin-gonic/gin"
	appprofit "github.com/orderdesk/backend/internal/application/profit"
)

// ProfitHandler serves the profit calculator.
type ProfitHandler struct {
	BaseHandler
	profit *appprofit.Service
}

// NewProfitHandler creates a new ProfitHandler
func NewProfitHandler(profit *appprofit.Service) *ProfitHandler {
	return &ProfitHandler{profit: profit}
}

// ListStores GET /profit/stores
func (h *ProfitHandler) ListStores(c *gin.Context) {
	stores, err := h.profit.ListStores(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, stores, int64(len(stores)), 0)
}

// CreateStore POST /profit/stores
func (h *ProfitHandler) CreateStore(c *gin.Context) {
	var req appprofit.CreateStoreRequest
	if !h.BindJSON(c, &req) {
		return
	}
	store, err := h.profit.CreateStore(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, store)
}

// DeleteStore DELETE /profit/stores/:id
func (h *ProfitHandler) DeleteStore(c *gin.Context) {
	if err := h.profit.DeleteStore(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListCalculations GET /profit/calculations?storeId=
func (h *ProfitHandler) ListCalculations(c *gin.Context) {
	calcs, err := h.profit.ListCalculations(c.Request.Context(), c.Query("storeId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, calcs, int64(len(calcs)), 0)
}

// CreateCalculation POST /profit/calculations
func (h *ProfitHandler) CreateCalculation(c *gin.Context) {
	var req appprofit.CreateCalculationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	calc, err := h.profit.CreateCalculation(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, calc)
}

// DeleteCalculation DELETE /profit/calculations/:id
func (h *ProfitHandler) DeleteCalculation(c *gin.Context) {
	if err := h.profit.DeleteCalculation(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Summary GET /profit/summary
func (h *ProfitHandler) Summary(c *gin.Context) {
	summary, err := h.profit.Summary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
