package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	applocal "github.com/orderdesk/backend/internal/application/local"
)

// LocalHandler serves the data kept on this service: the address book,
// support tickets and the activity log.
type LocalHandler struct {
	BaseHandler
	addresses *applocal.AddressService
	tickets   *applocal.TicketService
	activity  *applocal.ActivityService
}

// NewLocalHandler creates a new LocalHandler
func NewLocalHandler(addresses *applocal.AddressService, tickets *applocal.TicketService, activity *applocal.ActivityService) *LocalHandler {
	return &LocalHandler{addresses: addresses, tickets: tickets, activity: activity}
}

func (h *LocalHandler) parseID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid "+what+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// ListAddresses GET /local/addresses?search=
func (h *LocalHandler) ListAddresses(c *gin.Context) {
	addresses, err := h.addresses.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, addresses, int64(len(addresses)), 0)
}

// CreateAddress POST /local/addresses
func (h *LocalHandler) CreateAddress(c *gin.Context) {
	var req applocal.AddressRequest
	if !h.BindJSON(c, &req) {
		return
	}
	a, err := h.addresses.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, a)
}

// UpdateAddress PUT /local/addresses/:id
func (h *LocalHandler) UpdateAddress(c *gin.Context) {
	id, ok := h.parseID(c, "address")
	if !ok {
		return
	}
	var req applocal.AddressRequest
	if !h.BindJSON(c, &req) {
		return
	}
	a, err := h.addresses.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// DeleteAddress DELETE /local/addresses/:id
func (h *LocalHandler) DeleteAddress(c *gin.Context) {
	id, ok := h.parseID(c, "address")
	if !ok {
		return
	}
	if err := h.addresses.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListTickets GET /local/tickets
func (h *LocalHandler) ListTickets(c *gin.Context) {
	tickets, err := h.tickets.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, tickets, int64(len(tickets)), 0)
}

// CreateTicket POST /local/tickets
func (h *LocalHandler) CreateTicket(c *gin.Context) {
	var req applocal.TicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.tickets.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, t)
}

// CloseTicket POST /local/tickets/:id/close
func (h *LocalHandler) CloseTicket(c *gin.Context) {
	id, ok := h.parseID(c, "ticket")
	if !ok {
		return
	}
	t, err := h.tickets.Close(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// DeleteTicket DELETE /local/tickets/:id
func (h *LocalHandler) DeleteTicket(c *gin.Context) {
	id, ok := h.parseID(c, "ticket")
	if !ok {
		return
	}
	if err := h.tickets.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListActivity GET /local/activity?limit=
func (h *LocalHandler) ListActivity(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.BadRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := h.activity.Recent(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, entries, int64(len(entries)), 0)
}

// ClearActivity DELETE /local/activity
func (h *LocalHandler) ClearActivity(c *gin.Context) {
	if err := h.activity.Clear(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
