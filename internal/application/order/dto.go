package order

import (
	"time"

	"github.com/orderdesk/backend/internal/domain/order"
)

// FilterRequest is the filter a caller asks a view to display.
type FilterRequest struct {
	Owner  string `form:"owner" json:"owner"`
	Status string `form:"status" json:"status"`
	Search string `form:"search" json:"search"`
	From   string `form:"from" json:"from"`
	To     string `form:"to" json:"to"`
}

// FilterView echoes the active filter back to the caller.
type FilterView struct {
	Owner  string `json:"owner"`
	Status string `json:"status,omitempty"`
	Search string `json:"search,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

// TableView is a snapshot of one view's table.
type TableView struct {
	View     string        `json:"view"`
	Filter   FilterView    `json:"filter"`
	Orders   []order.Order `json:"orders"`
	Count    int           `json:"count"`
	Selected []string      `json:"selected"`
	LoadedAt time.Time     `json:"loadedAt"`
}

// OrderInput is the body of a create or full edit.
type OrderInput struct {
	SerialNumber string `json:"serialNumber" binding:"required"`
	Owner        string `json:"owner"`
	OrderDate    string `json:"orderDate" binding:"required"`
	Status       string `json:"status" binding:"omitempty,order_status"`
}

func (in OrderInput) draft() order.Draft {
	return order.Draft{
		SerialNumber: in.SerialNumber,
		Owner:        in.Owner,
		OrderDate:    in.OrderDate,
		Status:       order.Status(in.Status),
	}
}

// Selection modes.
const (
	SelectionSelect   = "select"
	SelectionDeselect = "deselect"
	SelectionToggle   = "toggle"
	SelectionAll      = "all"
	SelectionClear    = "clear"
)

// SelectionRequest changes the selection of a view.
type SelectionRequest struct {
	Mode string   `json:"mode" binding:"required,oneof=select deselect toggle all clear"`
	IDs  []string `json:"ids"`
}

// SelectionView is the current selection of a view.
type SelectionView struct {
	Selected []string `json:"selected"`
	Count    int      `json:"count"`
}

// DeleteFailure is one remote delete that did not succeed.
type DeleteFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkDeleteResult reports a fan-out delete.
type BulkDeleteResult struct {
	Requested     int             `json:"requested"`
	Deleted       []string        `json:"deleted"`
	Failed        []DeleteFailure `json:"failed"`
	RefetchFailed bool            `json:"refetchFailed,omitempty"`
	Table         *TableView      `json:"table"`
}

// BulkImportRequest creates one order per pasted serial number.
type BulkImportRequest struct {
	SerialNumbers string `json:"serialNumbers" form:"-"`
	Owner         string `json:"owner" form:"owner"`
	OrderDate     string `json:"orderDate" form:"orderDate" binding:"required"`
	Status        string `json:"status" form:"status" binding:"omitempty,order_status"`
}

// BulkImportResult reports a bulk import.
type BulkImportResult struct {
	Submitted      int        `json:"submitted"`
	Created        int        `json:"created"`
	Skipped        int        `json:"skipped"`
	SkippedSerials []string   `json:"skippedSerials"`
	RefetchFailed  bool       `json:"refetchFailed,omitempty"`
	Table          *TableView `json:"table,omitempty"`
}

// BulkStatusRequest sets the status of every pasted serial number.
type BulkStatusRequest struct {
	SerialNumbers string `json:"serialNumbers"`
	Status        string `json:"status" binding:"required,order_status"`
}

// BulkStatusResult reports a bulk status update.
type BulkStatusResult struct {
	Submitted     int        `json:"submitted"`
	Updated       int        `json:"updated"`
	NotFound      []string   `json:"notFound"`
	RefetchFailed bool       `json:"refetchFailed,omitempty"`
	Table         *TableView `json:"table,omitempty"`
}

// ReportSummary is the status breakdown of a view's displayed rows.
type ReportSummary struct {
	View   string              `json:"view"`
	Total  int                 `json:"total"`
	Counts []order.StatusCount `json:"counts"`
}

// ChartData is the chart series of a view's displayed rows.
type ChartData struct {
	View    string           `json:"view"`
	Pie     []order.PieSlice `json:"pie"`
	ByOwner []order.BarPoint `json:"byOwner"`
	ByDate  []order.BarPoint `json:"byDate"`
}

// PrefillRequest carries recognized invoice text.
type PrefillRequest struct {
	Text string `json:"text" binding:"required"`
}

func filterView(f order.Filter) FilterView {
	return FilterView{
		Owner:  f.Owner.String(),
		Status: string(f.Status),
		Search: f.Search,
		From:   f.From,
		To:     f.To,
	}
}
