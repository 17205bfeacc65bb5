package order

import (
	"context"

	"github.com/orderdesk/backend/internal/domain/order"
)

// RowSource returns the displayed rows of a user's view.
type RowSource interface {
	Rows(ctx context.Context, user, view string) ([]order.Order, error)
}

// ReportService computes report figures over a view's displayed rows.
type ReportService struct {
	rows   RowSource
	owners []string
}

// NewReportService creates a ReportService. owners are the names offered to
// invoice prefill.
func NewReportService(rows RowSource, owners []string) *ReportService {
	return &ReportService{rows: rows, owners: owners}
}

// Summary counts displayed rows by status.
func (s *ReportService) Summary(ctx context.Context, user, view string) (*ReportSummary, error) {
	rows, err := s.rows.Rows(ctx, user, view)
	if err != nil {
		return nil, err
	}
	return &ReportSummary{
		View:   view,
		Total:  len(rows),
		Counts: order.CountByStatus(rows),
	}, nil
}

// Charts builds the pie and bar series for displayed rows.
func (s *ReportService) Charts(ctx context.Context, user, view string) (*ChartData, error) {
	rows, err := s.rows.Rows(ctx, user, view)
	if err != nil {
		return nil, err
	}
	return &ChartData{
		View:    view,
		Pie:     order.StatusPie(rows),
		ByOwner: order.OrdersByOwner(rows),
		ByDate:  order.OrdersByDate(rows),
	}, nil
}

// Prefill suggests order form values from recognized invoice text.
func (s *ReportService) Prefill(req PrefillRequest) order.InvoiceFields {
	fields := order.ExtractInvoiceFields(req.Text, s.owners)
	if fields.SerialNumbers == nil {
		fields.SerialNumbers = []string{}
	}
	return fields
}
