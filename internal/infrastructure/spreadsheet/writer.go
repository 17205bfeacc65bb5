package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	apporder "github.com/orderdesk/backend/internal/application/order"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/xuri/excelize/v2"
)

const (
	ordersSheet  = "Orders"
	summarySheet = "Summary"

	createdAtLayout = "2006-01-02 15:04:05"
)

// Columns is the header row of every order export.
var Columns = []string{"Serial Number", "Owner", "Order Date", "Status", "Created At"}

// Writer writes order rows as CSV or XLSX.
type Writer struct {
	location *time.Location
}

// NewWriter creates a Writer that prints timestamps in loc (UTC when nil).
func NewWriter(loc *time.Location) *Writer {
	if loc == nil {
		loc = time.UTC
	}
	return &Writer{location: loc}
}

func (w *Writer) record(o order.Order) []string {
	created := ""
	if !o.CreatedAt.IsZero() {
		created = o.CreatedAt.In(w.location).Format(createdAtLayout)
	}
	return []string{o.SerialNumber, o.Owner, o.OrderDate, string(o.Status), created}
}

// WriteCSV writes the header and one row per order.
func (w *Writer) WriteCSV(out io.Writer, orders []order.Order) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, o := range orders {
		if err := cw.Write(w.record(o)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes an Orders sheet with a styled header and a Summary sheet
// of counts per status.
func (w *Writer) WriteXLSX(out io.Writer, orders []order.Order) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#3B82F6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	total, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "top", Color: "000000", Style: 2}},
	})
	if err != nil {
		return fmt.Errorf("failed to create total style: %w", err)
	}

	if err := writeRow(f, ordersSheet, 1, toCells(Columns)); err != nil {
		return err
	}
	if err := f.SetCellStyle(ordersSheet, "A1", "E1", header); err != nil {
		return err
	}
	for i, o := range orders {
		if err := writeRow(f, ordersSheet, i+2, toCells(w.record(o))); err != nil {
			return err
		}
	}
	for col, width := range map[string]float64{"A": 24, "B": 20, "C": 14, "D": 14, "E": 20} {
		if err := f.SetColWidth(ordersSheet, col, col, width); err != nil {
			return err
		}
	}
	if len(orders) > 0 {
		if err := f.AutoFilter(ordersSheet, "A1:E"+strconv.Itoa(len(orders)+1), nil); err != nil {
			return fmt.Errorf("failed to add filter: %w", err)
		}
	}
	if err := f.SetPanes(ordersSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}

	if err := writeRow(f, summarySheet, 1, []any{"Status", "Orders"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", header); err != nil {
		return err
	}
	counts := order.CountByStatus(orders)
	for i, c := range counts {
		if err := writeRow(f, summarySheet, i+2, []any{string(c.Status), c.Count}); err != nil {
			return err
		}
	}
	last := len(counts) + 2
	if err := writeRow(f, summarySheet, last, []any{"Total", len(orders)}); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A"+strconv.Itoa(last), "B"+strconv.Itoa(last), total); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 18); err != nil {
		return err
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

var _ apporder.SpreadsheetWriter = (*Writer)(nil)
