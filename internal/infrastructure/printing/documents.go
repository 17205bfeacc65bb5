package printing

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"time"

	apporder "github.com/orderdesk/backend/internal/application/order"
	"github.com/orderdesk/backend/internal/domain/order"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	defaultAccent  = "#3B82F6"
	defaultCompany = "Order Desk"
)

// DocumentOptions customizes printed documents.
type DocumentOptions struct {
	Company string
	Accent  string
	Paper   PaperSize
	// InvoiceWidth is the invoice viewport width in CSS pixels
	InvoiceWidth int
}

// DocumentRenderer prints status reports and invoices. It satisfies the
// export service's DocumentRenderer.
type DocumentRenderer struct {
	browser   Browser
	templates *template.Template
	opts      DocumentOptions
	now       func() time.Time
}

// NewDocumentRenderer parses the embedded templates.
func NewDocumentRenderer(browser Browser, opts DocumentOptions) (*DocumentRenderer, error) {
	if opts.Company == "" {
		opts.Company = defaultCompany
	}
	if opts.Accent == "" {
		opts.Accent = defaultAccent
	}
	if opts.Paper == "" {
		opts.Paper = PaperSizeA4
	}

	tmpl, err := template.New("documents").Funcs(template.FuncMap{
		"formatDateTime": formatDateTime,
		"inc":            func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse document templates", err)
	}

	return &DocumentRenderer{browser: browser, templates: tmpl, opts: opts, now: time.Now}, nil
}

type statusReportData struct {
	apporder.StatusReport
	Accent template.CSS
}

type invoiceData struct {
	Order     order.Order
	Company   string
	Accent    template.CSS
	PrintedAt time.Time
}

// StatusReportHTML renders the report document without printing it.
func (d *DocumentRenderer) StatusReportHTML(report apporder.StatusReport) (string, error) {
	return d.execute("status_report.html", statusReportData{
		StatusReport: report,
		Accent:       template.CSS(d.opts.Accent),
	})
}

// InvoiceHTML renders the invoice document without printing it.
func (d *DocumentRenderer) InvoiceHTML(o order.Order) (string, error) {
	return d.execute("invoice.html", invoiceData{
		Order:     o,
		Company:   d.opts.Company,
		Accent:    template.CSS(d.opts.Accent),
		PrintedAt: d.now(),
	})
}

// RenderStatusReport prints the report as a PDF with page numbers.
func (d *DocumentRenderer) RenderStatusReport(ctx context.Context, report apporder.StatusReport) ([]byte, error) {
	body, err := d.StatusReportHTML(report)
	if err != nil {
		return nil, err
	}
	return d.browser.PrintPDF(ctx, &RenderRequest{
		HTML:      body,
		Title:     report.Title,
		PaperSize: d.opts.Paper,
		Margins:   DefaultMargins(),
		FooterHTML: `<div style="font-size:8px;width:100%;text-align:center;color:#6b7280">` +
			`<span class="pageNumber"></span> / <span class="totalPages"></span></div>`,
	})
}

// RenderInvoice screenshots the invoice as a PNG.
func (d *DocumentRenderer) RenderInvoice(ctx context.Context, o order.Order) ([]byte, error) {
	body, err := d.InvoiceHTML(o)
	if err != nil {
		return nil, err
	}
	return d.browser.Screenshot(ctx, &ScreenshotRequest{
		HTML:  body,
		Width: d.opts.InvoiceWidth,
		Scale: 2,
	})
}

func (d *DocumentRenderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := d.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to execute "+name, err)
	}
	return buf.String(), nil
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

var _ apporder.DocumentRenderer = (*DocumentRenderer)(nil)
