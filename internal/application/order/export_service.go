package order

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/local"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Export content types.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
	ContentTypePNG  = "image/png"
)

// ArtifactsSegment separates the view from the rest of a stored export's key:
// <view>/artifacts/<yyyy>/<mm>/<dd>/<uuid>/<file name>.
const ArtifactsSegment = "artifacts"

// StatusReport is the data of a PDF status report.
type StatusReport struct {
	Title       string
	View        string
	Status      order.Status
	GeneratedAt time.Time
	Orders      []order.Order
}

// DocumentRenderer turns report data into printable files.
type DocumentRenderer interface {
	RenderStatusReport(ctx context.Context, report StatusReport) ([]byte, error)
	RenderInvoice(ctx context.Context, o order.Order) ([]byte, error)
}

// SpreadsheetWriter writes order rows as tabular files.
type SpreadsheetWriter interface {
	WriteCSV(w io.Writer, orders []order.Order) error
	WriteXLSX(w io.Writer, orders []order.Order) error
}

// ArtifactStore keeps a copy of generated files and returns a download URL.
// Open of a missing key returns an error wrapping fs.ErrNotExist.
type ArtifactStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ExportFile is a generated export.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
	URL         string
	Rows        int
}

// ExportService generates files from a view's displayed rows.
type ExportService struct {
	tables    *TableService
	sheets    SpreadsheetWriter
	documents DocumentRenderer
	artifacts ArtifactStore
	activity  ActivityRecorder
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewExportService creates an ExportService. artifacts and activity may be nil.
func NewExportService(
	tables *TableService,
	sheets SpreadsheetWriter,
	documents DocumentRenderer,
	artifacts ArtifactStore,
	activity ActivityRecorder,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		tables:    tables,
		sheets:    sheets,
		documents: documents,
		artifacts: artifacts,
		activity:  activity,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// CSV exports every displayed row.
func (s *ExportService) CSV(ctx context.Context, user, view string) (*ExportFile, error) {
	rows, err := s.tables.Rows(ctx, user, view)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.sheets.WriteCSV(&buf, rows); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return s.finish(ctx, user, view, &ExportFile{
		Name:        s.fileName(view, "orders", "csv"),
		ContentType: ContentTypeCSV,
		Data:        buf.Bytes(),
		Rows:        len(rows),
	})
}

// XLSX exports every displayed row as a workbook.
func (s *ExportService) XLSX(ctx context.Context, user, view string) (*ExportFile, error) {
	rows, err := s.tables.Rows(ctx, user, view)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.sheets.WriteXLSX(&buf, rows); err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return s.finish(ctx, user, view, &ExportFile{
		Name:        s.fileName(view, "orders", "xlsx"),
		ContentType: ContentTypeXLSX,
		Data:        buf.Bytes(),
		Rows:        len(rows),
	})
}

// StatusReportPDF renders a PDF of the displayed rows whose status matches,
// ignoring case. No matching rows gives a report with zero rows.
func (s *ExportService) StatusReportPDF(ctx context.Context, user, view, status string) (*ExportFile, error) {
	st, err := order.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	rows, err := s.tables.Rows(ctx, user, view)
	if err != nil {
		return nil, err
	}
	matching := order.FilterByStatus(rows, st)

	data, err := s.documents.RenderStatusReport(ctx, StatusReport{
		Title:       fmt.Sprintf("%s Orders", st),
		View:        view,
		Status:      st,
		GeneratedAt: s.now(),
		Orders:      matching,
	})
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, user, view, &ExportFile{
		Name:        s.fileName(view, slug(string(st))+"-orders", "pdf"),
		ContentType: ContentTypePDF,
		Data:        data,
		Rows:        len(matching),
	})
}

// InvoicePNG renders one held order as an invoice image.
func (s *ExportService) InvoicePNG(ctx context.Context, user, view, id string) (*ExportFile, error) {
	o, err := s.tables.Find(ctx, user, view, id)
	if err != nil {
		return nil, err
	}
	data, err := s.documents.RenderInvoice(ctx, o)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, user, view, &ExportFile{
		Name:        fmt.Sprintf("invoice-%s.png", slug(o.SerialNumber)),
		ContentType: ContentTypePNG,
		Data:        data,
		Rows:        1,
	})
}

// finish stores the artifact when storage is configured and records the
// export. A storage failure is logged and the file is still returned.
func (s *ExportService) finish(ctx context.Context, user, view string, f *ExportFile) (*ExportFile, error) {
	if s.artifacts != nil {
		key := path.Join(view, ArtifactsSegment, s.now().UTC().Format("2006/01/02"), s.newID(), f.Name)
		url, err := s.artifacts.Save(ctx, key, f.Data, f.ContentType)
		if err != nil {
			s.logger.Warn("failed to store export artifact", zap.String("name", f.Name), zap.Error(err))
		} else {
			f.URL = url
		}
	}
	if s.activity != nil {
		entry := local.NewActivityEntry(local.ActionExport, fmt.Sprintf("Exported %s (%d rows)", f.Name, f.Rows))
		entry.Username = user
		if err := s.activity.Record(ctx, entry); err != nil {
			s.logger.Warn("failed to record activity", zap.String("action", string(local.ActionExport)), zap.Error(err))
		}
	}
	return f, nil
}

// OpenArtifact reads back a stored export of view. name is the part of the
// key after "<view>/artifacts/", so one view's files cannot be reached
// through another view.
func (s *ExportService) OpenArtifact(ctx context.Context, view, name string) (*ExportFile, error) {
	name = strings.TrimPrefix(name, "/")
	if s.artifacts == nil || name == "" || path.Clean(name) != name || strings.HasPrefix(name, "../") || name == ".." {
		return nil, shared.ErrNotFound
	}
	rc, err := s.artifacts.Open(ctx, path.Join(view, ArtifactsSegment, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read export %s: %w", name, err)
	}
	return &ExportFile{Name: path.Base(name), ContentType: contentTypeOf(name), Data: data}, nil
}

func contentTypeOf(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return ContentTypeCSV
	case ".xlsx":
		return ContentTypeXLSX
	case ".pdf":
		return ContentTypePDF
	case ".png":
		return ContentTypePNG
	default:
		return "application/octet-stream"
	}
}

func (s *ExportService) fileName(view, kind, ext string) string {
	return fmt.Sprintf("%s-%s-%s.%s", slug(view), kind, s.now().Format("20060102-150405"), ext)
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "export"
	}
	return b.String()
}
