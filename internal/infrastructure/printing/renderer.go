package printing

import (
	"context"
	"time"
)

// RenderRequest contains the parameters for printing HTML to PDF
type RenderRequest struct {
	HTML      string
	Title     string
	PaperSize PaperSize
	Landscape bool
	// Margins in millimeters
	Margins    Margins
	FooterHTML string
	// Timeout overrides the default rendering timeout
	Timeout time.Duration
}

// ScreenshotRequest contains the parameters for rendering HTML to PNG
type ScreenshotRequest struct {
	HTML string
	// Width of the viewport in CSS pixels; the height follows the content
	Width int
	// Scale is the device scale factor, 2 for crisp text on HiDPI screens
	Scale   float64
	Timeout time.Duration
}

// Browser prints HTML documents.
type Browser interface {
	PrintPDF(ctx context.Context, req *RenderRequest) ([]byte, error)
	Screenshot(ctx context.Context, req *ScreenshotRequest) ([]byte, error)
	Close() error
}

// RenderError represents an error during rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeTemplateFailed   = "TEMPLATE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
