package printing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrintParams_A4Portrait(t *testing.T) {
	params := buildPrintParams(&RenderRequest{
		HTML:      "<p>x</p>",
		PaperSize: PaperSizeA4,
		Margins:   DefaultMargins(),
	})

	assert.InDelta(t, mmToInches(210), params.paperWidth, 0.001)
	assert.InDelta(t, mmToInches(297), params.paperHeight, 0.001)
	assert.InDelta(t, mmToInches(12), params.marginLeft, 0.001)
	assert.False(t, params.landscape)
	assert.False(t, params.displayHeaderFooter)
}

func TestBuildPrintParams_LetterLandscape(t *testing.T) {
	params := buildPrintParams(&RenderRequest{PaperSize: PaperSizeLetter, Landscape: true})

	assert.InDelta(t, 8.5, params.paperWidth, 0.001)
	assert.InDelta(t, 11.0, params.paperHeight, 0.001)
	assert.True(t, params.landscape)
}

func TestBuildPrintParams_FooterReservesMargin(t *testing.T) {
	params := buildPrintParams(&RenderRequest{
		PaperSize:  PaperSizeA5,
		FooterHTML: `<span class="pageNumber"></span>`,
	})

	assert.True(t, params.displayHeaderFooter)
	assert.Equal(t, "<span></span>", params.headerTemplate)
	assert.Equal(t, `<span class="pageNumber"></span>`, params.footerTemplate)
	assert.InDelta(t, mmToInches(10), params.marginBottom, 0.001)
}

func TestBuildCompleteHTML(t *testing.T) {
	t.Run("wraps fragments", func(t *testing.T) {
		got := buildCompleteHTML("<p>hi</p>", "A & B")
		assert.Contains(t, got, "<!DOCTYPE html>")
		assert.Contains(t, got, "<title>A &amp; B</title>")
		assert.Contains(t, got, "<body><p>hi</p></body>")
	})

	t.Run("keeps full documents", func(t *testing.T) {
		doc := "<!DOCTYPE html><html><body>x</body></html>"
		assert.Equal(t, doc, buildCompleteHTML(doc, "ignored"))
	})
}

func TestPaperSize(t *testing.T) {
	assert.True(t, PaperSizeA4.IsValid())
	assert.False(t, PaperSize("A0").IsValid())

	w, h := PaperSizeA5.Dimensions()
	assert.Equal(t, 148.0, w)
	assert.Equal(t, 210.0, h)
}

func TestChromedpRenderer_RejectsBadInput(t *testing.T) {
	r := NewChromedpRenderer(nil)
	defer r.Close()
	ctx := context.Background()

	_, err := r.PrintPDF(ctx, &RenderRequest{HTML: "   "})
	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	_, err = r.PrintPDF(ctx, &RenderRequest{HTML: "<p>x</p>", PaperSize: "A0"})
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidPaperSize, renderErr.Code)

	_, err = r.Screenshot(ctx, nil)
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestRenderError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", cause)

	assert.EqualError(t, err, "chromedp execution failed: boom")
	assert.ErrorIs(t, err, cause)
	assert.EqualError(t, NewRenderError(ErrCodeRenderFailed, "empty", nil), "empty")
}
