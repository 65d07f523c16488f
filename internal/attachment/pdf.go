package attachment

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// A text layer shorter than this is treated as absent: the PDF is most
// likely a scan, so OCR takes over.
const minNativeTextChars = 50

// ocrRenderDPI renders pages at 2x the PDF's native 72 dpi before OCR.
const ocrRenderDPI = 144

// extractPDF tries the native text layer first and falls back to
// per-page vision OCR for scanned documents within the page budget.
func (e *Engine) extractPDF(ctx context.Context, data []byte) Result {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return failed(fmt.Sprintf("PDF open failed: %v", err))
	}
	defer doc.Close()

	pages := doc.NumPage()
	var native strings.Builder
	for i := 0; i < pages; i++ {
		text, err := doc.Text(i)
		if err != nil {
			return failed(fmt.Sprintf("PDF text extraction failed on page %d: %v", i+1, err))
		}
		native.WriteString(text)
	}

	if text := strings.TrimSpace(native.String()); len(text) >= minNativeTextChars {
		return success(text, "native text layer")
	}

	// Near-empty text layer: likely a scanned document.
	if pages > e.limits.MaxOCRPages {
		return skipped(fmt.Sprintf("scanned PDF has %d pages, too long for OCR (limit %d)", pages, e.limits.MaxOCRPages))
	}
	if e.ocr == nil {
		return failed("scanned PDF and no OCR provider configured")
	}

	var out strings.Builder
	transcribed := 0
	for i := 0; i < pages; i++ {
		png, err := doc.ImagePNG(i, ocrRenderDPI)
		if err != nil {
			log.Printf("[Attachment] PDF page %d render failed: %v", i+1, err)
			continue
		}
		text, err := e.ocr.TranscribeImage(ctx, png, "image/png")
		if err != nil {
			log.Printf("[Attachment] PDF page %d OCR failed: %v", i+1, err)
			continue
		}
		out.WriteString(fmt.Sprintf("--- Page %d ---\n%s\n", i+1, strings.TrimSpace(text)))
		transcribed++
	}

	if transcribed == 0 {
		return failed("OCR produced no text for any page")
	}
	return success(strings.TrimSpace(out.String()), fmt.Sprintf("OCR over %d of %d pages", transcribed, pages))
}
