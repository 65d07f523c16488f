// Package attachment converts raw email attachments into best-effort
// text through a fallback chain: native parsing first, vision OCR for
// images and scanned PDFs, with size, page, and per-email image caps to
// bound cost. Every outcome is terminal for the attempt and carries a
// human-readable reason; one attachment's failure never affects its
// siblings.
package attachment

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/homeroomhq/homeroom/internal/domain"
)

// OCR is the vision capability the engine needs from an AI provider.
type OCR interface {
	TranscribeImage(ctx context.Context, imageData []byte, mimeType string) (string, error)
}

// Limits bound the resources one email's attachments may consume.
type Limits struct {
	MaxPDFBytes       int64
	MaxImageBytes     int64
	MaxDocumentBytes  int64
	MaxImagesPerEmail int
	MaxOCRPages       int
}

// DefaultLimits returns the production caps.
func DefaultLimits() Limits {
	return Limits{
		MaxPDFBytes:       5 * 1024 * 1024,
		MaxImageBytes:     2 * 1024 * 1024,
		MaxDocumentBytes:  5 * 1024 * 1024,
		MaxImagesPerEmail: 5,
		MaxOCRPages:       6,
	}
}

// Result is the terminal outcome of one extraction attempt.
type Result struct {
	Status domain.AttachmentStatus
	Text   string
	Reason string
}

// Engine runs the recovery chain. The fallback OCR provider, when
// configured, gets one try after the primary errors on an image.
type Engine struct {
	ocr      OCR
	fallback OCR
	limits   Limits
}

// NewEngine creates an engine. fallback may be nil.
func NewEngine(primary, fallback OCR, limits Limits) *Engine {
	return &Engine{ocr: primary, fallback: fallback, limits: limits}
}

type kind int

const (
	kindUnknown kind = iota
	kindPDF
	kindImage
	kindDocument
	kindText
	kindHTML
)

// Extract runs the decision chain for a single attachment. imageIndex is
// the zero-based count of image attachments already seen on this email;
// images beyond the per-email budget are skipped, not failed.
func (e *Engine) Extract(ctx context.Context, data []byte, mimeType, filename string, imageIndex int) Result {
	switch classify(mimeType, filename) {
	case kindPDF:
		if int64(len(data)) > e.limits.MaxPDFBytes {
			return skipped(fmt.Sprintf("PDF is %s, over the %s limit", mbString(int64(len(data))), mbString(e.limits.MaxPDFBytes)))
		}
		return e.extractPDF(ctx, data)

	case kindImage:
		if imageIndex >= e.limits.MaxImagesPerEmail {
			return skipped(fmt.Sprintf("image budget of %d per email exhausted", e.limits.MaxImagesPerEmail))
		}
		if int64(len(data)) > e.limits.MaxImageBytes {
			return skipped(fmt.Sprintf("image is %s, over the %s limit", mbString(int64(len(data))), mbString(e.limits.MaxImageBytes)))
		}
		return e.extractImage(ctx, data, mimeType)

	case kindDocument:
		if int64(len(data)) > e.limits.MaxDocumentBytes {
			return skipped(fmt.Sprintf("document is %s, over the %s limit", mbString(int64(len(data))), mbString(e.limits.MaxDocumentBytes)))
		}
		return extractDocument(data)

	case kindText:
		if int64(len(data)) > e.limits.MaxDocumentBytes {
			return skipped(fmt.Sprintf("text file is %s, over the %s limit", mbString(int64(len(data))), mbString(e.limits.MaxDocumentBytes)))
		}
		return extractPlainText(data)

	case kindHTML:
		if int64(len(data)) > e.limits.MaxDocumentBytes {
			return skipped(fmt.Sprintf("HTML file is %s, over the %s limit", mbString(int64(len(data))), mbString(e.limits.MaxDocumentBytes)))
		}
		return extractHTML(data)

	default:
		return skipped(fmt.Sprintf("unsupported format %q", mimeType))
	}
}

func classify(mimeType, filename string) kind {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch mt {
	case "application/pdf":
		return kindPDF
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return kindImage
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/msword":
		return kindDocument
	case "text/plain", "text/csv":
		return kindText
	case "text/html":
		return kindHTML
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return kindPDF
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return kindImage
	case ".docx", ".doc":
		return kindDocument
	case ".txt", ".csv":
		return kindText
	case ".html", ".htm":
		return kindHTML
	}
	return kindUnknown
}

// IsImage reports whether the attachment would take the image OCR path,
// so callers can track the per-email image budget.
func IsImage(mimeType, filename string) bool {
	return classify(mimeType, filename) == kindImage
}

func skipped(reason string) Result {
	return Result{Status: domain.AttachmentSkipped, Reason: reason}
}

func failed(reason string) Result {
	return Result{Status: domain.AttachmentFailed, Reason: reason}
}

func success(text, reason string) Result {
	return Result{Status: domain.AttachmentSuccess, Text: text, Reason: reason}
}

func mbString(bytes int64) string {
	mb := float64(bytes) / (1024 * 1024)
	if mb == float64(int64(mb)) {
		return fmt.Sprintf("%dMB", int64(mb))
	}
	return fmt.Sprintf("%.1fMB", mb)
}
