package attachment

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/homeroomhq/homeroom/internal/domain"
)

type fakeOCR struct {
	text  string
	err   error
	calls int
}

func (f *fakeOCR) TranscribeImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	f.calls++
	return f.text, f.err
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	return buf.Bytes()
}

func TestExtractSizeScreening(t *testing.T) {
	e := NewEngine(&fakeOCR{}, nil, DefaultLimits())

	tests := []struct {
		name       string
		size       int
		mimeType   string
		filename   string
		wantReason string
	}{
		{"oversized pdf", 6_000_000, "application/pdf", "newsletter.pdf", "5MB"},
		{"oversized image", 3_000_000, "image/jpeg", "flyer.jpg", "2MB"},
		{"oversized document", 6_000_000, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "packet.docx", "5MB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(context.Background(), make([]byte, tt.size), tt.mimeType, tt.filename, 0)
			if got.Status != domain.AttachmentSkipped {
				t.Fatalf("status = %s, want skipped", got.Status)
			}
			if !strings.Contains(got.Reason, tt.wantReason) {
				t.Errorf("reason %q does not mention %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestExtractImageBudget(t *testing.T) {
	ocr := &fakeOCR{text: "Bake sale Friday"}
	e := NewEngine(ocr, nil, DefaultLimits())
	img := testPNG(t, 10, 10)

	// Fifth image (index 4) is still within budget.
	got := e.Extract(context.Background(), img, "image/png", "a.png", 4)
	if got.Status != domain.AttachmentSuccess {
		t.Fatalf("image 5 status = %s (%s), want success", got.Status, got.Reason)
	}

	// Sixth image (index 5) is over budget.
	got = e.Extract(context.Background(), img, "image/png", "b.png", 5)
	if got.Status != domain.AttachmentSkipped {
		t.Fatalf("image 6 status = %s, want skipped", got.Status)
	}
	if ocr.calls != 1 {
		t.Errorf("OCR called %d times, want 1 (skipped image must not call OCR)", ocr.calls)
	}
}

func TestExtractImageOCR(t *testing.T) {
	ocr := &fakeOCR{text: "Picture day is March 12"}
	e := NewEngine(ocr, nil, DefaultLimits())

	got := e.Extract(context.Background(), testPNG(t, 20, 20), "image/png", "note.png", 0)
	if got.Status != domain.AttachmentSuccess {
		t.Fatalf("status = %s (%s), want success", got.Status, got.Reason)
	}
	if got.Text != "Picture day is March 12" {
		t.Errorf("text = %q", got.Text)
	}
}

func TestExtractImageNoTextSentinelIsSuccess(t *testing.T) {
	ocr := &fakeOCR{text: "No readable text."}
	e := NewEngine(ocr, nil, DefaultLimits())

	got := e.Extract(context.Background(), testPNG(t, 20, 20), "image/png", "photo.png", 0)
	if got.Status != domain.AttachmentSuccess {
		t.Errorf("a non-document photo is still a success, got %s", got.Status)
	}
}

func TestExtractImageFallbackProvider(t *testing.T) {
	primary := &fakeOCR{err: errors.New("provider down")}
	fallback := &fakeOCR{text: "Spirit week schedule"}
	e := NewEngine(primary, fallback, DefaultLimits())

	got := e.Extract(context.Background(), testPNG(t, 20, 20), "image/png", "sched.png", 0)
	if got.Status != domain.AttachmentSuccess {
		t.Fatalf("status = %s (%s), want success via fallback", got.Status, got.Reason)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("calls primary=%d fallback=%d, want 1 and 1", primary.calls, fallback.calls)
	}
}

func TestExtractImageBothProvidersFail(t *testing.T) {
	primary := &fakeOCR{err: errors.New("down")}
	fallback := &fakeOCR{err: errors.New("also down")}
	e := NewEngine(primary, fallback, DefaultLimits())

	got := e.Extract(context.Background(), testPNG(t, 20, 20), "image/png", "x.png", 0)
	if got.Status != domain.AttachmentFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
	if got.Reason == "" {
		t.Error("failure must carry a reason for retry")
	}
}

func TestExtractPlainText(t *testing.T) {
	e := NewEngine(nil, nil, DefaultLimits())
	got := e.Extract(context.Background(), []byte("  Lunch menu attached.\n"), "text/plain", "menu.txt", 0)
	if got.Status != domain.AttachmentSuccess || got.Text != "Lunch menu attached." {
		t.Errorf("got %+v", got)
	}
}

func TestExtractHTMLStripsTags(t *testing.T) {
	e := NewEngine(nil, nil, DefaultLimits())
	html := `<html><head><style>p{color:red}</style></head><body><p>Book   fair</p><p>next week</p><script>alert(1)</script></body></html>`
	got := e.Extract(context.Background(), []byte(html), "text/html", "flyer.html", 0)
	if got.Status != domain.AttachmentSuccess {
		t.Fatalf("status = %s (%s)", got.Status, got.Reason)
	}
	if got.Text != "Book fair next week" {
		t.Errorf("text = %q, want collapsed whitespace without script/style", got.Text)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	e := NewEngine(nil, nil, DefaultLimits())
	got := e.Extract(context.Background(), []byte{0x50, 0x4b}, "application/zip", "archive.zip", 0)
	if got.Status != domain.AttachmentSkipped {
		t.Fatalf("status = %s, want skipped", got.Status)
	}
	if !strings.Contains(got.Reason, "unsupported") {
		t.Errorf("reason = %q", got.Reason)
	}
}

func TestClassifyFallsBackToExtension(t *testing.T) {
	tests := []struct {
		mimeType string
		filename string
		want     kind
	}{
		{"application/octet-stream", "report.pdf", kindPDF},
		{"application/octet-stream", "photo.JPG", kindImage},
		{"application/octet-stream", "notes.docx", kindDocument},
		{"text/plain; charset=utf-8", "readme", kindText},
		{"application/octet-stream", "mystery.bin", kindUnknown},
	}
	for _, tt := range tests {
		if got := classify(tt.mimeType, tt.filename); got != tt.want {
			t.Errorf("classify(%q, %q) = %d, want %d", tt.mimeType, tt.filename, got, tt.want)
		}
	}
}

func TestDetectImageType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF}, "image/jpeg"},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A}, "image/png"},
		{"gif", []byte("GIF89a"), "image/gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBP"), "image/webp"},
		{"unknown", []byte("plain"), ""},
	}
	for _, tt := range tests {
		if got := detectImageType(tt.data); got != tt.want {
			t.Errorf("%s: detectImageType = %q, want %q", tt.name, got, tt.want)
		}
	}
}
