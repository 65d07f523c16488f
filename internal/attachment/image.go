package attachment

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decode support
)

// Providers accept JPEG and PNG directly; everything else is re-encoded.
// Very large photos are downscaled first to keep vision-token cost down.
const maxOCRWidth = 2000

// extractImage sends the image to the primary OCR provider, retrying
// once on the fallback provider. A "no readable text" answer is a
// meaningful success, not a failure.
func (e *Engine) extractImage(ctx context.Context, data []byte, mimeType string) Result {
	if e.ocr == nil {
		return failed("no OCR provider configured")
	}

	payload, payloadType, err := normalizeImage(data, mimeType)
	if err != nil {
		return failed(fmt.Sprintf("image decode failed: %v", err))
	}

	text, err := e.ocr.TranscribeImage(ctx, payload, payloadType)
	if err != nil && e.fallback != nil {
		log.Printf("[Attachment] primary OCR failed, trying fallback provider: %v", err)
		text, err = e.fallback.TranscribeImage(ctx, payload, payloadType)
	}
	if err != nil {
		return failed(fmt.Sprintf("OCR failed: %v", err))
	}
	return success(text, "vision OCR")
}

// normalizeImage re-encodes formats the providers reject and downscales
// oversized photos. JPEG and PNG within bounds pass through untouched.
func normalizeImage(data []byte, mimeType string) ([]byte, string, error) {
	detected := detectImageType(data)
	if detected != "" {
		mimeType = detected
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	passthrough := mimeType == "image/jpeg" || mimeType == "image/png"
	if passthrough && cfg.Width <= maxOCRWidth {
		return data, mimeType, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	if cfg.Width > maxOCRWidth {
		img = scaleToWidth(img, maxOCRWidth)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/png", nil
}

func scaleToWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= maxWidth {
		return img
	}
	newHeight := int(float64(height) * float64(maxWidth) / float64(width))
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// detectImageType sniffs magic bytes; returns "" when unrecognized.
func detectImageType(data []byte) string {
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}
	if len(data) >= 4 && data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G' {
		return "image/png"
	}
	if len(data) >= 3 && data[0] == 'G' && data[1] == 'I' && data[2] == 'F' {
		return "image/gif"
	}
	if len(data) >= 12 && data[0] == 'R' && data[1] == 'I' && data[2] == 'F' && data[3] == 'F' &&
		data[8] == 'W' && data[9] == 'E' && data[10] == 'B' && data[11] == 'P' {
		return "image/webp"
	}
	return ""
}
