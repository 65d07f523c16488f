package attachment

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// extractPlainText decodes a text attachment as UTF-8.
func extractPlainText(data []byte) Result {
	if !utf8.Valid(data) {
		return failed("text attachment is not valid UTF-8")
	}
	return success(strings.TrimSpace(string(data)), "plain text")
}

// extractHTML strips tags and collapses whitespace.
func extractHTML(data []byte) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return failed(fmt.Sprintf("HTML parse failed: %v", err))
	}
	doc.Find("script, style").Remove()
	text := whitespaceRun.ReplaceAllString(doc.Text(), " ")
	return success(strings.TrimSpace(text), "HTML stripped")
}
