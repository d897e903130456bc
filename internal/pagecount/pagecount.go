// Package pagecount derives a book's page count from its raw content so
// newly uploaded books get a usable total before any viewer reports the
// real one.
package pagecount

import (
	"archive/zip"
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"readkeeper/pkg/domain"
)

// runesPerPage approximates one printed page of prose.
const runesPerPage = 1800

// Detect returns the page count for the given content. ok is false when
// the format carries no extractable count (DRM container formats) or the
// content cannot be parsed; callers keep whatever guess they already have.
func Detect(ft domain.FileType, data []byte) (pages int, ok bool) {
	if len(data) == 0 {
		return 0, false
	}
	switch ft {
	case domain.FileTypePDF:
		return detectPDF(data)
	case domain.FileTypeEPUB:
		return detectEPUB(data)
	case domain.FileTypeTXT:
		return estimate(string(data)), true
	case domain.FileTypeHTML:
		return estimate(extractText(data)), true
	default:
		// mobi/azw/azw3 need a dedicated container parser.
		return 0, false
	}
}

// detectPDF reads the exact page count from the PDF page tree.
func detectPDF(data []byte) (int, bool) {
	defer func() {
		// The pdf library panics on some malformed files.
		_ = recover()
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, false
	}
	n := reader.NumPage()
	if n <= 0 {
		return 0, false
	}
	return n, true
}

// detectEPUB estimates from the text of every XHTML chapter in the
// container.
func detectEPUB(data []byte) (int, bool) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, false
	}
	var text strings.Builder
	for _, file := range reader.File {
		name := strings.ToLower(file.Name)
		if !strings.HasSuffix(name, ".html") && !strings.HasSuffix(name, ".xhtml") && !strings.HasSuffix(name, ".htm") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(rc)
		rc.Close()
		text.WriteString(extractText(buf.Bytes()))
		text.WriteByte('\n')
	}
	if text.Len() == 0 {
		return 0, false
	}
	return estimate(text.String()), true
}

// extractText strips markup, keeping visible text only.
func extractText(data []byte) string {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return string(data)
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}

func estimate(text string) int {
	runes := utf8.RuneCountInString(strings.TrimSpace(text))
	if runes == 0 {
		return 1
	}
	pages := runes / runesPerPage
	if runes%runesPerPage != 0 {
		pages++
	}
	return pages
}
