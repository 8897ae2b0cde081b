package extract

import (
	"fmt"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// PlainTextBackend reads embedded text using ledongthuc/pdf.
type PlainTextBackend struct{}

// Name implements NativeBackend.
func (PlainTextBackend) Name() string { return "pdftext" }

// ExtractText returns the concatenated plain text of every page.
func (PlainTextBackend) ExtractText(path string) (string, error) {
	f, doc, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var builder strings.Builder
	total := doc.NumPage()
	for page := 1; page <= total; page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", page, err)
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// Metadata concatenates the values of the document Info dictionary (title,
// author, subject and the rest) into one searchable string. Unreadable files
// yield an empty string.
func Metadata(path string) string {
	text, err := readMetadata(path)
	if err != nil {
		return ""
	}
	return text
}

func readMetadata(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic reading metadata: %v", r)
		}
	}()

	f, doc, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	info := doc.Trailer().Key("Info")
	if info.IsNull() {
		return "", nil
	}
	var builder strings.Builder
	for _, key := range info.Keys() {
		if v := info.Key(key).Text(); v != "" {
			builder.WriteString(v)
			builder.WriteString("\n")
		}
	}
	return builder.String(), nil
}
