// Package extract turns uploaded resume and job description files into
// plain text for analysis.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

var ErrUnsupportedType = errors.New("extract: unsupported file type")

// DetectMime resolves the content type from the declared header, falling
// back to the file extension.
func DetectMime(declared, fileName string) string {
	declared = strings.ToLower(strings.TrimSpace(strings.SplitN(declared, ";", 2)[0]))
	switch declared {
	case MimePDF, MimeDOCX, MimeText:
		return declared
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	case ".txt", ".md":
		return MimeText
	}
	return declared
}

// Supported reports whether Text can handle mime.
func Supported(mime string) bool {
	switch mime {
	case MimePDF, MimeDOCX, MimeText:
		return true
	}
	return false
}

func Text(mime string, data []byte) (string, error) {
	var (
		out string
		err error
	)
	switch mime {
	case MimeText:
		out = string(data)
	case MimePDF:
		out, err = pdfText(data)
	case MimeDOCX:
		out, err = docxText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
	}
	if err != nil {
		return "", err
	}
	return normalize(out), nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

var (
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
)

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	content := paragraphEnd.ReplaceAllString(doc.Editable().GetContent(), "\n")
	return html.UnescapeString(xmlTag.ReplaceAllString(content, "")), nil
}

var blankRun = regexp.MustCompile(`\n{3,}`)

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(blankRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
