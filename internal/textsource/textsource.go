// Package textsource turns uploaded documents into the flat text the
// extractors search. It never fails: a document it cannot read yields "".
package textsource

import (
	"bytes"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds compatibility characters (ligatures, full-width digits,
// non-breaking spaces) and unifies line endings.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// PDF extracts the plain text of every page, one page per line block. Pages
// that fail to decode are skipped. When no page yields text the whole
// document stream is tried once more before giving up.
func PDF(r io.ReaderAt, size int64, log *zap.Logger) (text string) {
	if log == nil {
		log = zap.NewNop()
	}

	defer func() {
		// The decoder panics on some malformed files.
		if rec := recover(); rec != nil {
			log.Warn("pdf decoder panicked", zap.Any("panic", rec))
			text = ""
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		log.Warn("unreadable pdf", zap.Error(err))
		return ""
	}

	var b strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			log.Debug("skipping pdf page", zap.Int("page", i), zap.Error(err))
			continue
		}
		if content != "" {
			b.WriteString(content)
			b.WriteString("\n")
		}
	}

	if strings.TrimSpace(b.String()) == "" {
		return Normalize(wholeDocument(reader, log))
	}
	return Normalize(b.String())
}

func wholeDocument(reader *pdf.Reader, log *zap.Logger) string {
	plain, err := reader.GetPlainText()
	if err != nil {
		log.Debug("pdf has no extractable text", zap.Error(err))
		return ""
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return ""
	}
	return buf.String()
}

// PDFBytes is PDF over an in-memory document.
func PDFBytes(data []byte, log *zap.Logger) string {
	return PDF(bytes.NewReader(data), int64(len(data)), log)
}
