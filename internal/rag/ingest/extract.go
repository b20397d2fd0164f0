package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"

	"ragline/internal/domain"
	"ragline/pkg/logx"
)

var extractLog = logx.New("extract")

// extractText reads a source file and returns its plain text. The file
// extension picks the extractor.
func extractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".md":
		return extractPlain(path)
	case ".docx", ".rtf", ".odt":
		return extractRich(path)
	default:
		return "", &domain.ExtractionError{
			Source: path,
			Err:    fmt.Errorf("unsupported file type %q", filepath.Ext(path)),
		}
	}
}

func extractPlain(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", &domain.ExtractionError{Source: path, Err: err}
	}
	return string(raw), nil
}

func extractRich(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", &domain.ExtractionError{Source: path, Err: err}
	}
	return text, nil
}

func extractPDF(path string) (string, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return "", &domain.ExtractionError{Source: path, Err: err}
	}

	var b strings.Builder
	numPages := f.NumPage()
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := extractPage(page)
		if err != nil {
			// A single bad page does not fail the document.
			extractLog.Warn("skipping unreadable pdf page", "path", path, "page", i, "error", err)
			continue
		}

		b.WriteString(content)
		b.WriteString("\n\n")
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", &domain.ExtractionError{Source: path, Err: errors.New("no extractable text")}
	}
	return text, nil
}

// extractPage guards against pdf pages whose content stream makes the
// parser hang.
func extractPage(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(10 * time.Second):
		return "", errors.New("page extraction timed out")
	}
}
