package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/metrics"
	"github.com/akolanti/alexandria/pkg/logger_i"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

const pageTimeout = 10 * time.Second

func GetDocType(docPath string) docModel.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return docModel.PDF
	case ".docx", ".odt", ".rtf":
		return docModel.DOCX
	case ".txt":
		return docModel.TXT
	default:
		return docModel.ERR
	}
}

// Text returns the plain text of the file at path. PDF pages are separated by a blank line.
func Text(path string, contentType docModel.DocType) (string, error) {
	log := logger_i.NewLogger("extract").With("file", filepath.Base(path))
	defer metrics.MeasureDependency(metrics.DepExtraction)()

	var text string
	var err error
	switch contentType {
	case docModel.PDF:
		text, err = extractPDF(path, log)
	case docModel.DOCX, docModel.TXT:
		text, err = extractDocxTxtRtf(path, log)
	default:
		return "", ragError.New(ragError.ValidationFailure, "extract.Text",
			fmt.Sprintf("unsupported content type: %s", contentType))
	}
	if err != nil {
		return "", ragError.Wrap(ragError.ValidationFailure, "extract.Text", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ragError.New(ragError.ValidationFailure, "extract.Text", "document has no extractable text")
	}
	return text, nil
}

func extractPDF(path string, logger *logger_i.Logger) (string, error) {
	logger.Debug("extractPDF", "attempting extraction", path)
	f, err := pdf.Open(path)
	if err != nil {
		logger.Error("failed opening of pdf file", "error", err)
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []string
	numPages := f.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			logger.Debug("extractPDF", "page value is null", i)
			continue
		}

		content, err := protectExtract(page, logger)
		if err != nil {
			// Log warning but continue with other pages
			logger.Warn("Error parsing page content", "page", i, "error", err)
			continue
		}
		pages = append(pages, strings.TrimSpace(content))
	}
	return strings.Join(pages, "\n\n"), nil
}

// File reads a .odt, .docx, .rtf or plaintext file and returns the content as a string
func extractDocxTxtRtf(path string, logger *logger_i.Logger) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		logger.Error("Error extracting content from doc", "error", err)
		return "", fmt.Errorf("failed to extract document: %w", err)
	}
	return text, nil
}

// protectExtract bounds a single page; some malformed PDFs make the parser spin.
func protectExtract(page pdf.Page, logger *logger_i.Logger) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{"", fmt.Errorf("pdf parser panic: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(pageTimeout):
		logger.Error("pageExtract", "timeout", pageTimeout)
		return "", errors.New("timeout")
	}
}
