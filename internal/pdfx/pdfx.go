// Package pdfx extracts text from the PDF documents a user drops into the
// documents directory, for inclusion in generation context.
package pdfx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// MaxFiles caps how many PDFs are considered per aggregation.
const MaxFiles = 5

// MaxCharsPerFile caps the extracted text taken from one document.
const MaxCharsPerFile = 5000

// Document is the extracted text of one PDF
type Document struct {
	Filename  string `json:"filename"`
	PageCount int    `json:"page_count"`
	Text      string `json:"text"`
	Truncated bool   `json:"truncated,omitempty"`
}

// ExtractError reports a PDF that could not be read
type ExtractError struct {
	Filename string
	Cause    error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("pdf extract error for %s: %v", e.Filename, e.Cause)
}

func (e *ExtractError) Unwrap() error {
	return e.Cause
}

// Extract reads the text content of one PDF file, capped at MaxCharsPerFile.
func Extract(path string) (*Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &ExtractError{Filename: filepath.Base(path), Cause: err}
	}
	defer func() { _ = f.Close() }()

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, &ExtractError{Filename: filepath.Base(path), Cause: err}
	}

	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return nil, &ExtractError{Filename: filepath.Base(path), Cause: err}
	}

	doc := &Document{
		Filename:  filepath.Base(path),
		PageCount: reader.NumPage(),
		Text:      strings.TrimSpace(b.String()),
	}

	if len(doc.Text) > MaxCharsPerFile {
		doc.Text = truncateRunes(doc.Text, MaxCharsPerFile)
		doc.Truncated = true
	}

	return doc, nil
}

// truncateRunes cuts s to at most max bytes without splitting a rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Loader reads the PDF documents under one directory.
type Loader struct {
	dir    string
	logger *zap.Logger
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{dir: dir, logger: logger}
}

// LoadAll extracts text from up to MaxFiles PDFs in directory listing order.
// Unreadable documents are logged and skipped; a missing directory yields
// an empty result.
func (l *Loader) LoadAll() ([]*Document, error) {
	entries, err := os.ReadDir(l.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	if len(names) > MaxFiles {
		names = names[:MaxFiles]
	}

	var docs []*Document
	for _, name := range names {
		doc, err := Extract(filepath.Join(l.dir, name))
		if err != nil {
			l.logger.Warn("skipping unreadable PDF", zap.String("file", name), zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}
