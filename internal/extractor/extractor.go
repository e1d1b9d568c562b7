// Package extractor converts uploaded proposal documents into plain text for
// the section splitter. Heading lines are preserved verbatim so numbered
// section markers survive extraction.
package extractor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyDocument is returned when a supported file yields no text.
var ErrEmptyDocument = errors.New("extractor: document contains no text")

// Extractor converts raw document bytes into plain text.
type Extractor interface {
	Extract(r io.Reader, filename string) (string, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".json": true,
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFExtractor{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	case ".json":
		return &JSONExtractor{}, nil
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ExtractFile opens path, dispatches on its extension, and returns the
// extracted text. Empty text is an error: downstream stages cannot recover
// from a blank source document.
func ExtractFile(path string) (string, error) {
	ex, err := ForFile(path)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	text, err := ex.Extract(f, filepath.Base(path))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}
