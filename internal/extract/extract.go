// Package extract turns uploaded plain-text files into document text.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// DefaultMaxBytes bounds an upload at 10 MiB.
const DefaultMaxBytes = 10 << 20

var supported = map[string]bool{
	"":          true,
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor reads plain text and markdown.
type Extractor struct {
	maxBytes int64
}

// New creates an extractor. maxBytes <= 0 means DefaultMaxBytes.
func New(maxBytes int64) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Extractor{maxBytes: maxBytes}
}

// Extract reads r fully and returns its text with line endings normalized to "\n".
// name selects the format by extension.
func (e *Extractor) Extract(r io.Reader, name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !supported[ext] {
		return "", fmt.Errorf("%s: unsupported format %q: %w", name, ext, domain.ErrExtraction)
	}

	data, err := io.ReadAll(io.LimitReader(r, e.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > e.maxBytes {
		return "", fmt.Errorf("%s exceeds %d bytes: %w", name, e.maxBytes, domain.ErrInvalidInput)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not UTF-8 text: %w", name, domain.ErrExtraction)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no readable text found in %s: %w", name, domain.ErrExtraction)
	}
	return text, nil
}
