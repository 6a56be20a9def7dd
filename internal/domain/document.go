package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Document is the extracted text of one uploaded file. Immutable once created.
type Document struct {
	id   string
	name string
	text string
}

// NewDocument validates extracted text and creates a document.
func NewDocument(id, name, text string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document id is required: %w", ErrInvalidInput)
	}
	if !utf8.ValidString(text) {
		return Document{}, fmt.Errorf("document %q is not valid UTF-8: %w", name, ErrInvalidInput)
	}
	if strings.TrimSpace(text) == "" {
		return Document{}, fmt.Errorf("document %q: %w", name, ErrEmptyInput)
	}
	return Document{id: id, name: name, text: text}, nil
}

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Name returns the original file name, if known.
func (d Document) Name() string { return d.name }

// Text returns the raw extracted text.
func (d Document) Text() string { return d.text }

// Len returns the text length in runes.
func (d Document) Len() int { return utf8.RuneCountInString(d.text) }
