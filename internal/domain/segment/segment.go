package segment

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Segment is a trimmed window of document text used as a retrieval unit.
// Offset and Length are measured in runes.
type Segment struct {
	documentID string
	seq        int
	offset     int
	length     int
	text       string
}

// Reconstruct creates a Segment without validation (index hydration).
func Reconstruct(documentID string, seq, offset, length int, text string) Segment {
	return Segment{documentID: documentID, seq: seq, offset: offset, length: length, text: text}
}

// ID returns a stable identifier: "<document>:<seq>".
func (s Segment) ID() string { return s.documentID + ":" + strconv.Itoa(s.seq) }

// DocumentID returns the owning document identifier.
func (s Segment) DocumentID() string { return s.documentID }

// Seq returns the position of the segment in the split sequence.
func (s Segment) Seq() int { return s.seq }

// Offset returns the rune offset of the segment in the document text.
func (s Segment) Offset() int { return s.offset }

// Length returns the segment length in runes.
func (s Segment) Length() int { return s.length }

// Text returns the segment content.
func (s Segment) Text() string { return s.text }

// Texts extracts the content of each segment, preserving order.
func Texts(segs []Segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.text
	}
	return out
}

// ValidateChunking checks that the window parameters produce a positive stride.
func ValidateChunking(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d: %w", chunkSize, domain.ErrConfiguration)
	}
	if overlap < 0 {
		return fmt.Errorf("overlap must not be negative, got %d: %w", overlap, domain.ErrConfiguration)
	}
	if overlap >= chunkSize {
		return fmt.Errorf("overlap %d must be smaller than chunk size %d: %w",
			overlap, chunkSize, domain.ErrConfiguration)
	}
	return nil
}

// Split walks the document text in strides of chunkSize-overlap runes.
// Every window of up to chunkSize runes is trimmed and kept unless blank.
// The walk ends with the first window that reaches the end of the text.
func Split(doc domain.Document, chunkSize, overlap int) ([]Segment, error) {
	if err := ValidateChunking(chunkSize, overlap); err != nil {
		return nil, err
	}

	runes := []rune(doc.Text())
	if strings.TrimSpace(doc.Text()) == "" {
		return nil, fmt.Errorf("split document %q: %w", doc.ID(), domain.ErrEmptyInput)
	}

	stride := chunkSize - overlap
	var segs []Segment

	for start := 0; start < len(runes); start += stride {
		end := min(start+chunkSize, len(runes))

		lo, hi := trimBounds(runes, start, end)
		if lo < hi {
			segs = append(segs, Segment{
				documentID: doc.ID(),
				seq:        len(segs),
				offset:     lo,
				length:     hi - lo,
				text:       string(runes[lo:hi]),
			})
		}

		if end == len(runes) {
			break
		}
	}

	if len(segs) == 0 {
		return nil, fmt.Errorf("split document %q: no segments: %w", doc.ID(), domain.ErrEmptyInput)
	}
	return segs, nil
}

// trimBounds narrows [lo, hi) to exclude leading and trailing whitespace.
func trimBounds(runes []rune, lo, hi int) (int, int) {
	for lo < hi && unicode.IsSpace(runes[lo]) {
		lo++
	}
	for hi > lo && unicode.IsSpace(runes[hi-1]) {
		hi--
	}
	return lo, hi
}
