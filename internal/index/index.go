// Package index defines the in-memory vector index contract shared by the
// flat and chromem backends. An Index is immutable once built, so concurrent
// Search calls need no synchronization.
package index

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/search/result"
	"github.com/kailas-cloud/docqa/internal/domain/segment"
)

// Entry pairs a segment with its embedding.
type Entry struct {
	Vector  []float32
	Segment segment.Segment
}

// Index answers k-nearest-neighbor queries over one document's segments.
type Index interface {
	// Search returns at most min(k, Len()) results by descending cosine
	// similarity, ties in insertion order.
	Search(ctx context.Context, vector []float32, k int) ([]result.Result, error)
	Len() int
	Dimensions() int
}

// Builder creates an Index from entries in insertion order.
type Builder interface {
	Build(ctx context.Context, entries []Entry) (Index, error)
}

// Validate checks that entries are non-empty and share one dimensionality,
// returning that dimensionality.
func Validate(entries []Entry) (int, error) {
	if len(entries) == 0 {
		return 0, domain.ErrEmptyIndex
	}
	dim := len(entries[0].Vector)
	if dim == 0 {
		return 0, fmt.Errorf("entry 0 has an empty vector: %w", domain.ErrDimensionMismatch)
	}
	for i, e := range entries {
		if len(e.Vector) != dim {
			return 0, fmt.Errorf("entry %d has %d dimensions, expected %d: %w",
				i, len(e.Vector), dim, domain.ErrDimensionMismatch)
		}
	}
	return dim, nil
}

// ValidateQuery checks query dimensionality and k.
func ValidateQuery(vector []float32, dim, k int) error {
	if k <= 0 {
		return fmt.Errorf("k must be positive, got %d: %w", k, domain.ErrInvalidInput)
	}
	if len(vector) != dim {
		return fmt.Errorf("query has %d dimensions, index has %d: %w",
			len(vector), dim, domain.ErrDimensionMismatch)
	}
	return nil
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b given their norms.
// Zero-norm vectors score 0.
func Cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

// Scored is a candidate position with its similarity.
type Scored struct {
	Pos   int
	Score float64
}

// TopK orders candidates by descending score, ties by ascending position,
// and truncates to k.
func TopK(candidates []Scored, k int) []Scored {
	slices.SortStableFunc(candidates, func(a, b Scored) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return a.Pos - b.Pos
		}
	})
	if k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates
}
