// Package flat is an exhaustive-scan cosine similarity index.
package flat

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain/search/result"
	"github.com/kailas-cloud/docqa/internal/domain/segment"
	"github.com/kailas-cloud/docqa/internal/index"
)

// Builder builds flat indexes.
type Builder struct{}

// NewBuilder creates a flat index builder.
func NewBuilder() *Builder { return &Builder{} }

var _ index.Builder = (*Builder)(nil)

// Build copies entries into a new immutable index.
func (b *Builder) Build(_ context.Context, entries []index.Entry) (index.Index, error) {
	dim, err := index.Validate(entries)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		dim:      dim,
		vectors:  make([][]float32, len(entries)),
		norms:    make([]float64, len(entries)),
		segments: make([]segment.Segment, len(entries)),
	}
	for i, e := range entries {
		v := make([]float32, dim)
		copy(v, e.Vector)
		idx.vectors[i] = v
		idx.norms[i] = index.Norm(v)
		idx.segments[i] = e.Segment
	}
	return idx, nil
}

// Index scans every vector on each query.
type Index struct {
	dim      int
	vectors  [][]float32
	norms    []float64
	segments []segment.Segment
}

var _ index.Index = (*Index)(nil)

// Len returns the number of indexed segments.
func (x *Index) Len() int { return len(x.segments) }

// Dimensions returns the vector dimensionality.
func (x *Index) Dimensions() int { return x.dim }

// Search returns the k most similar segments.
func (x *Index) Search(_ context.Context, vector []float32, k int) ([]result.Result, error) {
	if err := index.ValidateQuery(vector, x.dim, k); err != nil {
		return nil, err
	}

	qNorm := index.Norm(vector)
	candidates := make([]index.Scored, len(x.vectors))
	for i, v := range x.vectors {
		candidates[i] = index.Scored{Pos: i, Score: index.Cosine(v, vector, x.norms[i], qNorm)}
	}

	top := index.TopK(candidates, k)
	out := make([]result.Result, len(top))
	for rank, c := range top {
		out[rank] = result.New(x.segments[c.Pos], c.Score, rank)
	}
	return out, nil
}
