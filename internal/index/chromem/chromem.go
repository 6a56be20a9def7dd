// Package chromem backs the vector index with a chromem-go collection.
package chromem

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/search/result"
	"github.com/kailas-cloud/docqa/internal/domain/segment"
	"github.com/kailas-cloud/docqa/internal/index"
)

const collectionName = "segments"

// Builder builds chromem-backed indexes, one in-memory DB per index.
type Builder struct {
	concurrency int
}

// NewBuilder creates a chromem index builder.
// concurrency <= 0 uses GOMAXPROCS.
func NewBuilder(concurrency int) *Builder {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Builder{concurrency: concurrency}
}

var _ index.Builder = (*Builder)(nil)

// Build loads pre-computed embeddings into a fresh collection.
// chromem normalizes vectors on insert, so zero vectors are rejected.
func (b *Builder) Build(ctx context.Context, entries []index.Entry) (index.Index, error) {
	dim, err := index.Validate(entries)
	if err != nil {
		return nil, err
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, rejectEmbed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	docs := make([]chromem.Document, len(entries))
	segs := make([]segment.Segment, len(entries))
	for i, e := range entries {
		if index.Norm(e.Vector) == 0 {
			return nil, fmt.Errorf("entry %d has a zero vector: %w", i, domain.ErrInvalidInput)
		}
		v := make([]float32, dim)
		copy(v, e.Vector)
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Embedding: v,
			Content:   e.Segment.Text(),
		}
		segs[i] = e.Segment
	}

	if err := col.AddDocuments(ctx, docs, b.concurrency); err != nil {
		return nil, fmt.Errorf("add documents: %w", err)
	}

	return &Index{col: col, dim: dim, segments: segs}, nil
}

// rejectEmbed is installed as the collection embedding func; every document
// and query arrives with its vector already computed.
func rejectEmbed(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("chromem index embeds nothing itself: %w", domain.ErrInvalidInput)
}

// Index delegates similarity scoring to chromem.
type Index struct {
	col      *chromem.Collection
	dim      int
	segments []segment.Segment
}

var _ index.Index = (*Index)(nil)

// Len returns the number of indexed segments.
func (x *Index) Len() int { return len(x.segments) }

// Dimensions returns the vector dimensionality.
func (x *Index) Dimensions() int { return x.dim }

// Search queries the whole collection so that ties at the k boundary
// resolve by insertion order, then truncates.
func (x *Index) Search(ctx context.Context, vector []float32, k int) ([]result.Result, error) {
	if err := index.ValidateQuery(vector, x.dim, k); err != nil {
		return nil, err
	}

	var candidates []index.Scored
	if index.Norm(vector) == 0 {
		candidates = make([]index.Scored, len(x.segments))
		for i := range candidates {
			candidates[i] = index.Scored{Pos: i}
		}
	} else {
		q := make([]float32, len(vector))
		copy(q, vector)
		hits, err := x.col.QueryEmbedding(ctx, q, len(x.segments), nil, nil)
		if err != nil {
			return nil, fmt.Errorf("chromem query: %w", err)
		}
		candidates = make([]index.Scored, 0, len(hits))
		for _, h := range hits {
			pos, err := strconv.Atoi(h.ID)
			if err != nil || pos < 0 || pos >= len(x.segments) {
				return nil, fmt.Errorf("chromem returned unknown id %q", h.ID)
			}
			candidates = append(candidates, index.Scored{Pos: pos, Score: float64(h.Similarity)})
		}
	}

	top := index.TopK(candidates, k)
	out := make([]result.Result, len(top))
	for rank, c := range top {
		out[rank] = result.New(x.segments[c.Pos], c.Score, rank)
	}
	return out, nil
}
