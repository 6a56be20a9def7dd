package chromem

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/segment"
	"github.com/kailas-cloud/docqa/internal/index"
)

func entries(vecs ...[]float32) []index.Entry {
	out := make([]index.Entry, len(vecs))
	for i, v := range vecs {
		out[i] = index.Entry{
			Vector:  v,
			Segment: segment.Reconstruct("doc", i, i*10, 10, fmt.Sprintf("segment %d", i)),
		}
	}
	return out
}

func TestBuild_Validation(t *testing.T) {
	b := NewBuilder(1)
	if _, err := b.Build(context.Background(), nil); !errors.Is(err, domain.ErrEmptyIndex) {
		t.Errorf("expected ErrEmptyIndex, got %v", err)
	}
	if _, err := b.Build(context.Background(), entries([]float32{1}, []float32{1, 2})); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := b.Build(context.Background(), entries([]float32{0, 0})); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero vector, got %v", err)
	}
}

func TestSearch_RanksLikeFlat(t *testing.T) {
	idx, err := NewBuilder(2).Build(context.Background(), entries(
		[]float32{0, 1},
		[]float32{1, 0},
		[]float32{0.7, 0.7},
		[]float32{2, 0},
	))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Len() != 4 || idx.Dimensions() != 2 {
		t.Fatalf("Len=%d Dimensions=%d", idx.Len(), idx.Dimensions())
	}

	res, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res))
	}
	// Segments 1 and 3 are parallel to the query; insertion order breaks the tie.
	want := []int{1, 3, 2}
	for i, w := range want {
		if got := res[i].Segment().Seq(); got != w {
			t.Errorf("rank %d: seq %d, want %d", i, got, w)
		}
	}
}

func TestSearch_KExceedsSize(t *testing.T) {
	idx, _ := NewBuilder(1).Build(context.Background(), entries([]float32{1, 0}, []float32{0, 1}))
	res, err := idx.Search(context.Background(), []float32{0, 1}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 2 {
		t.Errorf("expected 2 results, got %d", len(res))
	}
	if res[0].Segment().Seq() != 1 {
		t.Errorf("expected segment 1 first, got %d", res[0].Segment().Seq())
	}
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	idx, _ := NewBuilder(1).Build(context.Background(), entries([]float32{1, 0}))
	if _, err := idx.Search(context.Background(), []float32{1}, 1); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}
