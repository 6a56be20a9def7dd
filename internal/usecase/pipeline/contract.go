package pipeline

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain/search/result"
	"github.com/kailas-cloud/docqa/internal/domain/segment"
	"github.com/kailas-cloud/docqa/internal/index"
	"github.com/kailas-cloud/docqa/internal/usecase/answer"
)

// SegmentEmbedder vectorizes segment texts in order.
type SegmentEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever ranks indexed segments against a question.
type Retriever interface {
	Retrieve(ctx context.Context, idx index.Index, query string, k int) ([]result.Result, error)
}

// Synthesizer answers a question from retrieved segments.
type Synthesizer interface {
	Synthesize(ctx context.Context, segments []segment.Segment, query string) (answer.Answer, error)
}
