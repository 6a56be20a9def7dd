package retrieval

import "context"

// QueryEmbedder vectorizes a single query text.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}
