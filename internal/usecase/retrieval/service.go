package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/search/result"
	"github.com/kailas-cloud/docqa/internal/index"
)

// Service embeds questions and ranks segments of an index against them.
type Service struct {
	embed    QueryEmbedder
	minScore float64
}

// Option configures a retrieval Service.
type Option func(*Service)

// WithMinScore drops hits scoring below min. Zero disables the filter.
func WithMinScore(min float64) Option {
	return func(s *Service) { s.minScore = min }
}

// New creates a retrieval service.
func New(embed QueryEmbedder, opts ...Option) *Service {
	s := &Service{embed: embed}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Retrieve returns the k segments of idx most similar to query, best first.
// k == 0 means domain.DefaultTopK. The index is never modified.
func (s *Service) Retrieve(
	ctx context.Context, idx index.Index, query string, k int,
) ([]result.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query: %w", domain.ErrEmptyInput)
	}
	if k == 0 {
		k = domain.DefaultTopK
	}
	if k < 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d: %w", k, domain.ErrInvalidInput)
	}
	if idx == nil {
		return nil, fmt.Errorf("no index: %w", domain.ErrNotReady)
	}

	vec, err := s.embed.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	results, err := idx.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	if s.minScore > 0 {
		filtered := results[:0]
		for _, r := range results {
			if r.Score() >= s.minScore {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}
	return results, nil
}
