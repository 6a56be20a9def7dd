package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/segment"
)

const promptTemplate = "Based on the following context, please answer the question.\n" +
	"Context: %s\n" +
	"Question: %s\n" +
	"Answer:"

// Answer is generated text with the segments it was grounded on.
type Answer struct {
	Text             string
	Model            string
	Sources          []segment.Segment
	PromptTokens     int
	CompletionTokens int
}

// Service builds a prompt from retrieved segments and asks the model.
type Service struct {
	completer Completer
}

// New creates an answer synthesizer.
func New(completer Completer) *Service {
	return &Service{completer: completer}
}

// BuildPrompt joins segment texts with newlines, in the given order, into the prompt.
func BuildPrompt(segments []segment.Segment, query string) string {
	return fmt.Sprintf(promptTemplate, strings.Join(segment.Texts(segments), "\n"), query)
}

// Synthesize answers query from segments. Completer failures are returned as
// *domain.GenerationError without retry.
func (s *Service) Synthesize(ctx context.Context, segments []segment.Segment, query string) (Answer, error) {
	if strings.TrimSpace(query) == "" {
		return Answer{}, fmt.Errorf("query: %w", domain.ErrEmptyInput)
	}

	res, err := s.completer.Complete(ctx, BuildPrompt(segments, query))
	if err != nil {
		return Answer{}, &domain.GenerationError{Err: err}
	}

	return Answer{
		Text:             res.Text,
		Model:            res.Model,
		Sources:          segments,
		PromptTokens:     res.PromptTokens,
		CompletionTokens: res.CompletionTokens,
	}, nil
}
