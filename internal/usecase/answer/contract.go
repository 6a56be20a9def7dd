package answer

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Completer generates text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (domain.CompletionResult, error)
}
