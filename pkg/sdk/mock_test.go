package docqa

import (
	"context"
	"strings"
	"sync"

	"github.com/kailas-cloud/docqa/internal/domain"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	"github.com/kailas-cloud/docqa/internal/usecase/pipeline"
)

// --- pipelineUseCase mock ---

type mockPipelineUC struct {
	processFn func(ctx context.Context, doc domain.Document) error
	answerFn  func(ctx context.Context, query string, topK int) (pipeline.Response, error)
	status    pipeline.Status
	resets    int
}

func (m *mockPipelineUC) ProcessDocument(ctx context.Context, doc domain.Document) error {
	return m.processFn(ctx, doc)
}

func (m *mockPipelineUC) AnswerQuery(ctx context.Context, query string, topK int) (pipeline.Response, error) {
	return m.answerFn(ctx, query, topK)
}

func (m *mockPipelineUC) Status() pipeline.Status { return m.status }

func (m *mockPipelineUC) Reset() { m.resets++ }

// --- embedders ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}

var keywords = []string{"refund", "ship"}

// keywordEmbedder maps text to a bag-of-keywords vector with a constant bias dimension.
type keywordEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return EmbeddingResult{}, e.err
	}
	lower := strings.ToLower(text)
	v := make([]float32, len(keywords)+1)
	for i, kw := range keywords {
		if strings.Contains(lower, kw) {
			v[i] = 1
		}
	}
	v[len(keywords)] = 1
	return EmbeddingResult{Embedding: v, PromptTokens: 2, TotalTokens: 2}, nil
}

// --- completers ---

type mockCompleter struct {
	mu      sync.Mutex
	prompts []string
	err     error
}

func (m *mockCompleter) Complete(_ context.Context, prompt string) (Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return Completion{}, m.err
	}
	return Completion{Text: "answer", Model: "mock", PromptTokens: 11, CompletionTokens: 1}, nil
}

func (m *mockCompleter) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// --- health mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }
