package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// flakyEmbedder fails the first failures calls with err, then succeeds.
type flakyEmbedder struct {
	failures int
	err      error
	calls    int
	dim      int
	tokens   int
	batch    func(texts []string) [][]float32
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := f.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0], TotalTokens: res.TotalTokens}, nil
}

func (f *flakyEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.calls++
	if f.calls <= f.failures {
		return domain.BatchEmbeddingResult{}, f.err
	}
	if f.batch != nil {
		return domain.BatchEmbeddingResult{Embeddings: f.batch(texts), TotalTokens: f.tokens}, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dim)
		v[0] = float32(i + 1)
		out[i] = v
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: f.tokens}, nil
}

type recordingSleeper struct {
	waits []time.Duration
	err   error
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return r.err
}

func newTestGateway(t *testing.T, e domain.Embedder) (*Gateway, *recordingSleeper) {
	t.Helper()
	g, err := NewGateway(e, DefaultRetryPolicy(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	s := &recordingSleeper{}
	return g.WithSleeper(s.sleep), s
}

func TestGateway_EmbedBatch_Success(t *testing.T) {
	g, s := newTestGateway(t, &flakyEmbedder{dim: 3, tokens: 7})
	ctx, usage := domain.NewContextWithUsage(context.Background())

	vecs, err := g.EmbedBatch(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 2 || vecs[1][0] != 2 {
		t.Errorf("unexpected vectors: %v", vecs)
	}
	if len(s.waits) != 0 {
		t.Errorf("expected no backoff, got %v", s.waits)
	}
	if usage.TotalTokens() != 7 || !usage.Used() {
		t.Errorf("expected usage 7 tokens, got %d", usage.TotalTokens())
	}
}

func TestGateway_EmptyInput(t *testing.T) {
	e := &flakyEmbedder{dim: 2}
	g, _ := newTestGateway(t, e)

	for _, texts := range [][]string{nil, {}, {"ok", "  \n"}} {
		_, err := g.EmbedBatch(context.Background(), texts)
		if !errors.Is(err, domain.ErrEmptyInput) {
			t.Errorf("texts %q: expected ErrEmptyInput, got %v", texts, err)
		}
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			t.Errorf("validation error must be distinguishable from unavailability")
		}
	}
	if _, err := g.EmbedOne(context.Background(), ""); !errors.Is(err, domain.ErrEmptyInput) {
		t.Errorf("EmbedOne: expected ErrEmptyInput, got %v", err)
	}
	if e.calls != 0 {
		t.Errorf("provider called %d times for invalid input", e.calls)
	}
}

func TestGateway_RecoversFromTransientFailures(t *testing.T) {
	e := &flakyEmbedder{failures: 2, err: domain.MarkTransient(errors.New("429")), dim: 2}
	g, s := newTestGateway(t, e)

	v, err := g.EmbedOne(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v) != 2 {
		t.Errorf("unexpected vector %v", v)
	}
	if e.calls != 3 {
		t.Errorf("expected 3 calls, got %d", e.calls)
	}
	want := []time.Duration{4 * time.Second, 8 * time.Second}
	if len(s.waits) != 2 || s.waits[0] != want[0] || s.waits[1] != want[1] {
		t.Errorf("expected waits %v, got %v", want, s.waits)
	}
}

func TestGateway_SustainedTransientFailure(t *testing.T) {
	cause := domain.MarkTransient(errors.New("connection reset"))
	e := &flakyEmbedder{failures: 100, err: cause, dim: 2}
	g, s := newTestGateway(t, e)

	_, err := g.EmbedBatch(context.Background(), []string{"a"})
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected last cause in chain, got %v", err)
	}
	var ue *domain.EmbeddingUnavailableError
	if !errors.As(err, &ue) || ue.Attempts != 3 {
		t.Errorf("expected 3 attempts recorded, got %+v", ue)
	}
	if e.calls != 3 {
		t.Errorf("expected exactly 3 calls, got %d", e.calls)
	}
	if len(s.waits) != 2 {
		t.Errorf("expected 2 waits, got %d", len(s.waits))
	}
}

func TestGateway_PermanentFailureNoRetry(t *testing.T) {
	cause := errors.New("400 malformed input")
	e := &flakyEmbedder{failures: 100, err: cause, dim: 2}
	g, s := newTestGateway(t, e)

	_, err := g.EmbedBatch(context.Background(), []string{"a"})
	if !errors.Is(err, cause) {
		t.Fatalf("expected permanent cause, got %v", err)
	}
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Error("permanent failure must not be reported as unavailable")
	}
	if e.calls != 1 || len(s.waits) != 0 {
		t.Errorf("expected one call and no waits, got %d calls / %d waits", e.calls, len(s.waits))
	}
}

func TestGateway_CancelledDuringBackoff(t *testing.T) {
	e := &flakyEmbedder{failures: 100, err: domain.MarkTransient(errors.New("503")), dim: 2}
	g, s := newTestGateway(t, e)
	s.err = context.DeadlineExceeded

	_, err := g.EmbedBatch(context.Background(), []string{"a"})
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected unavailable + deadline, got %v", err)
	}
	if e.calls != 1 {
		t.Errorf("expected 1 call before the cancelled wait, got %d", e.calls)
	}
}

func TestGateway_AlreadyCancelled(t *testing.T) {
	e := &flakyEmbedder{dim: 2}
	g, _ := newTestGateway(t, e)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.EmbedBatch(ctx, []string{"a"})
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected unavailable + canceled, got %v", err)
	}
	if e.calls != 0 {
		t.Errorf("provider called after cancellation")
	}
}

func TestGateway_ProviderContractViolations(t *testing.T) {
	short := &flakyEmbedder{batch: func([]string) [][]float32 { return [][]float32{{1}} }}
	g, _ := newTestGateway(t, short)
	if _, err := g.EmbedBatch(context.Background(), []string{"a", "b"}); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError for short response, got %v", err)
	}

	mixed := &flakyEmbedder{batch: func([]string) [][]float32 { return [][]float32{{1, 2}, {1}} }}
	g, _ = newTestGateway(t, mixed)
	if _, err := g.EmbedBatch(context.Background(), []string{"a", "b"}); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch for mixed dims, got %v", err)
	}
}

func TestGateway_MaxBackoff(t *testing.T) {
	g, _ := newTestGateway(t, &flakyEmbedder{dim: 1})
	if got := g.MaxBackoff(); got != 12*time.Second {
		t.Errorf("expected 12s total backoff, got %s", got)
	}
}

func TestNewGateway_InvalidPolicy(t *testing.T) {
	_, err := NewGateway(&flakyEmbedder{}, RetryPolicy{}, zap.NewNop())
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
