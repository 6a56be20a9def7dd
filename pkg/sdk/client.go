package docqa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/db"
	dbRedis "github.com/kailas-cloud/docqa/internal/db/redis"
	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/index"
	"github.com/kailas-cloud/docqa/internal/index/chromem"
	"github.com/kailas-cloud/docqa/internal/index/flat"
	"github.com/kailas-cloud/docqa/internal/metrics"
	"github.com/kailas-cloud/docqa/internal/repository/embcache"
	openaiTransport "github.com/kailas-cloud/docqa/internal/transport/openai"
	"github.com/kailas-cloud/docqa/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/docqa/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	"github.com/kailas-cloud/docqa/internal/usecase/pipeline"
	"github.com/kailas-cloud/docqa/internal/usecase/retrieval"
)

const defaultReadinessTimeout = 10 * time.Second

// pipelineUseCase is the internal interface for the document pipeline.
type pipelineUseCase interface {
	ProcessDocument(ctx context.Context, doc domain.Document) error
	AnswerQuery(ctx context.Context, query string, topK int) (pipeline.Response, error)
	Status() pipeline.Status
	Reset()
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the docqa SDK entry point. It is safe for concurrent use.
type Client struct {
	store    db.Store
	pipeline pipelineUseCase
	health   healthUseCase
	obs      *observer
}

// New creates a Client. The provided context is used for the cache readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultOverlap,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	emb, cmp, err := providers(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store db.Store
	if cfg.redisAddr != "" {
		store, err = createStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	c, err := wireClient(store, emb, cmp, cfg, obs)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return c, nil
}

// providers resolves the embedding and chat backends from the options.
func providers(cfg *clientConfig) (domain.Embedder, answer.Completer, error) {
	var emb domain.Embedder
	var cmp answer.Completer

	if cfg.openai != nil {
		conn := openaiTransport.Config{
			APIKey:   cfg.openai.apiKey,
			BaseURL:  cfg.openai.baseURL,
			Provider: "openai",
			Logger:   zap.NewNop(),
		}
		embCfg := conn
		embCfg.Model = cfg.openai.embeddingModel
		emb = openaiTransport.NewEmbedder(&embCfg)

		chatCfg := conn
		chatCfg.Model = cfg.openai.chatModel
		cmp = openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{Config: chatCfg})
	}
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder}
	}
	if cfg.completer != nil {
		cmp = &completerAdapter{inner: cfg.completer}
	}

	if emb == nil {
		return nil, nil, errors.New("docqa: embedder required (use WithOpenAI or WithEmbedder)")
	}
	if cmp == nil {
		return nil, nil, errors.New("docqa: completer required (use WithOpenAI or WithCompleter)")
	}
	return emb, cmp, nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    []string{cfg.redisAddr},
		Password: cfg.redisPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("docqa: create redis store: %w", err)
	}
	if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("docqa: cache not ready: %w", err)
	}
	return s, nil
}

func wireClient(
	store db.Store,
	emb domain.Embedder,
	cmp answer.Completer,
	cfg *clientConfig,
	obs *observer,
) (*Client, error) {
	logger := zap.NewNop()

	chain := emb
	if store != nil {
		chain = embcache.New(emb, store, "sdk", cfg.cacheTTL, metrics.EmbeddingCacheTotal, logger)
	}
	chain = embeddinguc.NewInstrumentedEmbedder(chain, "sdk", "", nil, logger)

	policy := embeddinguc.DefaultRetryPolicy()
	if cfg.retryAttempts > 0 {
		policy.MaxAttempts = cfg.retryAttempts
		policy.Floor = cfg.retryFloor
		policy.Ceiling = cfg.retryCeiling
	}
	gw, err := embeddinguc.NewGateway(chain, policy, logger)
	if err != nil {
		return nil, fmt.Errorf("docqa: %w", err)
	}

	var opts []retrieval.Option
	if cfg.minScore != 0 {
		opts = append(opts, retrieval.WithMinScore(cfg.minScore))
	}

	var builder index.Builder = flat.NewBuilder()
	if cfg.chromem {
		builder = chromem.NewBuilder(0)
	}

	ctrl, err := pipeline.New(pipeline.Deps{
		Embedder:  gw,
		Retriever: retrieval.New(gw, opts...),
		Synth:     answer.New(cmp),
		Builder:   builder,
		Logger:    logger,
	}, domain.ChunkingConfig{ChunkSize: cfg.chunkSize, Overlap: cfg.overlap})
	if err != nil {
		return nil, fmt.Errorf("docqa: %w", err)
	}

	// Untyped nil keeps the cache check disabled.
	var cache healthuc.Pinger
	if store != nil {
		cache = store
	}
	var embChecker, cmpChecker healthuc.ProviderChecker
	if hc, ok := emb.(domain.HealthChecker); ok {
		embChecker = hc
	}
	if hc, ok := cmp.(domain.HealthChecker); ok {
		cmpChecker = hc
	}

	return &Client{
		store:    store,
		pipeline: ctrl,
		health:   healthuc.New(cache, embChecker, cmpChecker, logger),
		obs:      obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks cache connectivity. Without a cache it always succeeds.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err, opStats{}) }()

	if c.store == nil {
		return nil
	}
	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Load replaces the current document with text. name is informational.
// On failure the client is left in StateFailed and ErrProcessingFailed is
// returned; a previously loaded document keeps answering questions.
func (c *Client) Load(ctx context.Context, name, text string) (st Status, err error) {
	start := time.Now()
	ctx, usage := domain.NewContextWithUsage(ctx)
	defer func() {
		c.obs.observe("load", start, err, opStats{document: name, segments: st.Segments, tokens: usage.TotalTokens()})
	}()

	doc, err := domain.NewDocument(uuid.NewString(), name, text)
	if err != nil {
		return Status{}, fmt.Errorf("load: %w", err)
	}
	if err = c.pipeline.ProcessDocument(ctx, doc); err != nil {
		return c.Status(), fmt.Errorf("load: %w", err)
	}
	return c.Status(), nil
}

// Ask answers question from the loaded document. It returns ErrNotReady
// until a Load has succeeded.
func (c *Client) Ask(ctx context.Context, question string, opts ...AskOption) (ans Answer, err error) {
	start := time.Now()
	ctx, usage := domain.NewContextWithUsage(ctx)
	defer func() {
		c.obs.observe("ask", start, err, opStats{sources: len(ans.Sources), tokens: usage.TotalTokens()})
	}()

	cfg := askConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	resp, err := c.pipeline.AnswerQuery(ctx, question, cfg.topK)
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	return answerFromResponse(resp, usage.TotalTokens()), nil
}

// Status returns the pipeline state and the loaded document's metadata.
func (c *Client) Status() Status {
	st := c.pipeline.Status()
	return Status{
		State:      State(st.State.String()),
		Reason:     st.Reason,
		DocumentID: st.DocumentID,
		Segments:   st.Segments,
		IndexedAt:  st.IndexedAt,
	}
}

// Reset drops the loaded document.
func (c *Client) Reset() {
	start := time.Now()
	c.pipeline.Reset()
	c.obs.observe("reset", start, nil, opStats{})
}

// Health checks the cache and providers.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

func answerFromResponse(resp pipeline.Response, embeddingTokens int) Answer {
	sources := make([]Source, len(resp.Hits))
	for i := range resp.Hits {
		hit := &resp.Hits[i]
		seg := hit.Segment()
		sources[i] = Source{
			SegmentID: seg.ID(),
			Offset:    seg.Offset(),
			Length:    seg.Length(),
			Text:      seg.Text(),
			Score:     hit.Score(),
		}
	}
	return Answer{
		Text:             resp.Answer.Text,
		Model:            resp.Answer.Model,
		Sources:          sources,
		PromptTokens:     resp.Answer.PromptTokens,
		CompletionTokens: resp.Answer.CompletionTokens,
		EmbeddingTokens:  embeddingTokens,
	}
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// BatchEmbed uses the inner BatchEmbedder when available.
func (a *embedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	be, ok := a.inner.(BatchEmbedder)
	if !ok {
		return domain.BatchFallback(ctx, a, texts)
	}
	r, err := be.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// completerAdapter wraps public Completer to satisfy answer.Completer.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	r, err := a.inner.Complete(ctx, prompt)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}
	return domain.CompletionResult{
		Text:             r.Text,
		Model:            r.Model,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
	}, nil
}
