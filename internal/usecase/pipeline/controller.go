// Package pipeline owns one document's lifecycle: segmenting, embedding and
// indexing it, then answering questions against the resulting index.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/search/result"
	"github.com/kailas-cloud/docqa/internal/domain/segment"
	"github.com/kailas-cloud/docqa/internal/index"
	"github.com/kailas-cloud/docqa/internal/metrics"
	"github.com/kailas-cloud/docqa/internal/usecase/answer"
)

// Response is an answer together with the ranked segments behind it.
type Response struct {
	Answer answer.Answer
	Hits   []result.Result
}

// Controller is the per-session state machine. Documents are processed one at
// a time; queries run concurrently against the index they were admitted with.
type Controller struct {
	embed     SegmentEmbedder
	retriever Retriever
	synth     Synthesizer
	builder   index.Builder
	chunking  domain.ChunkingConfig
	logger    *zap.Logger
	now       func() time.Time

	procMu sync.Mutex

	mu        sync.Mutex
	state     State
	reason    string
	idx       index.Index
	docID     string
	segments  int
	indexedAt time.Time
	inflight  int
}

// Deps bundles the collaborators of a Controller.
type Deps struct {
	Embedder  SegmentEmbedder
	Retriever Retriever
	Synth     Synthesizer
	Builder   index.Builder
	Logger    *zap.Logger
}

// New creates an Idle controller. Chunking parameters are validated up front.
func New(deps Deps, chunking domain.ChunkingConfig) (*Controller, error) {
	if err := segment.ValidateChunking(chunking.ChunkSize, chunking.Overlap); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		embed:     deps.Embedder,
		retriever: deps.Retriever,
		synth:     deps.Synth,
		builder:   deps.Builder,
		chunking:  chunking,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// ProcessDocument segments, embeds and indexes doc, then publishes the new index
// in place of the current one. The current index keeps answering queries until
// the swap, and survives a failed build. On failure the controller is left in
// Failed and a *domain.FailedError is returned.
func (c *Controller) ProcessDocument(ctx context.Context, doc domain.Document) error {
	c.procMu.Lock()
	defer c.procMu.Unlock()

	start := c.now()
	c.mu.Lock()
	c.state = Segmenting
	c.reason = ""
	c.mu.Unlock()

	segs, err := segment.Split(doc, c.chunking.ChunkSize, c.chunking.Overlap)
	if err != nil {
		return c.fail(doc.ID(), Segmenting, err)
	}

	c.setState(Embedding)
	vectors, err := c.embed.EmbedBatch(ctx, segment.Texts(segs))
	if err != nil {
		return c.fail(doc.ID(), Embedding, err)
	}
	if len(vectors) != len(segs) {
		return c.fail(doc.ID(), Embedding, fmt.Errorf("got %d vectors for %d segments: %w",
			len(vectors), len(segs), domain.ErrEmbeddingProviderError))
	}

	entries := make([]index.Entry, len(segs))
	for i := range segs {
		entries[i] = index.Entry{Vector: vectors[i], Segment: segs[i]}
	}
	idx, err := c.builder.Build(ctx, entries)
	if err != nil {
		return c.fail(doc.ID(), Embedding, fmt.Errorf("build index: %w", err))
	}

	c.mu.Lock()
	c.idx = idx
	c.docID = doc.ID()
	c.state = c.servingState()
	c.segments = len(segs)
	c.indexedAt = c.now()
	c.mu.Unlock()

	metrics.DocumentsProcessedTotal.WithLabelValues("success").Inc()
	metrics.DocumentSegments.Observe(float64(len(segs)))
	c.logger.Info("Document indexed",
		zap.String("document_id", doc.ID()),
		zap.Int("runes", doc.Len()),
		zap.Int("segments", len(segs)),
		zap.Int("dimensions", idx.Dimensions()),
		zap.Duration("duration", c.now().Sub(start)),
	)
	return nil
}

// AnswerQuery retrieves up to topK segments (0 means the default) and synthesizes
// an answer. Valid whenever an index has been published, including while a
// replacement is being built.
func (c *Controller) AnswerQuery(ctx context.Context, query string, topK int) (Response, error) {
	idx, err := c.admitQuery()
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("not_ready").Inc()
		return Response{}, err
	}
	defer c.finishQuery()

	hits, err := c.retriever.Retrieve(ctx, idx, query, topK)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return Response{}, fmt.Errorf("retrieve: %w", err)
	}

	ans, err := c.synth.Synthesize(ctx, result.Segments(hits), query)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return Response{}, fmt.Errorf("synthesize: %w", err)
	}

	metrics.QueriesTotal.WithLabelValues("success").Inc()
	return Response{Answer: ans, Hits: hits}, nil
}

// Status returns the current state and index metadata.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:      c.state,
		Reason:     c.reason,
		DocumentID: c.docID,
		Segments:   c.segments,
		IndexedAt:  c.indexedAt,
	}
}

// Reset drops the index and returns to Idle. It waits for an in-progress
// ProcessDocument to finish.
func (c *Controller) Reset() {
	c.procMu.Lock()
	defer c.procMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle
	c.reason = ""
	c.idx = nil
	c.docID = ""
	c.segments = 0
	c.indexedAt = time.Time{}
}

func (c *Controller) admitQuery() (index.Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idx == nil {
		return nil, fmt.Errorf("cannot answer in state %s: %w", c.state, domain.ErrNotReady)
	}
	c.inflight++
	if c.state == Indexed {
		c.state = Querying
	}
	return c.idx, nil
}

// servingState is Querying while admitted queries are still running. Caller holds mu.
func (c *Controller) servingState() State {
	if c.inflight > 0 {
		return Querying
	}
	return Indexed
}

func (c *Controller) finishQuery() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if c.inflight == 0 && c.state == Querying {
		c.state = Indexed
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// fail records the reason. A previously published index stays queryable.
func (c *Controller) fail(docID string, stage State, err error) error {
	ferr := &domain.FailedError{Stage: stage.String(), Err: err}

	c.mu.Lock()
	c.state = Failed
	c.reason = ferr.Error()
	c.mu.Unlock()

	metrics.DocumentsProcessedTotal.WithLabelValues("failed").Inc()
	c.logger.Warn("Document processing failed",
		zap.String("document_id", docID),
		zap.String("stage", stage.String()),
		zap.Error(err),
	)
	return ferr
}
