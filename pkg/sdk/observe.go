package docqa

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// opStats are the figures an operation reports besides its outcome.
type opStats struct {
	document string // load only
	segments int
	sources  int
	tokens   int
}

func (s opStats) logAttrs() []any {
	var attrs []any
	if s.document != "" {
		attrs = append(attrs, "document", s.document)
	}
	if s.segments > 0 {
		attrs = append(attrs, "segments", s.segments)
	}
	if s.sources > 0 {
		attrs = append(attrs, "sources", s.sources)
	}
	if s.tokens > 0 {
		attrs = append(attrs, "embedding_tokens", s.tokens)
	}
	return attrs
}

// outcome is the status label for err. Load failures carry their cause, so
// the more specific classes are checked first.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotReady):
		return "not_ready"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrEmbeddingQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ErrEmbeddingUnavailable):
		return "embedding_unavailable"
	case errors.Is(err, ErrGeneration):
		return "generation_failed"
	case errors.Is(err, ErrProcessingFailed):
		return "processing_failed"
	default:
		return "error"
	}
}

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	segments   prometheus.Histogram
	sources    prometheus.Histogram
	tokens     *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: "docqa", Subsystem: "sdk", Name: name, Help: help}
	}
	hist := func(name, help string, buckets []float64) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{Namespace: "docqa", Subsystem: "sdk", Name: name, Help: help, Buckets: buckets}
	}

	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts(
			opts("operations_total", "SDK operations by outcome.")), []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(hist("operation_duration_seconds",
			"SDK operation duration in seconds.", []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}),
			[]string{"operation"}),
		segments: prometheus.NewHistogram(hist("document_segments",
			"Segments per successfully loaded document.", prometheus.ExponentialBuckets(1, 2, 12))),
		sources: prometheus.NewHistogram(hist("answer_sources",
			"Segments an answer was grounded on.", prometheus.LinearBuckets(0, 1, 11))),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts(
			opts("embedding_tokens_total", "Embedding tokens consumed by SDK operations.")), []string{"operation"}),
	}

	var err error
	if m.operations, err = adopt(reg, m.operations); err != nil {
		return nil, err
	}
	if m.duration, err = adopt(reg, m.duration); err != nil {
		return nil, err
	}
	if m.segments, err = adopt(reg, m.segments); err != nil {
		return nil, err
	}
	if m.sources, err = adopt(reg, m.sources); err != nil {
		return nil, err
	}
	if m.tokens, err = adopt(reg, m.tokens); err != nil {
		return nil, err
	}
	return m, nil
}

// adopt registers c, or returns the collector already registered under the
// same descriptor so that several clients can share one registry.
func adopt[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("docqa: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("docqa: metric registered with type %T", are.ExistingCollector)
	}
	return existing, nil
}

// observer logs and counts client operations. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg == nil {
		return o, nil
	}
	m, err := newSDKMetrics(reg)
	if err != nil {
		return nil, err
	}
	o.metrics = m
	return o, nil
}

func (o *observer) observe(op string, start time.Time, err error, stats opStats) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	status := outcome(err)

	if m := o.metrics; m != nil {
		m.operations.WithLabelValues(op, status).Inc()
		m.duration.WithLabelValues(op).Observe(dur.Seconds())
		if stats.tokens > 0 {
			m.tokens.WithLabelValues(op).Add(float64(stats.tokens))
		}
		if err == nil {
			switch op {
			case "load":
				m.segments.Observe(float64(stats.segments))
			case "ask":
				m.sources.Observe(float64(stats.sources))
			}
		}
	}

	if o.logger == nil {
		return
	}
	args := append([]any{"op", op, "outcome", status, "duration", dur}, stats.logAttrs()...)
	if err != nil {
		o.logger.Warn("operation failed", append(args, "error", err)...)
		return
	}
	o.logger.Debug("operation completed", args...)
}
