package docqa

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type openAIConfig struct {
	apiKey         string
	baseURL        string
	embeddingModel string
	chatModel      string
}

type clientConfig struct {
	embedder  Embedder
	completer Completer
	openai    *openAIConfig

	chunkSize int
	overlap   int
	minScore  float64
	chromem   bool

	retryAttempts int
	retryFloor    time.Duration
	retryCeiling  time.Duration

	redisAddr     string
	redisPassword string
	cacheTTL      time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithOpenAI uses an OpenAI-compatible API for both embeddings and answers.
// baseURL may be empty for api.openai.com.
func WithOpenAI(apiKey, baseURL, embeddingModel, chatModel string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openai = &openAIConfig{
			apiKey:         apiKey,
			baseURL:        baseURL,
			embeddingModel: embeddingModel,
			chatModel:      chatModel,
		}
	})
}

// WithEmbedder sets the text embedding provider. It takes precedence over WithOpenAI.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithCompleter sets the answer model. It takes precedence over WithOpenAI.
func WithCompleter(cp Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = cp
	})
}

// WithChunking sets the segment window and overlap in runes.
// Defaults: 500 and 50.
func WithChunking(chunkSize, overlap int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunkSize = chunkSize
		c.overlap = overlap
	})
}

// WithMinScore drops retrieved segments scoring below min.
func WithMinScore(min float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.minScore = min
	})
}

// WithChromem indexes segments in a chromem-go collection instead of the flat scan.
func WithChromem() Option {
	return optionFunc(func(c *clientConfig) {
		c.chromem = true
	})
}

// WithRetry overrides the embedding retry policy.
// Defaults: 3 attempts, waits from 4s doubling up to 10s.
func WithRetry(attempts int, floor, ceiling time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.retryAttempts = attempts
		c.retryFloor = floor
		c.retryCeiling = ceiling
	})
}

// WithRedisCache caches embeddings in Redis or Valkey for ttl (0 keeps them forever).
func WithRedisCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddr = addr
		c.redisPassword = password
		c.cacheTTL = ttl
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation outcomes and durations,
// segments per document, sources per answer, embedding tokens) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// AskOption configures a single question.
type AskOption func(*askConfig)

type askConfig struct {
	topK int
}

// WithTopK sets how many segments are retrieved. Default: 3.
func WithTopK(k int) AskOption {
	return func(c *askConfig) {
		c.topK = k
	}
}
