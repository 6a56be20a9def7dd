package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/config"
	"github.com/kailas-cloud/docqa/internal/db"
	dbRedis "github.com/kailas-cloud/docqa/internal/db/redis"
	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/index"
	"github.com/kailas-cloud/docqa/internal/index/chromem"
	"github.com/kailas-cloud/docqa/internal/index/flat"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/metrics"
	budgetrepo "github.com/kailas-cloud/docqa/internal/repository/budget"
	"github.com/kailas-cloud/docqa/internal/repository/embcache"
	openaiTransport "github.com/kailas-cloud/docqa/internal/transport/openai"
	"github.com/kailas-cloud/docqa/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/docqa/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	"github.com/kailas-cloud/docqa/internal/usecase/pipeline"
	"github.com/kailas-cloud/docqa/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/docqa/internal/usecase/usage"
)

// app is the composition root shared by the serve and ask commands.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger

	store     db.Store
	documents *embeddinguc.Gateway
	queries   *embeddinguc.Gateway
	completer *openaiTransport.Completer
	provider  domain.HealthChecker
	budget    *embeddinguc.BudgetTracker
	retriever *retrieval.Service
	synth     *answer.Service
	builder   index.Builder
}

func newApp(ctx context.Context, envFlag string) (*app, error) {
	env := envFlag
	if env == "" {
		env = config.GetEnv()
	}

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{env: env, cfg: cfg, logger: logger}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	if cfg.Cache.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		timeout := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("cache not ready: %w", err)
		}
		a.store = store
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	if err := a.buildEmbedding(ctx); err != nil {
		a.close()
		return nil, err
	}

	a.completer = openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		Config: openaiTransport.Config{
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
			Model:    cfg.LLM.Model,
			Provider: cfg.Embedding.Provider,
			Timeout:  time.Duration(cfg.LLM.TimeoutSec) * time.Second,
			Logger:   logger,
		},
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	a.synth = answer.New(a.completer)

	var retrievalOpts []retrieval.Option
	if cfg.Retrieval.MinScore != 0 {
		retrievalOpts = append(retrievalOpts, retrieval.WithMinScore(cfg.Retrieval.MinScore))
	}
	a.retriever = retrieval.New(a.queries, retrievalOpts...)

	switch cfg.Index.Backend {
	case "chromem":
		a.builder = chromem.NewBuilder(cfg.Index.Concurrency)
	default:
		a.builder = flat.NewBuilder()
	}

	logger.Info("Pipeline assembled",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("index_backend", cfg.Index.Backend),
		zap.Int("chunk_size", cfg.Chunking.ChunkSize),
		zap.Int("overlap", cfg.Chunking.Overlap),
		zap.Bool("cache", a.store != nil),
	)
	return a, nil
}

// buildEmbedding assembles the decorator chain:
// OpenAI -> Cached -> Instrumented -> Instruction -> Gateway.
// Segments and questions get separate gateways so each carries its own instruction.
func (a *app) buildEmbedding(ctx context.Context) error {
	cfg := a.cfg.Embedding

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
		Logger:     a.logger,
	})
	a.provider = base

	var embedder domain.Embedder = base
	if a.store != nil {
		ttl := time.Duration(a.cfg.Cache.EmbeddingTTLHours) * time.Hour
		embedder = embcache.New(base, a.store, cfg.Model, ttl, metrics.EmbeddingCacheTotal, a.logger)
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budget embeddinguc.BudgetChecker
	if cfg.Budget.DailyTokenLimit > 0 || cfg.Budget.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if cfg.Budget.Action == string(embeddinguc.BudgetActionReject) {
			action = embeddinguc.BudgetActionReject
		}
		tracker := embeddinguc.NewBudgetTracker(
			cfg.Provider, cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit, action, a.logger,
		)
		if a.store != nil {
			tracker.WithStore(ctx, budgetrepo.New(a.store, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
		}
		a.budget = tracker
		budget = tracker
	}

	instrumented := embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Provider, cfg.Model, budget, a.logger,
	).WithMaxBatchSize(cfg.MaxBatchSize)

	policy := embeddinguc.RetryPolicy{
		MaxAttempts: a.cfg.Retry.MaxAttempts,
		Floor:       time.Duration(a.cfg.Retry.FloorSec) * time.Second,
		Ceiling:     time.Duration(a.cfg.Retry.CeilingSec) * time.Second,
		Retryable:   domain.IsTransient,
	}

	var err error
	a.documents, err = embeddinguc.NewGateway(
		withInstruction(instrumented, cfg.DocumentInstruction), policy, a.logger)
	if err != nil {
		return fmt.Errorf("document embedding gateway: %w", err)
	}
	a.queries, err = embeddinguc.NewGateway(
		withInstruction(instrumented, cfg.QueryInstruction), policy, a.logger)
	if err != nil {
		return fmt.Errorf("query embedding gateway: %w", err)
	}
	return nil
}

// withInstruction is the outermost decorator, so the cache key includes the instruction.
func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}

// newController creates an Idle pipeline controller; it is the session factory.
func (a *app) newController() (*pipeline.Controller, error) {
	return pipeline.New(pipeline.Deps{
		Embedder:  a.documents,
		Retriever: a.retriever,
		Synth:     a.synth,
		Builder:   a.builder,
		Logger:    a.logger,
	}, domain.ChunkingConfig{
		ChunkSize: a.cfg.Chunking.ChunkSize,
		Overlap:   a.cfg.Chunking.Overlap,
	})
}

func (a *app) healthService() *healthuc.Service {
	// Untyped nil keeps the cache check disabled.
	var cache healthuc.Pinger
	if a.store != nil {
		cache = a.store
	}
	return healthuc.New(cache, a.provider, a.completer, a.logger)
}

func (a *app) usageService() *usageuc.Service {
	var reader usageuc.BudgetReader
	if a.budget != nil {
		reader = a.budget
	}
	return usageuc.New(reader)
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}
