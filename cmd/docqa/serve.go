package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/extract"
	"github.com/kailas-cloud/docqa/internal/metrics"
	chiTransport "github.com/kailas-cloud/docqa/internal/transport/chi"
	"github.com/kailas-cloud/docqa/internal/usecase/session"
	"github.com/kailas-cloud/docqa/internal/version"
)

const serveLongDesc = `Run the docqa HTTP API.

  POST   /v1/sessions                   create a session
  PUT    /v1/sessions/{id}/document     upload a document (text body or multipart "file")
  POST   /v1/sessions/{id}/query        ask a question
  GET    /v1/sessions/{id}              session status
  DELETE /v1/sessions/{id}              drop a session
  GET    /v1/usage?period=day|month     embedding token budget
  GET    /health, /metrics`

func newServeCmd(env *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *env, port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides http.port)")
	return cmd
}

func runServe(parent context.Context, env string, port int) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, env)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg
	if port > 0 {
		cfg.HTTP.Port = port
	}

	a.logger.Info("Starting docqa API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
	)

	metrics.RegisterHTTPMetrics()

	sessions := session.NewRegistry(a.newController,
		time.Duration(cfg.Session.IdleTTLMin)*time.Minute, a.logger)
	go sessions.Run(ctx, time.Duration(cfg.Session.SweepIntervalSec)*time.Second)

	server := chiTransport.NewServer(
		sessions,
		extract.New(cfg.HTTP.MaxUploadBytes),
		a.usageService(),
		a.healthService(),
		cfg.HTTP.MaxUploadBytes,
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chiTransport.NewRouter(server, cfg.Auth.APIKeys, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	a.logger.Info("Server stopped gracefully")
	return nil
}
