package health

import (
	"context"

	"go.uber.org/zap"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component (the cache) is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates a provider needed to answer questions is failing.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	cache      Pinger
	embedding  ProviderChecker
	completion ProviderChecker
	logger     *zap.Logger
}

// New creates a Service. cache is nil when no cache is configured.
func New(cache Pinger, embedding, completion ProviderChecker, logger *zap.Logger) *Service {
	return &Service{cache: cache, embedding: embedding, completion: completion, logger: logger}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if s.cache != nil {
		if s.record(checks, "cache", s.cache.Ping(ctx)) {
			status = Degraded
		}
	}
	if s.embedding != nil && s.record(checks, "embedding", s.embedding.HealthCheck(ctx)) {
		status = Unhealthy
	}
	if s.completion != nil && s.record(checks, "completion", s.completion.HealthCheck(ctx)) {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

// record stores the outcome and reports whether the check failed.
func (s *Service) record(checks map[string]CheckResult, name string, err error) bool {
	if err != nil {
		checks[name] = CheckError
		s.logger.Warn("Health check failed", zap.String("component", name), zap.Error(err))
		return true
	}
	checks[name] = CheckOK
	return false
}
