package health

import "context"

// Pinger checks cache availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks an embedding or completion provider.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
