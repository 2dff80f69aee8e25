package health

import "context"

// DBPinger checks Redis availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker checks AI provider availability.
type ModelChecker interface {
	HealthCheck(ctx context.Context) error
}
