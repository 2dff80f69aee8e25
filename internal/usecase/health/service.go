package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the store works but the AI provider does not.
	// Ingestion and recheck fail, reads keep working.
	Degraded Status = "degraded"
	// Unhealthy indicates the store is unreachable.
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
	db     DBPinger
	models ModelChecker
}

// New creates a Service. models can be nil.
func New(db DBPinger, models ModelChecker) *Service {
	return &Service{db: db, models: models}
}

// Check runs health checks against all components. The store is the hard
// dependency; the AI provider only degrades the verdict.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		status = Unhealthy
	} else {
		checks["database"] = CheckOK
	}

	if s.models != nil {
		if err := s.models.HealthCheck(ctx); err != nil {
			checks["models"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["models"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
