package health

import (
	"context"
	"time"

	corehealth "3tcapital/ms_fiscal_receipts/internal/core/health"
)

// probeTimeout bounds a single dependency probe.
const probeTimeout = 2 * time.Second

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Pinger is implemented by dependencies that can be probed, such as
// *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check names a dependency probe.
type Check struct {
	Name   string
	Pinger Pinger
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	checks    []Check
	startedAt time.Time
}

func NewService(meta Metadata, checks ...Check) *Service {
	return &Service{
		meta:      meta,
		checks:    checks,
		startedAt: time.Now().UTC(),
	}
}

// Status returns the current availability snapshot. The service is DOWN
// when any dependency fails its probe.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}

	for _, check := range s.checks {
		dep := probe(ctx, check)
		if dep.Status != corehealth.StatusUp {
			status.Status = corehealth.StatusDown
		}
		status.Dependencies = append(status.Dependencies, dep)
	}
	return status
}

func probe(ctx context.Context, check Check) corehealth.Dependency {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := check.Pinger.Ping(ctx); err != nil {
		return corehealth.Dependency{Name: check.Name, Status: corehealth.StatusDown, Error: err.Error()}
	}
	return corehealth.Dependency{Name: check.Name, Status: corehealth.StatusUp}
}
