package alert

import (
	"context"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/repository"
)

// LogSink writes every event to the structured log.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Notify(ctx context.Context, ev domain.Event) error {
	args := []any{"eventID", ev.ID, "kind", ev.Kind, "severity", ev.Severity, "message", ev.Message}
	for k, v := range ev.Attributes {
		args = append(args, k, v)
	}
	l := logger.WithTenant(ev.TenantID, ev.StationID)
	if ev.Severity == domain.SeverityInfo {
		l.InfoContext(ctx, "Station event", args...)
	} else {
		l.WarnContext(ctx, "Station alert", args...)
	}
	return nil
}

// StoreSink persists events to the alerts table.
type StoreSink struct {
	repo repository.AlertRepository
}

func NewStoreSink(repo repository.AlertRepository) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Name() string { return "store" }

func (s *StoreSink) Notify(ctx context.Context, ev domain.Event) error {
	return s.repo.Create(ctx, &ev)
}

func severityRank(s domain.Severity) int {
	switch s {
	case domain.SeverityCritical:
		return 2
	case domain.SeverityWarning:
		return 1
	default:
		return 0
	}
}

// atLeast reports whether ev is at or above min.
func atLeast(ev domain.Event, min domain.Severity) bool {
	return severityRank(ev.Severity) >= severityRank(min)
}
