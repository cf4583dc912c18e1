package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventKindCreditNearLimit EventKind = "credit_near_limit"
	EventKindCashDiscrepancy EventKind = "cash_discrepancy"
	EventKindMeterReset      EventKind = "meter_reset"
	EventKindDayFinalized    EventKind = "day_finalized"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event is a side effect produced by an engine call. Engines return events; the
// dispatcher delivers them after commit.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	TenantID   int64             `json:"tenant_id"`
	StationID  int64             `json:"station_id"`
	Kind       EventKind         `json:"kind"`
	Severity   Severity          `json:"severity"`
	Message    string            `json:"message"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewEvent(tenantID, stationID int64, kind EventKind, severity Severity, message string, attrs map[string]string) Event {
	return Event{
		ID:         uuid.New(),
		TenantID:   tenantID,
		StationID:  stationID,
		Kind:       kind,
		Severity:   severity,
		Message:    message,
		Attributes: attrs,
		OccurredAt: time.Now().UTC(),
	}
}
