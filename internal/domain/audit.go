package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionReadingVoided AuditAction = "reading_voided"
	AuditActionMeterReset    AuditAction = "meter_reset"
	AuditActionBackdated     AuditAction = "reading_backdated"
	AuditActionDayFinalized  AuditAction = "day_finalized"
)

// AuditEntry is immutable once written.
type AuditEntry struct {
	ID          int64             `json:"id"`
	EventID     uuid.UUID         `json:"event_id"`
	TenantID    int64             `json:"tenant_id"`
	Action      AuditAction       `json:"action"`
	EntityType  string            `json:"entity_type"`
	EntityID    int64             `json:"entity_id"`
	Reason      string            `json:"reason"`
	PerformedBy int64             `json:"performed_by"`
	Details     map[string]string `json:"details,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}
