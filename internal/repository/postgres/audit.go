package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/repository"

	"github.com/google/uuid"
)

type auditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, e *domain.AuditEntry) error {
	logger.EnterMethod("auditRepository.Create", "tenantID", e.TenantID, "action", e.Action, "entityType", e.EntityType, "entityID", e.EntityID)

	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	details, err := json.Marshal(e.Details)
	if err != nil {
		logger.ExitMethodWithError("auditRepository.Create", err, "reason", "failed to marshal details")
		return err
	}

	query := `
		INSERT INTO audit_log (event_id, tenant_id, action, entity_type, entity_id, reason, performed_by, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	logger.DatabaseCall("INSERT", "audit_log", "action", e.Action, "entityID", e.EntityID)
	e.CreatedAt = time.Now().UTC()
	err = conn(ctx, r.db).QueryRowContext(ctx, query,
		e.EventID, e.TenantID, e.Action, e.EntityType, e.EntityID, e.Reason, e.PerformedBy, details, e.CreatedAt,
	).Scan(&e.ID)
	logger.DatabaseResult("INSERT", 1, err, "auditID", e.ID)

	if err != nil {
		logger.ExitMethodWithError("auditRepository.Create", err, "action", e.Action, "entityID", e.EntityID)
		return err
	}
	logger.ExitMethod("auditRepository.Create", "auditID", e.ID)
	return nil
}

func (r *auditRepository) ListByEntity(ctx context.Context, tenantID int64, entityType string, entityID int64) ([]domain.AuditEntry, error) {
	logger.EnterMethod("auditRepository.ListByEntity", "tenantID", tenantID, "entityType", entityType, "entityID", entityID)

	query := `
		SELECT id, event_id, tenant_id, action, entity_type, entity_id, reason, performed_by, details, created_at
		FROM audit_log
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY id
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, tenantID, entityType, entityID)
	if err != nil {
		logger.ExitMethodWithError("auditRepository.ListByEntity", err, "entityID", entityID)
		return nil, err
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		var e domain.AuditEntry
		var details []byte
		if err := rows.Scan(&e.ID, &e.EventID, &e.TenantID, &e.Action, &e.EntityType, &e.EntityID,
			&e.Reason, &e.PerformedBy, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.ExitMethod("auditRepository.ListByEntity", "entityID", entityID, "count", len(entries))
	return entries, nil
}
