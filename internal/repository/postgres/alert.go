package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/repository"
)

type alertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) repository.AlertRepository {
	return &alertRepository{db: db}
}

// Create stores a delivered event. Re-delivery of the same event id is a no-op.
func (r *alertRepository) Create(ctx context.Context, ev *domain.Event) error {
	logger.EnterMethod("alertRepository.Create", "eventID", ev.ID, "kind", ev.Kind, "stationID", ev.StationID)

	attrs, err := json.Marshal(ev.Attributes)
	if err != nil {
		logger.ExitMethodWithError("alertRepository.Create", err, "reason", "failed to marshal attributes")
		return err
	}

	query := `
		INSERT INTO alerts (event_id, tenant_id, station_id, kind, severity, message, attributes, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`
	logger.DatabaseCall("INSERT", "alerts", "eventID", ev.ID, "kind", ev.Kind)
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		ev.ID, ev.TenantID, ev.StationID, ev.Kind, ev.Severity, ev.Message, attrs, ev.OccurredAt,
	)
	var rows int64
	if err == nil {
		rows, _ = res.RowsAffected()
	}
	logger.DatabaseResult("INSERT", rows, err, "eventID", ev.ID)

	if err != nil {
		logger.ExitMethodWithError("alertRepository.Create", err, "eventID", ev.ID)
		return err
	}
	logger.ExitMethod("alertRepository.Create", "eventID", ev.ID)
	return nil
}

func (r *alertRepository) ListByStation(ctx context.Context, tenantID, stationID int64, limit, offset int32) ([]domain.Event, int32, error) {
	logger.EnterMethod("alertRepository.ListByStation", "tenantID", tenantID, "stationID", stationID, "limit", limit, "offset", offset)

	var count int32
	countQuery := `SELECT count(*) FROM alerts WHERE tenant_id = $1 AND station_id = $2`
	if err := conn(ctx, r.db).QueryRowContext(ctx, countQuery, tenantID, stationID).Scan(&count); err != nil {
		logger.ExitMethodWithError("alertRepository.ListByStation", err, "stationID", stationID)
		return nil, 0, err
	}

	query := `
		SELECT event_id, tenant_id, station_id, kind, severity, message, attributes, occurred_at
		FROM alerts
		WHERE tenant_id = $1 AND station_id = $2
		ORDER BY occurred_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, tenantID, stationID, limit, offset)
	if err != nil {
		logger.ExitMethodWithError("alertRepository.ListByStation", err, "stationID", stationID)
		return nil, 0, err
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var ev domain.Event
		var attrs []byte
		if err := rows.Scan(&ev.ID, &ev.TenantID, &ev.StationID, &ev.Kind, &ev.Severity, &ev.Message, &attrs, &ev.OccurredAt); err != nil {
			return nil, 0, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &ev.Attributes); err != nil {
				return nil, 0, err
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	logger.ExitMethod("alertRepository.ListByStation", "stationID", stationID, "count", len(events), "total", count)
	return events, count, nil
}
