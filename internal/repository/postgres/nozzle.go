package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/repository"
)

type nozzleRepository struct {
	db *sql.DB
}

func NewNozzleRepository(db *sql.DB) repository.NozzleRepository {
	return &nozzleRepository{db: db}
}

const nozzleColumns = `id, tenant_id, station_id, pump_id, fuel_type, status`

func (r *nozzleRepository) GetByID(ctx context.Context, tenantID, nozzleID int64) (*domain.Nozzle, error) {
	query := `SELECT ` + nozzleColumns + ` FROM nozzles WHERE id = $1 AND tenant_id = $2`
	return r.get(ctx, "nozzleRepository.GetByID", query, tenantID, nozzleID)
}

func (r *nozzleRepository) GetForUpdate(ctx context.Context, tenantID, nozzleID int64) (*domain.Nozzle, error) {
	query := `SELECT ` + nozzleColumns + ` FROM nozzles WHERE id = $1 AND tenant_id = $2 FOR UPDATE`
	return r.get(ctx, "nozzleRepository.GetForUpdate", query, tenantID, nozzleID)
}

func (r *nozzleRepository) get(ctx context.Context, method, query string, tenantID, nozzleID int64) (*domain.Nozzle, error) {
	logger.EnterMethod(method, "tenantID", tenantID, "nozzleID", nozzleID)

	n := &domain.Nozzle{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, nozzleID, tenantID).Scan(
		&n.ID, &n.TenantID, &n.StationID, &n.PumpID, &n.FuelType, &n.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		logger.ExitMethod(method, "nozzleID", nozzleID, "found", false)
		return nil, domain.ErrNotFound
	}
	if err != nil {
		logger.ExitMethodWithError(method, err, "nozzleID", nozzleID)
		return nil, err
	}

	logger.ExitMethod(method, "nozzleID", nozzleID, "status", n.Status)
	return n, nil
}
