package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/repository"
)

type priceRepository struct {
	db *sql.DB
}

func NewPriceRepository(db *sql.DB) repository.PriceRepository {
	return &priceRepository{db: db}
}

func (r *priceRepository) GetEffective(ctx context.Context, tenantID, stationID int64, fuelType domain.FuelType, at time.Time) (*domain.FuelPrice, error) {
	logger.EnterMethod("priceRepository.GetEffective", "tenantID", tenantID, "stationID", stationID, "fuelType", fuelType, "at", at)

	query := `
		SELECT price, valid_from
		FROM fuel_prices
		WHERE tenant_id = $1 AND station_id = $2 AND fuel_type = $3 AND valid_from <= $4
		ORDER BY valid_from DESC
		LIMIT 1
	`
	var p domain.FuelPrice
	err := conn(ctx, r.db).QueryRowContext(ctx, query, tenantID, stationID, fuelType, at).Scan(&p.Price, &p.ValidFrom)
	if errors.Is(err, sql.ErrNoRows) {
		logger.ExitMethod("priceRepository.GetEffective", "stationID", stationID, "fuelType", fuelType, "found", false)
		return nil, nil
	}
	if err != nil {
		logger.ExitMethodWithError("priceRepository.GetEffective", err, "stationID", stationID, "fuelType", fuelType)
		return nil, err
	}

	logger.ExitMethod("priceRepository.GetEffective", "price", p.Price.String(), "validFrom", p.ValidFrom)
	return &p, nil
}
