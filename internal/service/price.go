package service

import (
	"context"
	"time"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/repository"
)

type priceResolver struct {
	priceRepo repository.PriceRepository
}

func NewPriceResolver(priceRepo repository.PriceRepository) PriceResolver {
	return &priceResolver{priceRepo: priceRepo}
}

func (p *priceResolver) Resolve(ctx context.Context, tenantID, stationID int64, fuelType domain.FuelType, at time.Time) (*domain.FuelPrice, error) {
	price, err := p.priceRepo.GetEffective(ctx, tenantID, stationID, fuelType, at)
	if err != nil {
		return nil, err
	}
	if price == nil {
		logger.Debug("No fuel price effective", "tenantID", tenantID, "stationID", stationID, "fuelType", fuelType, "at", at)
	}
	return price, nil
}
