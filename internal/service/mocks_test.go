package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"fuelrecon-backend/internal/domain"
)

type MockCreditorRepo struct {
	mock.Mock
}

func (m *MockCreditorRepo) GetByID(ctx context.Context, tenantID, creditorID int64) (*domain.Creditor, error) {
	args := m.Called(ctx, tenantID, creditorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Creditor), args.Error(1)
}

func (m *MockCreditorRepo) GetForUpdate(ctx context.Context, tenantID, creditorID int64) (*domain.Creditor, error) {
	args := m.Called(ctx, tenantID, creditorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Creditor), args.Error(1)
}

func (m *MockCreditorRepo) GetBalance(ctx context.Context, tenantID, creditorID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, creditorID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockCreditorRepo) CreatePayment(ctx context.Context, payment *domain.CreditPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

type MockPriceRepo struct {
	mock.Mock
}

func (m *MockPriceRepo) GetEffective(ctx context.Context, tenantID, stationID int64, fuelType domain.FuelType, at time.Time) (*domain.FuelPrice, error) {
	args := m.Called(ctx, tenantID, stationID, fuelType, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FuelPrice), args.Error(1)
}
