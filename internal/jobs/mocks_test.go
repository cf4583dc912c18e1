package jobs

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/service"
)

type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) result(args mock.Arguments) (*domain.ReconciliationResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationResult), args.Error(1)
}

func (m *MockReconciliationService) RunReconciliation(ctx context.Context, auth domain.AuthContext, stationID int64, date string) (*domain.ReconciliationResult, error) {
	return m.result(m.Called(ctx, auth, stationID, date))
}

func (m *MockReconciliationService) CloseDayReconciliation(ctx context.Context, auth domain.AuthContext, stationID int64, date string) (*domain.ReconciliationResult, error) {
	return m.result(m.Called(ctx, auth, stationID, date))
}

func (m *MockReconciliationService) GetReconciliation(ctx context.Context, auth domain.AuthContext, stationID int64, date string) (*domain.ReconciliationResult, error) {
	return m.result(m.Called(ctx, auth, stationID, date))
}

func (m *MockReconciliationService) SubmitCashReport(ctx context.Context, auth domain.AuthContext, req service.CashReportRequest) (*domain.CashReportOutcome, error) {
	args := m.Called(ctx, auth, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashReportOutcome), args.Error(1)
}

type MockReconciliationRepo struct {
	mock.Mock
}

func (m *MockReconciliationRepo) day(args mock.Arguments) (*domain.DayReconciliation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DayReconciliation), args.Error(1)
}

func (m *MockReconciliationRepo) GetOrCreateForUpdate(ctx context.Context, tenantID, stationID int64, date string) (*domain.DayReconciliation, error) {
	return m.day(m.Called(ctx, tenantID, stationID, date))
}

func (m *MockReconciliationRepo) LockDayShared(ctx context.Context, tenantID, stationID int64, date string) (*domain.DayReconciliation, error) {
	return m.day(m.Called(ctx, tenantID, stationID, date))
}

func (m *MockReconciliationRepo) Get(ctx context.Context, tenantID, stationID int64, date string) (*domain.DayReconciliation, error) {
	return m.day(m.Called(ctx, tenantID, stationID, date))
}

func (m *MockReconciliationRepo) Update(ctx context.Context, rec *domain.DayReconciliation) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockReconciliationRepo) UpsertDiff(ctx context.Context, diff *domain.ReconciliationDiff) error {
	return m.Called(ctx, diff).Error(0)
}

func (m *MockReconciliationRepo) ListDiffs(ctx context.Context, tenantID, reconciliationID int64) ([]domain.ReconciliationDiff, error) {
	args := m.Called(ctx, tenantID, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationDiff), args.Error(1)
}

func (m *MockReconciliationRepo) ListActiveStationDays(ctx context.Context, date string) ([]domain.StationDay, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StationDay), args.Error(1)
}

func (m *MockReconciliationRepo) ListOpenDaysBetween(ctx context.Context, since, before string) ([]domain.StationDay, error) {
	args := m.Called(ctx, since, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StationDay), args.Error(1)
}

type MockLocker struct {
	mock.Mock
	released int
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	args := m.Called(ctx, key, ttl)
	if !args.Bool(0) || args.Error(1) != nil {
		return nil, args.Bool(0), args.Error(1)
	}
	return func() { m.released++ }, true, nil
}
