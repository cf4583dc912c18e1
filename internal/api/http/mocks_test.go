package http

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/service"
)

type MockReadingService struct {
	mock.Mock
}

func (m *MockReadingService) SubmitReading(ctx context.Context, auth domain.AuthContext, req service.SubmitReadingRequest) (*domain.ReadingOutcome, error) {
	args := m.Called(ctx, auth, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReadingOutcome), args.Error(1)
}

func (m *MockReadingService) VoidReading(ctx context.Context, auth domain.AuthContext, readingID int64, reason string) (*domain.VoidResult, error) {
	args := m.Called(ctx, auth, readingID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VoidResult), args.Error(1)
}

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

type MockCreditService struct {
	mock.Mock
}

func (m *MockCreditService) GetBalance(ctx context.Context, auth domain.AuthContext, creditorID int64) (*domain.CreditorBalance, error) {
	args := m.Called(ctx, auth, creditorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreditorBalance), args.Error(1)
}

func (m *MockCreditService) CheckAndReserve(ctx context.Context, tenantID, stationID, creditorID int64, amount decimal.Decimal) ([]domain.Event, error) {
	args := m.Called(ctx, tenantID, stationID, creditorID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Event), args.Error(1)
}

func (m *MockCreditService) RecordPayment(ctx context.Context, auth domain.AuthContext, req service.RecordPaymentRequest) (*domain.CreditPayment, error) {
	args := m.Called(ctx, auth, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreditPayment), args.Error(1)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
