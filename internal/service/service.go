package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fuelrecon-backend/internal/domain"
)

// PriceResolver looks up the fuel price effective at an instant. It returns nil, nil when none is configured.
type PriceResolver interface {
	Resolve(ctx context.Context, tenantID, stationID int64, fuelType domain.FuelType, at time.Time) (*domain.FuelPrice, error)
}

type CreditService interface {
	GetBalance(ctx context.Context, auth domain.AuthContext, creditorID int64) (*domain.CreditorBalance, error)
	// CheckAndReserve must run inside the caller's transaction; it locks the creditor row until commit.
	CheckAndReserve(ctx context.Context, tenantID, stationID, creditorID int64, amount decimal.Decimal) ([]domain.Event, error)
	RecordPayment(ctx context.Context, auth domain.AuthContext, req RecordPaymentRequest) (*domain.CreditPayment, error)
}

type ReadingService interface {
	SubmitReading(ctx context.Context, auth domain.AuthContext, req SubmitReadingRequest) (*domain.ReadingOutcome, error)
	VoidReading(ctx context.Context, auth domain.AuthContext, readingID int64, reason string) (*domain.VoidResult, error)
}

type ReconciliationService interface {
	RunReconciliation(ctx context.Context, auth domain.AuthContext, stationID int64, date string) (*domain.ReconciliationResult, error)
	CloseDayReconciliation(ctx context.Context, auth domain.AuthContext, stationID int64, date string) (*domain.ReconciliationResult, error)
	GetReconciliation(ctx context.Context, auth domain.AuthContext, stationID int64, date string) (*domain.ReconciliationResult, error)
	SubmitCashReport(ctx context.Context, auth domain.AuthContext, req CashReportRequest) (*domain.CashReportOutcome, error)
}

// EventPublisher hands committed events to delivery. Publish never blocks and never fails the caller.
type EventPublisher interface {
	Publish(events ...domain.Event)
}

type SubmitReadingRequest struct {
	NozzleID       int64                `json:"nozzle_id" validate:"gt=0"`
	Reading        decimal.Decimal      `json:"reading" validate:"decimal_gte0,decimal_places=3"`
	RecordedAt     time.Time            `json:"recorded_at" validate:"required"`
	PaymentMethod  domain.PaymentMethod `json:"payment_method" validate:"required,oneof=cash card upi credit"`
	CreditorID     *int64               `json:"creditor_id,omitempty" validate:"required_if=PaymentMethod credit,excluded_unless=PaymentMethod credit"`
	ConfirmedReset bool                 `json:"confirmed_reset"`
	ResetReason    string               `json:"reset_reason,omitempty" validate:"max=500"`
}

type CashReportRequest struct {
	StationID  int64           `json:"station_id" validate:"gt=0"`
	ReportDate string          `json:"report_date" validate:"required,datetime=2006-01-02"`
	ShiftStart *time.Time      `json:"shift_start,omitempty" validate:"required_with=ShiftEnd"`
	ShiftEnd   *time.Time      `json:"shift_end,omitempty" validate:"required_with=ShiftStart"`
	Cash       decimal.Decimal `json:"cash" validate:"decimal_gte0,decimal_places=2"`
	Card       decimal.Decimal `json:"card" validate:"decimal_gte0,decimal_places=2"`
	UPI        decimal.Decimal `json:"upi" validate:"decimal_gte0,decimal_places=2"`
}

type RecordPaymentRequest struct {
	CreditorID    int64                `json:"creditor_id" validate:"gt=0"`
	Amount        decimal.Decimal      `json:"amount" validate:"decimal_gt0,decimal_places=2"`
	PaymentMethod domain.PaymentMethod `json:"payment_method" validate:"required,oneof=cash card upi"`
	PaidAt        time.Time            `json:"paid_at"`
}

// Clock returns the current instant. Services take one so tests can pin time.
type Clock func() time.Time
