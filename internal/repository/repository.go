package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fuelrecon-backend/internal/domain"
)

// TxManager runs fn inside one database transaction. Repositories called with the
// ctx passed to fn join that transaction.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type NozzleRepository interface {
	GetByID(ctx context.Context, tenantID, nozzleID int64) (*domain.Nozzle, error)
	// GetForUpdate locks the nozzle row, serialising submissions for the same nozzle.
	GetForUpdate(ctx context.Context, tenantID, nozzleID int64) (*domain.Nozzle, error)
}

type ReadingRepository interface {
	Create(ctx context.Context, reading *domain.NozzleReading, readingDate string) error
	GetByIDForUpdate(ctx context.Context, tenantID, readingID int64) (*domain.NozzleReading, string, error)
	// GetLatestActive returns nil, nil when the nozzle has no active reading.
	GetLatestActive(ctx context.Context, tenantID, nozzleID int64) (*domain.NozzleReading, error)
	UpdateStatus(ctx context.Context, tenantID, readingID int64, status domain.ReadingStatus) error
	SumDay(ctx context.Context, tenantID, stationID int64, date string) (*domain.DayMeterTotals, error)
}

type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) error
	// VoidByReading voids the sale derived from the reading and reports how many rows changed.
	VoidByReading(ctx context.Context, tenantID, readingID int64) (int64, error)
	SumDay(ctx context.Context, tenantID, stationID int64, date string) (*domain.DaySalesTotals, error)
	SumCashBetween(ctx context.Context, tenantID, stationID int64, from, to time.Time) (decimal.Decimal, error)
}

type CreditorRepository interface {
	GetByID(ctx context.Context, tenantID, creditorID int64) (*domain.Creditor, error)
	GetForUpdate(ctx context.Context, tenantID, creditorID int64) (*domain.Creditor, error)
	GetBalance(ctx context.Context, tenantID, creditorID int64) (decimal.Decimal, error)
	CreatePayment(ctx context.Context, payment *domain.CreditPayment) error
}

type CashReportRepository interface {
	Create(ctx context.Context, report *domain.CashReport) error
	ListByDay(ctx context.Context, tenantID, stationID int64, date string) ([]domain.CashReport, error)
}

type ReconciliationRepository interface {
	// GetOrCreateForUpdate creates the day row lazily and locks it for the caller's transaction.
	GetOrCreateForUpdate(ctx context.Context, tenantID, stationID int64, date string) (*domain.DayReconciliation, error)
	// LockDayShared creates the day row lazily, takes a shared lock and reports whether it is finalized.
	LockDayShared(ctx context.Context, tenantID, stationID int64, date string) (*domain.DayReconciliation, error)
	Get(ctx context.Context, tenantID, stationID int64, date string) (*domain.DayReconciliation, error)
	Update(ctx context.Context, rec *domain.DayReconciliation) error
	UpsertDiff(ctx context.Context, diff *domain.ReconciliationDiff) error
	ListDiffs(ctx context.Context, tenantID, reconciliationID int64) ([]domain.ReconciliationDiff, error)
	ListActiveStationDays(ctx context.Context, date string) ([]domain.StationDay, error)
	// ListOpenDaysBetween lists unfinalized days with since <= date < before.
	ListOpenDaysBetween(ctx context.Context, since, before string) ([]domain.StationDay, error)
}

type PriceRepository interface {
	// GetEffective returns nil, nil when no price is effective at the given instant.
	GetEffective(ctx context.Context, tenantID, stationID int64, fuelType domain.FuelType, at time.Time) (*domain.FuelPrice, error)
}

type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	ListByEntity(ctx context.Context, tenantID int64, entityType string, entityID int64) ([]domain.AuditEntry, error)
}

type AlertRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	ListByStation(ctx context.Context, tenantID, stationID int64, limit, offset int32) ([]domain.Event, int32, error)
}
