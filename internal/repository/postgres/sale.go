package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/repository"
)

type saleRepository struct {
	db *sql.DB
}

func NewSaleRepository(db *sql.DB) repository.SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, s *domain.Sale) error {
	logger.EnterMethod("saleRepository.Create", "tenantID", s.TenantID, "stationID", s.StationID, "method", s.PaymentMethod)

	query := `
		INSERT INTO sales (
			tenant_id, station_id, nozzle_id, reading_id, sale_date, volume, fuel_price, amount,
			payment_method, creditor_id, status, recorded_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`
	logger.DatabaseCall("INSERT", "sales", "readingID", s.ReadingID)
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		s.TenantID, s.StationID, s.NozzleID, s.ReadingID, s.SaleDate, s.Volume, s.FuelPrice, s.Amount,
		s.PaymentMethod, s.CreditorID, s.Status, s.RecordedAt, time.Now().UTC(),
	).Scan(&s.ID, &s.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "saleID", s.ID)

	if err != nil {
		logger.ExitMethodWithError("saleRepository.Create", err, "stationID", s.StationID)
		return err
	}

	logger.ExitMethod("saleRepository.Create", "saleID", s.ID, "amount", s.Amount)
	return nil
}

func (r *saleRepository) VoidByReading(ctx context.Context, tenantID, readingID int64) (int64, error) {
	logger.EnterMethod("saleRepository.VoidByReading", "tenantID", tenantID, "readingID", readingID)

	query := `UPDATE sales SET status = 'voided' WHERE reading_id = $1 AND tenant_id = $2 AND status <> 'voided'`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, readingID, tenantID)
	if err != nil {
		logger.ExitMethodWithError("saleRepository.VoidByReading", err, "readingID", readingID)
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		logger.ExitMethodWithError("saleRepository.VoidByReading", err, "readingID", readingID)
		return 0, err
	}

	logger.ExitMethod("saleRepository.VoidByReading", "readingID", readingID, "rows", rows)
	return rows, nil
}

func (r *saleRepository) SumDay(ctx context.Context, tenantID, stationID int64, date string) (*domain.DaySalesTotals, error) {
	logger.EnterMethod("saleRepository.SumDay", "tenantID", tenantID, "stationID", stationID, "date", date)

	query := `
		SELECT
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(amount) FILTER (WHERE payment_method = 'cash'), 0),
			COALESCE(SUM(amount) FILTER (WHERE payment_method = 'card'), 0),
			COALESCE(SUM(amount) FILTER (WHERE payment_method = 'upi'), 0),
			COALESCE(SUM(amount) FILTER (WHERE payment_method = 'credit'), 0),
			COALESCE(SUM(volume), 0),
			COUNT(*)
		FROM sales
		WHERE tenant_id = $1 AND station_id = $2 AND sale_date = $3 AND status <> 'voided'
	`

	t := &domain.DaySalesTotals{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, tenantID, stationID, date).Scan(
		&t.Total, &t.Cash, &t.Card, &t.UPI, &t.Credit, &t.Volume, &t.Count,
	)
	if err != nil {
		logger.ExitMethodWithError("saleRepository.SumDay", err, "stationID", stationID, "date", date)
		return nil, err
	}

	logger.ExitMethod("saleRepository.SumDay", "stationID", stationID, "sales", t.Count, "total", t.Total)
	return t, nil
}

// SumCashBetween sums non-voided cash sales recorded in [from, to).
func (r *saleRepository) SumCashBetween(ctx context.Context, tenantID, stationID int64, from, to time.Time) (decimal.Decimal, error) {
	logger.EnterMethod("saleRepository.SumCashBetween", "tenantID", tenantID, "stationID", stationID, "from", from, "to", to)

	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM sales
		WHERE tenant_id = $1 AND station_id = $2 AND payment_method = 'cash' AND status <> 'voided'
		  AND recorded_at >= $3 AND recorded_at < $4
	`

	var total decimal.Decimal
	err := conn(ctx, r.db).QueryRowContext(ctx, query, tenantID, stationID, from, to).Scan(&total)
	if err != nil {
		logger.ExitMethodWithError("saleRepository.SumCashBetween", err, "stationID", stationID)
		return decimal.Zero, err
	}

	logger.ExitMethod("saleRepository.SumCashBetween", "stationID", stationID, "total", total)
	return total, nil
}
