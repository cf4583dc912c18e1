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

type reconciliationRepository struct {
	db *sql.DB
}

func NewReconciliationRepository(db *sql.DB) repository.ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

const dayReconciliationColumns = `
	id, tenant_id, station_id, to_char(rec_date, 'YYYY-MM-DD'),
	total_sales, cash_sales, card_sales, upi_sales, credit_sales, total_volume,
	opening_reading, closing_reading, variance, reading_count, sale_count,
	finalized, finalized_at, finalized_by, updated_at`

func scanDayReconciliation(row interface{ Scan(...any) error }) (*domain.DayReconciliation, error) {
	d := &domain.DayReconciliation{}
	err := row.Scan(
		&d.ID, &d.TenantID, &d.StationID, &d.Date,
		&d.TotalSales, &d.CashSales, &d.CardSales, &d.UPISales, &d.CreditSales, &d.TotalVolume,
		&d.OpeningReading, &d.ClosingReading, &d.Variance, &d.ReadingCount, &d.SaleCount,
		&d.Finalized, &d.FinalizedAt, &d.FinalizedBy, &d.UpdatedAt,
	)
	return d, err
}

func (r *reconciliationRepository) ensureDay(ctx context.Context, tenantID, stationID int64, date string) error {
	query := `
		INSERT INTO day_reconciliations (tenant_id, station_id, rec_date, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, station_id, rec_date) DO NOTHING
	`
	logger.DatabaseCall("INSERT", "day_reconciliations", "stationID", stationID, "date", date)
	res, err := conn(ctx, r.db).ExecContext(ctx, query, tenantID, stationID, date, time.Now().UTC())
	var rows int64
	if err == nil {
		rows, _ = res.RowsAffected()
	}
	logger.DatabaseResult("INSERT", rows, err, "stationID", stationID, "date", date)
	return err
}

func (r *reconciliationRepository) GetOrCreateForUpdate(ctx context.Context, tenantID, stationID int64, date string) (*domain.DayReconciliation, error) {
	return r.lockDay(ctx, "reconciliationRepository.GetOrCreateForUpdate", "FOR UPDATE", tenantID, stationID, date)
}

func (r *reconciliationRepository) LockDayShared(ctx context.Context, tenantID, stationID int64, date string) (*domain.DayReconciliation, error) {
	return r.lockDay(ctx, "reconciliationRepository.LockDayShared", "FOR SHARE", tenantID, stationID, date)
}

func (r *reconciliationRepository) lockDay(ctx context.Context, method, lockClause string, tenantID, stationID int64, date string) (*domain.DayReconciliation, error) {
	logger.EnterMethod(method, "tenantID", tenantID, "stationID", stationID, "date", date)

	if err := r.ensureDay(ctx, tenantID, stationID, date); err != nil {
		logger.ExitMethodWithError(method, err, "stationID", stationID, "date", date)
		return nil, err
	}

	query := `SELECT ` + dayReconciliationColumns + `
		FROM day_reconciliations
		WHERE tenant_id = $1 AND station_id = $2 AND rec_date = $3 ` + lockClause

	d, err := scanDayReconciliation(conn(ctx, r.db).QueryRowContext(ctx, query, tenantID, stationID, date))
	if err != nil {
		logger.ExitMethodWithError(method, err, "stationID", stationID, "date", date)
		return nil, err
	}

	logger.ExitMethod(method, "reconciliationID", d.ID, "finalized", d.Finalized)
	return d, nil
}

func (r *reconciliationRepository) Get(ctx context.Context, tenantID, stationID int64, date string) (*domain.DayReconciliation, error) {
	logger.EnterMethod("reconciliationRepository.Get", "tenantID", tenantID, "stationID", stationID, "date", date)

	query := `SELECT ` + dayReconciliationColumns + `
		FROM day_reconciliations
		WHERE tenant_id = $1 AND station_id = $2 AND rec_date = $3`

	d, err := scanDayReconciliation(conn(ctx, r.db).QueryRowContext(ctx, query, tenantID, stationID, date))
	if errors.Is(err, sql.ErrNoRows) {
		logger.ExitMethod("reconciliationRepository.Get", "stationID", stationID, "found", false)
		return nil, domain.ErrNotFound
	}
	if err != nil {
		logger.ExitMethodWithError("reconciliationRepository.Get", err, "stationID", stationID, "date", date)
		return nil, err
	}

	logger.ExitMethod("reconciliationRepository.Get", "reconciliationID", d.ID)
	return d, nil
}

// Update persists totals and the finalized flag. A finalized row is never rewritten:
// the WHERE clause refuses it and the call reports domain.ErrDayFinalized.
func (r *reconciliationRepository) Update(ctx context.Context, d *domain.DayReconciliation) error {
	logger.EnterMethod("reconciliationRepository.Update", "reconciliationID", d.ID, "finalized", d.Finalized)

	query := `
		UPDATE day_reconciliations SET
			total_sales = $1, cash_sales = $2, card_sales = $3, upi_sales = $4, credit_sales = $5,
			total_volume = $6, opening_reading = $7, closing_reading = $8, variance = $9,
			reading_count = $10, sale_count = $11,
			finalized = $12, finalized_at = $13, finalized_by = $14, updated_at = $15
		WHERE id = $16 AND tenant_id = $17 AND finalized = false
	`
	d.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		d.TotalSales, d.CashSales, d.CardSales, d.UPISales, d.CreditSales,
		d.TotalVolume, d.OpeningReading, d.ClosingReading, d.Variance,
		d.ReadingCount, d.SaleCount,
		d.Finalized, d.FinalizedAt, d.FinalizedBy, d.UpdatedAt,
		d.ID, d.TenantID,
	)
	if err != nil {
		logger.ExitMethodWithError("reconciliationRepository.Update", err, "reconciliationID", d.ID)
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		logger.ExitMethod("reconciliationRepository.Update", "reconciliationID", d.ID, "updated", false)
		return domain.ErrDayFinalized
	}

	logger.ExitMethod("reconciliationRepository.Update", "reconciliationID", d.ID)
	return nil
}

func (r *reconciliationRepository) UpsertDiff(ctx context.Context, diff *domain.ReconciliationDiff) error {
	logger.EnterMethod("reconciliationRepository.UpsertDiff", "reconciliationID", diff.ReconciliationID, "cashReportID", diff.CashReportID)

	query := `
		INSERT INTO reconciliation_diffs (
			tenant_id, reconciliation_id, cash_report_id, reported_cash, actual_cash, difference, status, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (cash_report_id) DO UPDATE SET
			reconciliation_id = EXCLUDED.reconciliation_id,
			reported_cash = EXCLUDED.reported_cash,
			actual_cash = EXCLUDED.actual_cash,
			difference = EXCLUDED.difference,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	diff.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		diff.TenantID, diff.ReconciliationID, diff.CashReportID, diff.ReportedCash, diff.ActualCash,
		diff.Difference, diff.Status, diff.UpdatedAt,
	).Scan(&diff.ID)
	if err != nil {
		logger.ExitMethodWithError("reconciliationRepository.UpsertDiff", err, "cashReportID", diff.CashReportID)
		return err
	}

	logger.ExitMethod("reconciliationRepository.UpsertDiff", "diffID", diff.ID, "status", diff.Status)
	return nil
}

func (r *reconciliationRepository) ListDiffs(ctx context.Context, tenantID, reconciliationID int64) ([]domain.ReconciliationDiff, error) {
	logger.EnterMethod("reconciliationRepository.ListDiffs", "tenantID", tenantID, "reconciliationID", reconciliationID)

	query := `
		SELECT id, tenant_id, reconciliation_id, cash_report_id, reported_cash, actual_cash, difference, status, updated_at
		FROM reconciliation_diffs
		WHERE tenant_id = $1 AND reconciliation_id = $2
		ORDER BY cash_report_id
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, tenantID, reconciliationID)
	if err != nil {
		logger.ExitMethodWithError("reconciliationRepository.ListDiffs", err, "reconciliationID", reconciliationID)
		return nil, err
	}
	defer rows.Close()

	diffs := []domain.ReconciliationDiff{}
	for rows.Next() {
		var d domain.ReconciliationDiff
		if err := rows.Scan(
			&d.ID, &d.TenantID, &d.ReconciliationID, &d.CashReportID, &d.ReportedCash,
			&d.ActualCash, &d.Difference, &d.Status, &d.UpdatedAt,
		); err != nil {
			logger.ExitMethodWithError("reconciliationRepository.ListDiffs", err, "reconciliationID", reconciliationID)
			return nil, err
		}
		diffs = append(diffs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.ExitMethod("reconciliationRepository.ListDiffs", "reconciliationID", reconciliationID, "count", len(diffs))
	return diffs, nil
}

// ListActiveStationDays lists every station that recorded readings or sales on date, across tenants.
func (r *reconciliationRepository) ListActiveStationDays(ctx context.Context, date string) ([]domain.StationDay, error) {
	logger.EnterMethod("reconciliationRepository.ListActiveStationDays", "date", date)

	query := `
		SELECT tenant_id, station_id FROM sales WHERE sale_date = $1 AND status <> 'voided'
		UNION
		SELECT tenant_id, station_id FROM nozzle_readings WHERE reading_date = $1 AND status = 'active'
		ORDER BY 1, 2
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, date)
	if err != nil {
		logger.ExitMethodWithError("reconciliationRepository.ListActiveStationDays", err, "date", date)
		return nil, err
	}
	defer rows.Close()

	days := []domain.StationDay{}
	for rows.Next() {
		sd := domain.StationDay{Date: date}
		if err := rows.Scan(&sd.TenantID, &sd.StationID); err != nil {
			return nil, err
		}
		days = append(days, sd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.ExitMethod("reconciliationRepository.ListActiveStationDays", "date", date, "count", len(days))
	return days, nil
}

func (r *reconciliationRepository) ListOpenDaysBetween(ctx context.Context, since, before string) ([]domain.StationDay, error) {
	logger.EnterMethod("reconciliationRepository.ListOpenDaysBetween", "since", since, "before", before)

	query := `
		SELECT tenant_id, station_id, to_char(rec_date, 'YYYY-MM-DD')
		FROM day_reconciliations
		WHERE finalized = false AND rec_date >= $1 AND rec_date < $2
		ORDER BY rec_date, tenant_id, station_id
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, since, before)
	if err != nil {
		logger.ExitMethodWithError("reconciliationRepository.ListOpenDaysBetween", err, "since", since)
		return nil, err
	}
	defer rows.Close()

	days := []domain.StationDay{}
	for rows.Next() {
		var sd domain.StationDay
		if err := rows.Scan(&sd.TenantID, &sd.StationID, &sd.Date); err != nil {
			return nil, err
		}
		days = append(days, sd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.ExitMethod("reconciliationRepository.ListOpenDaysBetween", "since", since, "before", before, "count", len(days))
	return days, nil
}
