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

type readingRepository struct {
	db *sql.DB
}

func NewReadingRepository(db *sql.DB) repository.ReadingRepository {
	return &readingRepository{db: db}
}

const readingColumns = `id, tenant_id, nozzle_id, station_id, reading, recorded_at, payment_method, status, entered_by, created_at`

func scanReading(row interface{ Scan(...any) error }, nr *domain.NozzleReading, extra ...any) error {
	dest := []any{
		&nr.ID, &nr.TenantID, &nr.NozzleID, &nr.StationID, &nr.Reading, &nr.RecordedAt,
		&nr.PaymentMethod, &nr.Status, &nr.EnteredBy, &nr.CreatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func (r *readingRepository) Create(ctx context.Context, nr *domain.NozzleReading, readingDate string) error {
	logger.EnterMethod("readingRepository.Create", "tenantID", nr.TenantID, "nozzleID", nr.NozzleID, "readingDate", readingDate)

	query := `
		INSERT INTO nozzle_readings (
			tenant_id, nozzle_id, station_id, reading, reading_date, recorded_at,
			payment_method, status, entered_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	logger.DatabaseCall("INSERT", "nozzle_readings", "nozzleID", nr.NozzleID)
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		nr.TenantID, nr.NozzleID, nr.StationID, nr.Reading, readingDate, nr.RecordedAt,
		nr.PaymentMethod, nr.Status, nr.EnteredBy, time.Now().UTC(),
	).Scan(&nr.ID, &nr.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "readingID", nr.ID)

	if err != nil {
		logger.ExitMethodWithError("readingRepository.Create", err, "nozzleID", nr.NozzleID)
		return err
	}

	logger.ExitMethod("readingRepository.Create", "readingID", nr.ID)
	return nil
}

// GetByIDForUpdate locks the reading and returns it with its station-date.
func (r *readingRepository) GetByIDForUpdate(ctx context.Context, tenantID, readingID int64) (*domain.NozzleReading, string, error) {
	logger.EnterMethod("readingRepository.GetByIDForUpdate", "tenantID", tenantID, "readingID", readingID)

	query := `SELECT ` + readingColumns + `, to_char(reading_date, 'YYYY-MM-DD')
		FROM nozzle_readings WHERE id = $1 AND tenant_id = $2 FOR UPDATE`

	nr := &domain.NozzleReading{}
	var readingDate string
	err := scanReading(conn(ctx, r.db).QueryRowContext(ctx, query, readingID, tenantID), nr, &readingDate)
	if errors.Is(err, sql.ErrNoRows) {
		logger.ExitMethod("readingRepository.GetByIDForUpdate", "readingID", readingID, "found", false)
		return nil, "", domain.ErrNotFound
	}
	if err != nil {
		logger.ExitMethodWithError("readingRepository.GetByIDForUpdate", err, "readingID", readingID)
		return nil, "", err
	}

	logger.ExitMethod("readingRepository.GetByIDForUpdate", "readingID", readingID, "status", nr.Status)
	return nr, readingDate, nil
}

func (r *readingRepository) GetLatestActive(ctx context.Context, tenantID, nozzleID int64) (*domain.NozzleReading, error) {
	logger.EnterMethod("readingRepository.GetLatestActive", "tenantID", tenantID, "nozzleID", nozzleID)

	query := `SELECT ` + readingColumns + `
		FROM nozzle_readings
		WHERE nozzle_id = $1 AND tenant_id = $2 AND status = 'active'
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1`

	nr := &domain.NozzleReading{}
	err := scanReading(conn(ctx, r.db).QueryRowContext(ctx, query, nozzleID, tenantID), nr)
	if errors.Is(err, sql.ErrNoRows) {
		logger.ExitMethod("readingRepository.GetLatestActive", "nozzleID", nozzleID, "found", false)
		return nil, nil
	}
	if err != nil {
		logger.ExitMethodWithError("readingRepository.GetLatestActive", err, "nozzleID", nozzleID)
		return nil, err
	}

	logger.ExitMethod("readingRepository.GetLatestActive", "nozzleID", nozzleID, "readingID", nr.ID)
	return nr, nil
}

func (r *readingRepository) UpdateStatus(ctx context.Context, tenantID, readingID int64, status domain.ReadingStatus) error {
	logger.EnterMethod("readingRepository.UpdateStatus", "tenantID", tenantID, "readingID", readingID, "status", status)

	query := `UPDATE nozzle_readings SET status = $1 WHERE id = $2 AND tenant_id = $3`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, status, readingID, tenantID)
	if err != nil {
		logger.ExitMethodWithError("readingRepository.UpdateStatus", err, "readingID", readingID)
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		logger.ExitMethod("readingRepository.UpdateStatus", "readingID", readingID, "found", false)
		return domain.ErrNotFound
	}

	logger.ExitMethod("readingRepository.UpdateStatus", "readingID", readingID)
	return nil
}

// SumDay returns Σ per-nozzle MIN (opening) and MAX (closing) of the active readings of a station-date.
func (r *readingRepository) SumDay(ctx context.Context, tenantID, stationID int64, date string) (*domain.DayMeterTotals, error) {
	logger.EnterMethod("readingRepository.SumDay", "tenantID", tenantID, "stationID", stationID, "date", date)

	query := `
		SELECT COALESCE(SUM(opening), 0), COALESCE(SUM(closing), 0), COALESCE(SUM(cnt), 0)
		FROM (
			SELECT nozzle_id, MIN(reading) AS opening, MAX(reading) AS closing, COUNT(*) AS cnt
			FROM nozzle_readings
			WHERE tenant_id = $1 AND station_id = $2 AND reading_date = $3 AND status = 'active'
			GROUP BY nozzle_id
		) per_nozzle
	`

	totals := &domain.DayMeterTotals{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, tenantID, stationID, date).Scan(
		&totals.Opening, &totals.Closing, &totals.Count,
	)
	if err != nil {
		logger.ExitMethodWithError("readingRepository.SumDay", err, "stationID", stationID, "date", date)
		return nil, err
	}

	logger.ExitMethod("readingRepository.SumDay", "stationID", stationID, "readings", totals.Count)
	return totals, nil
}
