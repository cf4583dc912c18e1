package postgres

import (
	"context"
	"database/sql"
	"time"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/repository"
)

type cashReportRepository struct {
	db *sql.DB
}

func NewCashReportRepository(db *sql.DB) repository.CashReportRepository {
	return &cashReportRepository{db: db}
}

func (r *cashReportRepository) Create(ctx context.Context, c *domain.CashReport) error {
	logger.EnterMethod("cashReportRepository.Create", "tenantID", c.TenantID, "stationID", c.StationID, "date", c.ReportDate)

	query := `
		INSERT INTO cash_reports (
			tenant_id, station_id, report_date, shift_start, shift_end, cash, card, upi, submitted_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		c.TenantID, c.StationID, c.ReportDate, c.ShiftStart, c.ShiftEnd, c.Cash, c.Card, c.UPI, c.SubmittedBy, time.Now().UTC(),
	).Scan(&c.ID, &c.CreatedAt)

	if err != nil {
		logger.ExitMethodWithError("cashReportRepository.Create", err, "stationID", c.StationID)
		return err
	}

	logger.ExitMethod("cashReportRepository.Create", "cashReportID", c.ID)
	return nil
}

func (r *cashReportRepository) ListByDay(ctx context.Context, tenantID, stationID int64, date string) ([]domain.CashReport, error) {
	logger.EnterMethod("cashReportRepository.ListByDay", "tenantID", tenantID, "stationID", stationID, "date", date)

	query := `
		SELECT id, tenant_id, station_id, to_char(report_date, 'YYYY-MM-DD'), shift_start, shift_end,
		       cash, card, upi, submitted_by, created_at
		FROM cash_reports
		WHERE tenant_id = $1 AND station_id = $2 AND report_date = $3
		ORDER BY id
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, tenantID, stationID, date)
	if err != nil {
		logger.ExitMethodWithError("cashReportRepository.ListByDay", err, "stationID", stationID)
		return nil, err
	}
	defer rows.Close()

	reports := []domain.CashReport{}
	for rows.Next() {
		var c domain.CashReport
		if err := rows.Scan(
			&c.ID, &c.TenantID, &c.StationID, &c.ReportDate, &c.ShiftStart, &c.ShiftEnd,
			&c.Cash, &c.Card, &c.UPI, &c.SubmittedBy, &c.CreatedAt,
		); err != nil {
			logger.ExitMethodWithError("cashReportRepository.ListByDay", err, "stationID", stationID)
			return nil, err
		}
		reports = append(reports, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.ExitMethod("cashReportRepository.ListByDay", "stationID", stationID, "count", len(reports))
	return reports, nil
}
