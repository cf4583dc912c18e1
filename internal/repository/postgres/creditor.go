package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/repository"
)

type creditorRepository struct {
	db *sql.DB
}

func NewCreditorRepository(db *sql.DB) repository.CreditorRepository {
	return &creditorRepository{db: db}
}

func (r *creditorRepository) GetByID(ctx context.Context, tenantID, creditorID int64) (*domain.Creditor, error) {
	query := `SELECT id, tenant_id, station_id, name, credit_limit FROM creditors WHERE id = $1 AND tenant_id = $2`
	return r.get(ctx, "creditorRepository.GetByID", query, tenantID, creditorID)
}

// GetForUpdate locks the creditor row so concurrent credit sales check the limit one at a time.
func (r *creditorRepository) GetForUpdate(ctx context.Context, tenantID, creditorID int64) (*domain.Creditor, error) {
	query := `SELECT id, tenant_id, station_id, name, credit_limit FROM creditors WHERE id = $1 AND tenant_id = $2 FOR UPDATE`
	return r.get(ctx, "creditorRepository.GetForUpdate", query, tenantID, creditorID)
}

func (r *creditorRepository) get(ctx context.Context, method, query string, tenantID, creditorID int64) (*domain.Creditor, error) {
	logger.EnterMethod(method, "tenantID", tenantID, "creditorID", creditorID)

	c := &domain.Creditor{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, creditorID, tenantID).Scan(
		&c.ID, &c.TenantID, &c.StationID, &c.Name, &c.CreditLimit,
	)
	if errors.Is(err, sql.ErrNoRows) {
		logger.ExitMethod(method, "creditorID", creditorID, "found", false)
		return nil, domain.ErrNotFound
	}
	if err != nil {
		logger.ExitMethodWithError(method, err, "creditorID", creditorID)
		return nil, err
	}

	logger.ExitMethod(method, "creditorID", creditorID)
	return c, nil
}

// GetBalance derives the outstanding balance from its sources; there is no balance column.
func (r *creditorRepository) GetBalance(ctx context.Context, tenantID, creditorID int64) (decimal.Decimal, error) {
	logger.EnterMethod("creditorRepository.GetBalance", "tenantID", tenantID, "creditorID", creditorID)

	query := `
		SELECT
			(SELECT COALESCE(SUM(amount), 0) FROM sales
			 WHERE tenant_id = $1 AND creditor_id = $2 AND payment_method = 'credit' AND status <> 'voided')
			-
			(SELECT COALESCE(SUM(amount), 0) FROM credit_payments
			 WHERE tenant_id = $1 AND creditor_id = $2)
	`

	var balance decimal.Decimal
	err := conn(ctx, r.db).QueryRowContext(ctx, query, tenantID, creditorID).Scan(&balance)
	if err != nil {
		logger.ExitMethodWithError("creditorRepository.GetBalance", err, "creditorID", creditorID)
		return decimal.Zero, err
	}

	logger.ExitMethod("creditorRepository.GetBalance", "creditorID", creditorID, "balance", balance)
	return balance, nil
}

func (r *creditorRepository) CreatePayment(ctx context.Context, p *domain.CreditPayment) error {
	logger.EnterMethod("creditorRepository.CreatePayment", "tenantID", p.TenantID, "creditorID", p.CreditorID)

	query := `
		INSERT INTO credit_payments (tenant_id, creditor_id, amount, payment_method, paid_at, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	logger.DatabaseCall("INSERT", "credit_payments", "creditorID", p.CreditorID)
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		p.TenantID, p.CreditorID, p.Amount, p.PaymentMethod, p.PaidAt, p.RecordedBy, time.Now().UTC(),
	).Scan(&p.ID)
	logger.DatabaseResult("INSERT", 1, err, "paymentID", p.ID)

	if err != nil {
		logger.ExitMethodWithError("creditorRepository.CreatePayment", err, "creditorID", p.CreditorID)
		return err
	}

	logger.ExitMethod("creditorRepository.CreatePayment", "paymentID", p.ID)
	return nil
}
