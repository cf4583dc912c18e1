package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/repository"
	"fuelrecon-backend/internal/utils"
	"fuelrecon-backend/internal/validation"
)

// Share of the limit at which a creditor is reported as near its limit.
const nearLimitPercent = 90

type creditService struct {
	creditorRepo repository.CreditorRepository
	now          Clock
}

func NewCreditService(creditorRepo repository.CreditorRepository, now Clock) CreditService {
	if now == nil {
		now = time.Now
	}
	return &creditService{creditorRepo: creditorRepo, now: now}
}

func (s *creditService) GetBalance(ctx context.Context, auth domain.AuthContext, creditorID int64) (*domain.CreditorBalance, error) {
	creditor, err := s.creditorRepo.GetByID(ctx, auth.TenantID, creditorID)
	if err != nil {
		return nil, err
	}
	balance, err := s.creditorRepo.GetBalance(ctx, auth.TenantID, creditorID)
	if err != nil {
		return nil, err
	}
	return &domain.CreditorBalance{
		CreditorID:  creditor.ID,
		CreditLimit: creditor.CreditLimit,
		Balance:     balance,
		Available:   creditor.CreditLimit.Sub(balance),
	}, nil
}

func (s *creditService) CheckAndReserve(ctx context.Context, tenantID, stationID, creditorID int64, amount decimal.Decimal) ([]domain.Event, error) {
	creditor, err := s.creditorRepo.GetForUpdate(ctx, tenantID, creditorID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCreditor
	}
	if err != nil {
		return nil, err
	}
	if !creditor.ServesStation(stationID) {
		return nil, fmt.Errorf("%w: creditor %d does not serve station %d", domain.ErrInvalidCreditor, creditorID, stationID)
	}

	balance, err := s.creditorRepo.GetBalance(ctx, tenantID, creditorID)
	if err != nil {
		return nil, err
	}

	projected := balance.Add(amount)
	if projected.GreaterThan(creditor.CreditLimit) {
		logger.Info("Credit limit exceeded",
			"tenantID", tenantID, "creditorID", creditorID,
			"balance", balance.String(), "amount", amount.String(), "limit", creditor.CreditLimit.String())
		return nil, fmt.Errorf("%w: balance %s + %s exceeds %s",
			domain.ErrCreditLimitExceeded, balance.StringFixed(2), amount.StringFixed(2), creditor.CreditLimit.StringFixed(2))
	}

	if !projected.LessThan(utils.Fraction(creditor.CreditLimit, nearLimitPercent)) {
		ev := domain.NewEvent(tenantID, stationID, domain.EventKindCreditNearLimit, domain.SeverityWarning,
			fmt.Sprintf("Creditor %s is at %s of %s credit limit", creditor.Name, projected.StringFixed(2), creditor.CreditLimit.StringFixed(2)),
			map[string]string{
				"creditor_id": fmt.Sprintf("%d", creditor.ID),
				"balance":     projected.StringFixed(2),
				"limit":       creditor.CreditLimit.StringFixed(2),
			})
		return []domain.Event{ev}, nil
	}
	return nil, nil
}

func (s *creditService) RecordPayment(ctx context.Context, auth domain.AuthContext, req RecordPaymentRequest) (*domain.CreditPayment, error) {
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if _, err := s.creditorRepo.GetByID(ctx, auth.TenantID, req.CreditorID); err != nil {
		return nil, err
	}

	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	payment := &domain.CreditPayment{
		TenantID:      auth.TenantID,
		CreditorID:    req.CreditorID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		PaidAt:        paidAt.UTC(),
		RecordedBy:    auth.UserID,
	}
	if err := s.creditorRepo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}
	logger.Info("Credit payment recorded", "tenantID", auth.TenantID, "creditorID", req.CreditorID, "amount", req.Amount.String())
	return payment, nil
}
