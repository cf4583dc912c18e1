package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/metrics"
	"fuelrecon-backend/internal/repository"
	"fuelrecon-backend/internal/utils"
	"fuelrecon-backend/internal/validation"
)

const entityReading = "nozzle_reading"

type ReadingOptions struct {
	// Location decides which station-date a reading belongs to.
	Location *time.Location
	// RequireResetConfirmation makes a decreasing reading need ConfirmedReset on top of the role check.
	RequireResetConfirmation bool
}

type readingService struct {
	txm         repository.TxManager
	nozzleRepo  repository.NozzleRepository
	readingRepo repository.ReadingRepository
	saleRepo    repository.SaleRepository
	recRepo     repository.ReconciliationRepository
	auditRepo   repository.AuditRepository
	prices      PriceResolver
	credit      CreditService
	publisher   EventPublisher
	opts        ReadingOptions
}

func NewReadingService(
	txm repository.TxManager,
	nozzleRepo repository.NozzleRepository,
	readingRepo repository.ReadingRepository,
	saleRepo repository.SaleRepository,
	recRepo repository.ReconciliationRepository,
	auditRepo repository.AuditRepository,
	prices PriceResolver,
	credit CreditService,
	publisher EventPublisher,
	opts ReadingOptions,
) ReadingService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &readingService{
		txm:         txm,
		nozzleRepo:  nozzleRepo,
		readingRepo: readingRepo,
		saleRepo:    saleRepo,
		recRepo:     recRepo,
		auditRepo:   auditRepo,
		prices:      prices,
		credit:      credit,
		publisher:   publisher,
		opts:        opts,
	}
}

func (s *readingService) SubmitReading(ctx context.Context, auth domain.AuthContext, req SubmitReadingRequest) (*domain.ReadingOutcome, error) {
	outcome, err := s.submit(ctx, auth, req)
	metrics.RecordReading(err)
	if err != nil {
		logFailure("readingService.SubmitReading", err,
			"tenantID", auth.TenantID, "nozzleID", req.NozzleID, "reading", req.Reading.String(), "role", auth.Role)
		return nil, err
	}

	logger.Info("Reading accepted",
		"tenantID", auth.TenantID, "nozzleID", req.NozzleID, "readingID", outcome.Reading.ID,
		"volume", outcome.Sale.Volume.String(), "amount", outcome.Sale.Amount.String(), "meterReset", outcome.MeterReset)
	s.publisher.Publish(outcome.Events...)
	return outcome, nil
}

func (s *readingService) submit(ctx context.Context, auth domain.AuthContext, req SubmitReadingRequest) (*domain.ReadingOutcome, error) {
	if !auth.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, auth.Role)
	}
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}

	recordedAt := req.RecordedAt.UTC()
	readingDate := utils.BusinessDate(recordedAt, s.opts.Location)

	var outcome *domain.ReadingOutcome
	err := s.txm.RunInTx(ctx, func(ctx context.Context) error {
		nozzle, err := s.nozzleRepo.GetForUpdate(ctx, auth.TenantID, req.NozzleID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidNozzle
		}
		if err != nil {
			return err
		}
		if !nozzle.IsActive() {
			return fmt.Errorf("%w: nozzle %d is %s", domain.ErrInvalidNozzle, nozzle.ID, nozzle.Status)
		}

		day, err := s.recRepo.LockDayShared(ctx, auth.TenantID, nozzle.StationID, readingDate)
		if err != nil {
			return err
		}
		if day.Finalized {
			return fmt.Errorf("%w: station %d on %s", domain.ErrDayFinalized, nozzle.StationID, readingDate)
		}

		last, err := s.readingRepo.GetLatestActive(ctx, auth.TenantID, nozzle.ID)
		if err != nil {
			return err
		}

		var meterReset, backdated bool
		if last != nil {
			if req.Reading.Sub(last.Reading).Abs().LessThan(domain.ReadingEpsilon) {
				return fmt.Errorf("%w: %s matches reading %d", domain.ErrDuplicateReading, req.Reading.String(), last.ID)
			}
			if req.Reading.LessThan(last.Reading) {
				if !auth.Role.CanOverrideMeter() {
					return fmt.Errorf("%w: reading %s is below %s", domain.ErrInsufficientRole, req.Reading.String(), last.Reading.String())
				}
				if s.opts.RequireResetConfirmation && !req.ConfirmedReset {
					return domain.ErrResetNotConfirmed
				}
				meterReset = true
			}
			if recordedAt.Before(last.RecordedAt) {
				if !auth.Role.CanOverrideMeter() {
					return fmt.Errorf("%w: %s precedes %s", domain.ErrBackdatedNotAllowed,
						recordedAt.Format(time.RFC3339), last.RecordedAt.UTC().Format(time.RFC3339))
				}
				backdated = true
			}
		}

		price, err := s.prices.Resolve(ctx, auth.TenantID, nozzle.StationID, nozzle.FuelType, recordedAt)
		if err != nil {
			return err
		}
		if price == nil {
			return fmt.Errorf("%w: %s at station %d", domain.ErrPriceNotConfigured, nozzle.FuelType, nozzle.StationID)
		}

		volume := DispensedVolume(last, req.Reading)
		amount := utils.SaleAmount(volume, price.Price)

		var events []domain.Event
		if req.PaymentMethod == domain.PaymentMethodCredit {
			creditEvents, err := s.credit.CheckAndReserve(ctx, auth.TenantID, nozzle.StationID, *req.CreditorID, amount)
			if err != nil {
				return err
			}
			events = append(events, creditEvents...)
		}

		reading := &domain.NozzleReading{
			TenantID:      auth.TenantID,
			NozzleID:      nozzle.ID,
			StationID:     nozzle.StationID,
			Reading:       req.Reading,
			RecordedAt:    recordedAt,
			PaymentMethod: req.PaymentMethod,
			Status:        domain.ReadingStatusActive,
			EnteredBy:     auth.UserID,
		}
		if err := s.readingRepo.Create(ctx, reading, readingDate); err != nil {
			return err
		}

		sale := &domain.Sale{
			TenantID:      auth.TenantID,
			StationID:     nozzle.StationID,
			NozzleID:      nozzle.ID,
			ReadingID:     &reading.ID,
			SaleDate:      readingDate,
			Volume:        volume,
			FuelPrice:     price.Price,
			Amount:        amount,
			PaymentMethod: req.PaymentMethod,
			CreditorID:    req.CreditorID,
			Status:        domain.SaleStatusPosted,
			RecordedAt:    recordedAt,
		}
		if err := s.saleRepo.Create(ctx, sale); err != nil {
			return err
		}

		if meterReset {
			reason := strings.TrimSpace(req.ResetReason)
			if reason == "" {
				reason = "meter reset"
			}
			if err := s.audit(ctx, auth, domain.AuditActionMeterReset, reading.ID, reason, map[string]string{
				"nozzle_id":        fmt.Sprintf("%d", nozzle.ID),
				"previous_reading": last.Reading.String(),
				"reading":          req.Reading.String(),
				"confirmed":        fmt.Sprintf("%t", req.ConfirmedReset),
			}); err != nil {
				return err
			}
			events = append(events, domain.NewEvent(auth.TenantID, nozzle.StationID, domain.EventKindMeterReset, domain.SeverityWarning,
				fmt.Sprintf("Nozzle %d meter went from %s to %s", nozzle.ID, last.Reading.String(), req.Reading.String()),
				map[string]string{
					"nozzle_id":  fmt.Sprintf("%d", nozzle.ID),
					"reading_id": fmt.Sprintf("%d", reading.ID),
					"entered_by": fmt.Sprintf("%d", auth.UserID),
				}))
		}
		if backdated {
			if err := s.audit(ctx, auth, domain.AuditActionBackdated, reading.ID, "backdated reading", map[string]string{
				"nozzle_id":            fmt.Sprintf("%d", nozzle.ID),
				"recorded_at":          recordedAt.Format(time.RFC3339),
				"previous_recorded_at": last.RecordedAt.UTC().Format(time.RFC3339),
			}); err != nil {
				return err
			}
		}

		outcome = &domain.ReadingOutcome{Reading: reading, Sale: sale, MeterReset: meterReset, Events: events}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// DispensedVolume derives the volume a reading represents from the nozzle's previous active reading.
// A reading below the previous one is a meter reset: the meter restarted from zero.
func DispensedVolume(last *domain.NozzleReading, reading decimal.Decimal) decimal.Decimal {
	if last == nil || last.Reading.IsZero() {
		return reading
	}
	if reading.GreaterThanOrEqual(last.Reading) {
		return reading.Sub(last.Reading)
	}
	return reading
}

func (s *readingService) VoidReading(ctx context.Context, auth domain.AuthContext, readingID int64, reason string) (*domain.VoidResult, error) {
	result, err := s.void(ctx, auth, readingID, reason)
	if err != nil {
		logFailure("readingService.VoidReading", err, "tenantID", auth.TenantID, "readingID", readingID, "role", auth.Role)
		return nil, err
	}
	logger.Info("Reading voided", "tenantID", auth.TenantID, "readingID", readingID, "by", auth.UserID)
	return result, nil
}

func (s *readingService) void(ctx context.Context, auth domain.AuthContext, readingID int64, reason string) (*domain.VoidResult, error) {
	if !auth.Role.CanOverrideMeter() {
		return nil, domain.ErrInsufficientRole
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", domain.ErrInvalidInput)
	}
	if readingID <= 0 {
		return nil, domain.ErrNotFound
	}

	err := s.txm.RunInTx(ctx, func(ctx context.Context) error {
		reading, readingDate, err := s.readingRepo.GetByIDForUpdate(ctx, auth.TenantID, readingID)
		if err != nil {
			return err
		}
		if reading.Status == domain.ReadingStatusVoided {
			return domain.ErrAlreadyVoided
		}

		day, err := s.recRepo.LockDayShared(ctx, auth.TenantID, reading.StationID, readingDate)
		if err != nil {
			return err
		}
		if day.Finalized {
			return fmt.Errorf("%w: station %d on %s", domain.ErrDayFinalized, reading.StationID, readingDate)
		}

		if err := s.readingRepo.UpdateStatus(ctx, auth.TenantID, readingID, domain.ReadingStatusVoided); err != nil {
			return err
		}
		voided, err := s.saleRepo.VoidByReading(ctx, auth.TenantID, readingID)
		if err != nil {
			return err
		}
		if voided != 1 {
			return fmt.Errorf("void reading %d: expected one dependent sale, updated %d", readingID, voided)
		}

		return s.audit(ctx, auth, domain.AuditActionReadingVoided, readingID, reason, map[string]string{
			"nozzle_id": fmt.Sprintf("%d", reading.NozzleID),
			"reading":   reading.Reading.String(),
			"date":      readingDate,
		})
	})
	if err != nil {
		return nil, err
	}
	return &domain.VoidResult{ID: readingID, Status: domain.ReadingStatusVoided}, nil
}

func (s *readingService) audit(ctx context.Context, auth domain.AuthContext, action domain.AuditAction, readingID int64, reason string, details map[string]string) error {
	return s.auditRepo.Create(ctx, &domain.AuditEntry{
		TenantID:    auth.TenantID,
		Action:      action,
		EntityType:  entityReading,
		EntityID:    readingID,
		Reason:      reason,
		PerformedBy: auth.UserID,
		Details:     details,
	})
}
