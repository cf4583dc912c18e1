package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/metrics"
	"fuelrecon-backend/internal/repository"
	"fuelrecon-backend/internal/utils"
	"fuelrecon-backend/internal/validation"
)

const entityReconciliation = "day_reconciliation"

type ReconciliationOptions struct {
	// FinalizeOnRun lets a plain run finalize a day with activity. Close always finalizes.
	FinalizeOnRun bool
}

type reconciliationService struct {
	txm         repository.TxManager
	readingRepo repository.ReadingRepository
	saleRepo    repository.SaleRepository
	cashRepo    repository.CashReportRepository
	recRepo     repository.ReconciliationRepository
	auditRepo   repository.AuditRepository
	publisher   EventPublisher
	opts        ReconciliationOptions
	now         Clock
}

func NewReconciliationService(
	txm repository.TxManager,
	readingRepo repository.ReadingRepository,
	saleRepo repository.SaleRepository,
	cashRepo repository.CashReportRepository,
	recRepo repository.ReconciliationRepository,
	auditRepo repository.AuditRepository,
	publisher EventPublisher,
	opts ReconciliationOptions,
	now Clock,
) ReconciliationService {
	if now == nil {
		now = time.Now
	}
	return &reconciliationService{
		txm:         txm,
		readingRepo: readingRepo,
		saleRepo:    saleRepo,
		cashRepo:    cashRepo,
		recRepo:     recRepo,
		auditRepo:   auditRepo,
		publisher:   publisher,
		opts:        opts,
		now:         now,
	}
}

// RunReconciliation recomputes the day. It finalizes only when FinalizeOnRun is set and the
// caller may close days; an attendant run recomputes and leaves the day open.
func (s *reconciliationService) RunReconciliation(ctx context.Context, auth domain.AuthContext, stationID int64, date string) (*domain.ReconciliationResult, error) {
	return s.reconcile(ctx, auth, stationID, date, "run", s.opts.FinalizeOnRun && auth.Role.CanCloseDay())
}

// CloseDayReconciliation finalizes the day when it has activity. On an already finalized
// day it returns the stored row untouched.
func (s *reconciliationService) CloseDayReconciliation(ctx context.Context, auth domain.AuthContext, stationID int64, date string) (*domain.ReconciliationResult, error) {
	if !auth.Role.CanCloseDay() {
		metrics.RecordReconciliation("close", domain.ErrInsufficientRole)
		logFailure("reconciliationService.CloseDayReconciliation", domain.ErrInsufficientRole,
			"tenantID", auth.TenantID, "stationID", stationID, "role", auth.Role)
		return nil, domain.ErrInsufficientRole
	}
	return s.reconcile(ctx, auth, stationID, date, "close", true)
}

func (s *reconciliationService) reconcile(ctx context.Context, auth domain.AuthContext, stationID int64, date, mode string, finalize bool) (*domain.ReconciliationResult, error) {
	method := "reconciliationService." + mode
	result, err := s.runLocked(ctx, auth, stationID, date, finalize)
	metrics.RecordReconciliation(mode, err)
	if err != nil {
		logFailure(method, err, "tenantID", auth.TenantID, "stationID", stationID, "date", date)
		return nil, err
	}

	rec := result.Reconciliation
	logger.WithTenant(auth.TenantID, stationID).Info("Reconciliation computed",
		"mode", mode, "date", date, "totalSales", rec.TotalSales.String(), "variance", rec.Variance.String(),
		"finalized", rec.Finalized, "diffs", len(result.Diffs))
	s.publisher.Publish(result.Events...)
	return result, nil
}

func (s *reconciliationService) runLocked(ctx context.Context, auth domain.AuthContext, stationID int64, date string, finalize bool) (*domain.ReconciliationResult, error) {
	if err := checkStationDate(stationID, date); err != nil {
		return nil, err
	}

	var result *domain.ReconciliationResult
	err := s.txm.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := s.recRepo.GetOrCreateForUpdate(ctx, auth.TenantID, stationID, date)
		if err != nil {
			return err
		}
		if rec.Finalized {
			diffs, err := s.recRepo.ListDiffs(ctx, auth.TenantID, rec.ID)
			if err != nil {
				return err
			}
			result = &domain.ReconciliationResult{Reconciliation: rec, Diffs: diffs}
			return nil
		}

		sales, err := s.saleRepo.SumDay(ctx, auth.TenantID, stationID, date)
		if err != nil {
			return err
		}
		meters, err := s.readingRepo.SumDay(ctx, auth.TenantID, stationID, date)
		if err != nil {
			return err
		}
		ApplyTotals(rec, sales, meters)

		diffs, events, err := s.compareCashReports(ctx, rec)
		if err != nil {
			return err
		}

		if finalize && rec.HasActivity() {
			// timestamptz keeps microseconds; match it so a re-read returns the same value
			now := s.now().UTC().Truncate(time.Microsecond)
			rec.Finalized = true
			rec.FinalizedAt = &now
			if auth.UserID > 0 {
				by := auth.UserID
				rec.FinalizedBy = &by
			}
			if err := s.auditRepo.Create(ctx, &domain.AuditEntry{
				TenantID:    auth.TenantID,
				Action:      domain.AuditActionDayFinalized,
				EntityType:  entityReconciliation,
				EntityID:    rec.ID,
				Reason:      "day closed",
				PerformedBy: auth.UserID,
				Details: map[string]string{
					"station_id":  fmt.Sprintf("%d", stationID),
					"date":        date,
					"total_sales": rec.TotalSales.StringFixed(2),
					"variance":    rec.Variance.String(),
				},
			}); err != nil {
				return err
			}
			events = append(events, domain.NewEvent(auth.TenantID, stationID, domain.EventKindDayFinalized, domain.SeverityInfo,
				fmt.Sprintf("Station %d closed %s with sales %s", stationID, date, rec.TotalSales.StringFixed(2)),
				map[string]string{"date": date, "total_sales": rec.TotalSales.StringFixed(2), "variance": rec.Variance.String()}))
		}

		if err := s.recRepo.Update(ctx, rec); err != nil {
			return err
		}
		result = &domain.ReconciliationResult{Reconciliation: rec, Diffs: diffs, Events: events}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyTotals copies sale and meter aggregates onto the day and derives the meter variance.
func ApplyTotals(rec *domain.DayReconciliation, sales *domain.DaySalesTotals, meters *domain.DayMeterTotals) {
	rec.TotalSales = sales.Total
	rec.CashSales = sales.Cash
	rec.CardSales = sales.Card
	rec.UPISales = sales.UPI
	rec.CreditSales = sales.Credit
	rec.TotalVolume = sales.Volume
	rec.SaleCount = sales.Count
	rec.OpeningReading = meters.Opening
	rec.ClosingReading = meters.Closing
	rec.ReadingCount = meters.Count
	rec.Variance = meters.Closing.Sub(meters.Opening).Sub(sales.Volume)
}

func (s *reconciliationService) compareCashReports(ctx context.Context, rec *domain.DayReconciliation) ([]domain.ReconciliationDiff, []domain.Event, error) {
	reports, err := s.cashRepo.ListByDay(ctx, rec.TenantID, rec.StationID, rec.Date)
	if err != nil {
		return nil, nil, err
	}

	diffs := make([]domain.ReconciliationDiff, 0, len(reports))
	var events []domain.Event
	for i := range reports {
		diff, ev, err := s.storeDiff(ctx, rec.ID, &reports[i], rec.CashSales)
		if err != nil {
			return nil, nil, err
		}
		diffs = append(diffs, *diff)
		if ev != nil {
			events = append(events, *ev)
		}
	}
	return diffs, events, nil
}

// storeDiff compares a report against the cash sales it covers: its shift window when it has one,
// otherwise dayCash.
func (s *reconciliationService) storeDiff(ctx context.Context, recID int64, report *domain.CashReport, dayCash decimal.Decimal) (*domain.ReconciliationDiff, *domain.Event, error) {
	actual := dayCash
	if report.HasShiftWindow() {
		var err error
		actual, err = s.saleRepo.SumCashBetween(ctx, report.TenantID, report.StationID, *report.ShiftStart, *report.ShiftEnd)
		if err != nil {
			return nil, nil, err
		}
	}

	difference := report.Cash.Sub(actual)
	diff := &domain.ReconciliationDiff{
		TenantID:         report.TenantID,
		ReconciliationID: recID,
		CashReportID:     report.ID,
		ReportedCash:     report.Cash,
		ActualCash:       actual,
		Difference:       difference,
		Status:           domain.ClassifyDifference(difference),
	}
	if err := s.recRepo.UpsertDiff(ctx, diff); err != nil {
		return nil, nil, err
	}

	if !domain.IsDiscrepancy(difference, actual) {
		return diff, nil, nil
	}
	severity := domain.SeverityWarning
	if difference.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		severity = domain.SeverityCritical
	}
	ev := domain.NewEvent(report.TenantID, report.StationID, domain.EventKindCashDiscrepancy, severity,
		fmt.Sprintf("Cash report %d is %s by %s", report.ID, diff.Status, difference.Abs().StringFixed(2)),
		map[string]string{
			"cash_report_id": fmt.Sprintf("%d", report.ID),
			"date":           report.ReportDate,
			"reported":       report.Cash.StringFixed(2),
			"actual":         actual.StringFixed(2),
			"difference":     difference.StringFixed(2),
		})
	return diff, &ev, nil
}

func (s *reconciliationService) GetReconciliation(ctx context.Context, auth domain.AuthContext, stationID int64, date string) (*domain.ReconciliationResult, error) {
	if err := checkStationDate(stationID, date); err != nil {
		return nil, err
	}
	rec, err := s.recRepo.Get(ctx, auth.TenantID, stationID, date)
	if err != nil {
		return nil, err
	}
	diffs, err := s.recRepo.ListDiffs(ctx, auth.TenantID, rec.ID)
	if err != nil {
		return nil, err
	}
	return &domain.ReconciliationResult{Reconciliation: rec, Diffs: diffs}, nil
}

func (s *reconciliationService) SubmitCashReport(ctx context.Context, auth domain.AuthContext, req CashReportRequest) (*domain.CashReportOutcome, error) {
	outcome, err := s.submitCashReport(ctx, auth, req)
	if err != nil {
		logFailure("reconciliationService.SubmitCashReport", err, "tenantID", auth.TenantID, "stationID", req.StationID, "date", req.ReportDate)
		return nil, err
	}
	logger.WithTenant(auth.TenantID, req.StationID).Info("Cash report recorded",
		"reportID", outcome.Report.ID, "date", req.ReportDate, "status", outcome.Diff.Status, "difference", outcome.Diff.Difference.String())
	s.publisher.Publish(outcome.Events...)
	return outcome, nil
}

func (s *reconciliationService) submitCashReport(ctx context.Context, auth domain.AuthContext, req CashReportRequest) (*domain.CashReportOutcome, error) {
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if req.ShiftStart != nil && req.ShiftEnd != nil && !req.ShiftEnd.After(*req.ShiftStart) {
		return nil, fmt.Errorf("%w: shift_end must be after shift_start", domain.ErrInvalidInput)
	}

	var outcome *domain.CashReportOutcome
	err := s.txm.RunInTx(ctx, func(ctx context.Context) error {
		day, err := s.recRepo.LockDayShared(ctx, auth.TenantID, req.StationID, req.ReportDate)
		if err != nil {
			return err
		}
		if day.Finalized {
			return fmt.Errorf("%w: station %d on %s", domain.ErrDayFinalized, req.StationID, req.ReportDate)
		}

		report := &domain.CashReport{
			TenantID:    auth.TenantID,
			StationID:   req.StationID,
			ReportDate:  req.ReportDate,
			ShiftStart:  utcPtr(req.ShiftStart),
			ShiftEnd:    utcPtr(req.ShiftEnd),
			Cash:        req.Cash,
			Card:        req.Card,
			UPI:         req.UPI,
			SubmittedBy: auth.UserID,
		}
		if err := s.cashRepo.Create(ctx, report); err != nil {
			return err
		}

		dayCash := decimal.Zero
		if !report.HasShiftWindow() {
			totals, err := s.saleRepo.SumDay(ctx, auth.TenantID, req.StationID, req.ReportDate)
			if err != nil {
				return err
			}
			dayCash = totals.Cash
		}
		diff, ev, err := s.storeDiff(ctx, day.ID, report, dayCash)
		if err != nil {
			return err
		}

		outcome = &domain.CashReportOutcome{Report: report, Diff: diff}
		if ev != nil {
			outcome.Events = []domain.Event{*ev}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func checkStationDate(stationID int64, date string) error {
	if stationID <= 0 {
		return fmt.Errorf("%w: station id must be positive", domain.ErrInvalidInput)
	}
	if _, err := utils.ParseDate(date); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
