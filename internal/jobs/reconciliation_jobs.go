package jobs

import (
	"context"
	"fmt"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/utils"
)

const (
	JobAutoCloseDays = "auto-close-days"
	JobRerunOpenDays = "rerun-open-days"
)

// systemActor is the caller jobs act as. UserID 0 marks the row as closed by the system.
func systemActor(tenantID int64) domain.AuthContext {
	return domain.AuthContext{TenantID: tenantID, Role: domain.RoleOwner}
}

// AutoCloseDays closes yesterday (in the business timezone) for every station that had activity.
func (jr *JobRunner) AutoCloseDays() {
	jr.runWithRecovery(JobAutoCloseDays, func(ctx context.Context) error {
		today := utils.BusinessDate(jr.now(), jr.config.Location())
		yesterday, err := utils.AddDays(today, -1)
		if err != nil {
			return err
		}

		days, err := jr.recRepo.ListActiveStationDays(ctx, yesterday)
		if err != nil {
			return fmt.Errorf("list active station days: %w", err)
		}

		var closed, open, failed int
		for _, day := range days {
			result, err := jr.reconciliations.CloseDayReconciliation(ctx, systemActor(day.TenantID), day.StationID, day.Date)
			if err != nil {
				failed++
				logger.Error("Failed to close day", "tenant_id", day.TenantID, "station_id", day.StationID, "date", day.Date, "error", err)
				continue
			}
			if result.Reconciliation.Finalized {
				closed++
			} else {
				open++
			}
		}

		logger.Info("Auto-close finished", "date", yesterday, "stations", len(days), "closed", closed, "left_open", open, "failed", failed)
		if failed > 0 {
			return fmt.Errorf("%d of %d station days failed to close", failed, len(days))
		}
		return nil
	})
}

// RerunOpenDays recomputes every open day within the configured look-back window so late
// readings and cash reports show up in the stored totals. The current business day is never
// included: a run may finalize, and today is still taking readings.
func (jr *JobRunner) RerunOpenDays() {
	jr.runWithRecovery(JobRerunOpenDays, func(ctx context.Context) error {
		today := utils.BusinessDate(jr.now(), jr.config.Location())
		since, err := utils.AddDays(today, -jr.config.Reconciliation.RerunDays)
		if err != nil {
			return err
		}

		days, err := jr.recRepo.ListOpenDaysBetween(ctx, since, today)
		if err != nil {
			return fmt.Errorf("list open days: %w", err)
		}

		var failed int
		for _, day := range days {
			if _, err := jr.reconciliations.RunReconciliation(ctx, systemActor(day.TenantID), day.StationID, day.Date); err != nil {
				failed++
				logger.Error("Failed to rerun day", "tenant_id", day.TenantID, "station_id", day.StationID, "date", day.Date, "error", err)
			}
		}

		logger.Info("Rerun finished", "since", since, "before", today, "days", len(days), "failed", failed)
		if failed > 0 {
			return fmt.Errorf("%d of %d open days failed to rerun", failed, len(days))
		}
		return nil
	})
}
