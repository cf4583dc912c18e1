package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashReport is what the attendant says was collected; it never touches Sales.
type CashReport struct {
	ID          int64           `json:"id"`
	TenantID    int64           `json:"tenant_id"`
	StationID   int64           `json:"station_id"`
	ReportDate  string          `json:"report_date"` // Format: 'YYYY-MM-DD'
	ShiftStart  *time.Time      `json:"shift_start,omitempty"`
	ShiftEnd    *time.Time      `json:"shift_end,omitempty"`
	Cash        decimal.Decimal `json:"cash"`
	Card        decimal.Decimal `json:"card"`
	UPI         decimal.Decimal `json:"upi"`
	SubmittedBy int64           `json:"submitted_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// HasShiftWindow reports whether the report covers a shift rather than the whole day.
func (c *CashReport) HasShiftWindow() bool {
	return c.ShiftStart != nil && c.ShiftEnd != nil
}

type CashReportOutcome struct {
	Report *CashReport         `json:"report"`
	Diff   *ReconciliationDiff `json:"diff"`
	Events []Event             `json:"-"`
}
