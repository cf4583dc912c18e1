package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayReconciliation is unique per (tenant, station, date). Once Finalized it is never rewritten.
type DayReconciliation struct {
	ID             int64           `json:"id"`
	TenantID       int64           `json:"tenant_id"`
	StationID      int64           `json:"station_id"`
	Date           string          `json:"date"` // Format: 'YYYY-MM-DD'
	TotalSales     decimal.Decimal `json:"total_sales"`
	CashSales      decimal.Decimal `json:"cash_sales"`
	CardSales      decimal.Decimal `json:"card_sales"`
	UPISales       decimal.Decimal `json:"upi_sales"`
	CreditSales    decimal.Decimal `json:"credit_sales"`
	TotalVolume    decimal.Decimal `json:"total_volume"`
	OpeningReading decimal.Decimal `json:"opening_reading"`
	ClosingReading decimal.Decimal `json:"closing_reading"`
	Variance       decimal.Decimal `json:"variance"`
	ReadingCount   int32           `json:"reading_count"`
	SaleCount      int32           `json:"sale_count"`
	Finalized      bool            `json:"finalized"`
	FinalizedAt    *time.Time      `json:"finalized_at,omitempty"`
	FinalizedBy    *int64          `json:"finalized_by,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// HasActivity reports whether the day saw both readings and sales, the precondition for finalizing it.
func (d *DayReconciliation) HasActivity() bool {
	return d.ReadingCount > 0 && d.SaleCount > 0
}

type DiffStatus string

const (
	DiffStatusMatch DiffStatus = "match"
	DiffStatusOver  DiffStatus = "over"
	DiffStatusShort DiffStatus = "short"
)

// ReconciliationDiff compares one cash report against computed cash sales.
type ReconciliationDiff struct {
	ID               int64           `json:"id"`
	TenantID         int64           `json:"tenant_id"`
	ReconciliationID int64           `json:"reconciliation_id"`
	CashReportID     int64           `json:"cash_report_id"`
	ReportedCash     decimal.Decimal `json:"reported_cash"`
	ActualCash       decimal.Decimal `json:"actual_cash"`
	Difference       decimal.Decimal `json:"difference"`
	Status           DiffStatus      `json:"status"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type ReconciliationResult struct {
	Reconciliation *DayReconciliation   `json:"reconciliation"`
	Diffs          []ReconciliationDiff `json:"diffs"`
	Events         []Event              `json:"-"`
}

var (
	discrepancyRate = decimal.RequireFromString("0.05")
	discrepancyCap  = decimal.NewFromInt(1000)
)

// ClassifyDifference tags reported − actual.
func ClassifyDifference(difference decimal.Decimal) DiffStatus {
	switch difference.Sign() {
	case 0:
		return DiffStatusMatch
	case 1:
		return DiffStatusOver
	default:
		return DiffStatusShort
	}
}

// DiscrepancyThreshold is min(actualCash × 5%, 1000).
func DiscrepancyThreshold(actualCash decimal.Decimal) decimal.Decimal {
	return decimal.Min(actualCash.Mul(discrepancyRate), discrepancyCap)
}

// IsDiscrepancy reports whether a difference is large enough to alert on.
func IsDiscrepancy(difference, actualCash decimal.Decimal) bool {
	return difference.Abs().GreaterThan(DiscrepancyThreshold(actualCash))
}

// DaySalesTotals is the aggregate of non-voided sales for a station-date.
type DaySalesTotals struct {
	Total  decimal.Decimal
	Cash   decimal.Decimal
	Card   decimal.Decimal
	UPI    decimal.Decimal
	Credit decimal.Decimal
	Volume decimal.Decimal
	Count  int32
}

// DayMeterTotals sums per-nozzle min (opening) and max (closing) readings for a station-date.
type DayMeterTotals struct {
	Opening decimal.Decimal
	Closing decimal.Decimal
	Count   int32
}

// StationDay identifies one reconciliation unit, used by scheduled jobs.
type StationDay struct {
	TenantID  int64
	StationID int64
	Date      string
}
