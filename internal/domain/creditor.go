package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Creditor has no stored balance; it is always derived from credit sales minus payments.
type Creditor struct {
	ID          int64           `json:"id"`
	TenantID    int64           `json:"tenant_id"`
	StationID   *int64          `json:"station_id,omitempty"`
	Name        string          `json:"name"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// ServesStation reports whether the creditor may buy at the given station.
func (c *Creditor) ServesStation(stationID int64) bool {
	return c.StationID == nil || *c.StationID == stationID
}

type CreditPayment struct {
	ID            int64           `json:"id"`
	TenantID      int64           `json:"tenant_id"`
	CreditorID    int64           `json:"creditor_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	PaidAt        time.Time       `json:"paid_at"`
	RecordedBy    int64           `json:"recorded_by"`
}

type CreditorBalance struct {
	CreditorID  int64           `json:"creditor_id"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Balance     decimal.Decimal `json:"balance"`
	Available   decimal.Decimal `json:"available"`
}
