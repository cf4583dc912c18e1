package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleStatusPosted SaleStatus = "posted"
	SaleStatusVoided SaleStatus = "voided"
)

// Sale is derived 1:1 from a reading. FuelPrice is frozen at creation: Amount == Volume × FuelPrice.
type Sale struct {
	ID            int64           `json:"id"`
	TenantID      int64           `json:"tenant_id"`
	StationID     int64           `json:"station_id"`
	NozzleID      int64           `json:"nozzle_id"`
	ReadingID     *int64          `json:"reading_id,omitempty"`
	SaleDate      string          `json:"sale_date"` // Format: 'YYYY-MM-DD'
	Volume        decimal.Decimal `json:"volume"`
	FuelPrice     decimal.Decimal `json:"fuel_price"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CreditorID    *int64          `json:"creditor_id,omitempty"`
	Status        SaleStatus      `json:"status"`
	RecordedAt    time.Time       `json:"recorded_at"`
	CreatedAt     time.Time       `json:"created_at"`
}
