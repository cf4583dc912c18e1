package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodUPI    PaymentMethod = "upi"
	PaymentMethodCredit PaymentMethod = "credit"
)

func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodCredit:
		return true
	}
	return false
}

type ReadingStatus string

const (
	ReadingStatusActive ReadingStatus = "active"
	ReadingStatusVoided ReadingStatus = "voided"
)

// ReadingEpsilon is the tolerance under which two meter values are considered equal.
var ReadingEpsilon = decimal.New(1, -3)

// NozzleReading is a cumulative meter value. Rows are append-only; corrections void them.
type NozzleReading struct {
	ID            int64           `json:"id"`
	TenantID      int64           `json:"tenant_id"`
	NozzleID      int64           `json:"nozzle_id"`
	StationID     int64           `json:"station_id"`
	Reading       decimal.Decimal `json:"reading"`
	RecordedAt    time.Time       `json:"recorded_at"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Status        ReadingStatus   `json:"status"`
	EnteredBy     int64           `json:"entered_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ReadingOutcome is what a successful submission produced.
type ReadingOutcome struct {
	Reading    *NozzleReading `json:"reading"`
	Sale       *Sale          `json:"sale"`
	MeterReset bool           `json:"meter_reset"`
	Events     []Event        `json:"-"`
}

type VoidResult struct {
	ID     int64         `json:"id"`
	Status ReadingStatus `json:"status"`
	Events []Event       `json:"-"`
}
