package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FuelPrice is the price effective from ValidFrom until the next entry for the same station and fuel.
type FuelPrice struct {
	Price     decimal.Decimal `json:"price"`
	ValidFrom time.Time       `json:"valid_from"`
}
