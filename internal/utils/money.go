package utils

import "github.com/shopspring/decimal"

const (
	MoneyPlaces  int32 = 2
	VolumePlaces int32 = 3
)

// RoundMoney rounds half away from zero to two places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// SaleAmount prices a dispensed volume.
func SaleAmount(volume, price decimal.Decimal) decimal.Decimal {
	return RoundMoney(volume.Mul(price))
}

// Fraction returns pct percent of d, e.g. Fraction(limit, 90).
func Fraction(d decimal.Decimal, pct int64) decimal.Decimal {
	return d.Mul(decimal.NewFromInt(pct)).Div(decimal.NewFromInt(100))
}
