package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// amountScale matches the DECIMAL(_, 2) columns of the persisted layout so
// every backend stores exactly the value the memory store keeps.
const amountScale = 2

// AmountFromFloat converts a transport-level number into a ledger amount.
// NaN and ±Inf are rejected; the result is rounded half away from zero to
// two decimal places.
func AmountFromFloat(field string, f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, Invalid(field, "must be a finite number")
	}
	return decimal.NewFromFloat(f).Round(amountScale), nil
}
