// Money rounding helpers shared by the allocation and report engines.
//
// Amounts are carried as float64 in the records and over the wire; decimal
// arithmetic is used transiently here so that cent rounding is exact and
// half-up, matching the recorded history of the source ledger.
package core

import "github.com/shopspring/decimal"

// Round2 rounds an amount to cents, half away from zero.
func Round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// Pct returns part/whole as a percentage with two decimal places.
// A zero whole yields 0 rather than dividing.
func Pct(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromFloat(part).
		Div(decimal.NewFromFloat(whole)).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64()
}
