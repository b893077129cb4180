package models

import "github.com/shopspring/decimal"

var minorPerMajor = decimal.NewFromInt(100)

// ToMinor converts a major-unit amount to wire minor units.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Mul(minorPerMajor).Round(0).IntPart()
}

// FromMinor converts wire minor units back to a major-unit amount.
func FromMinor(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(minorPerMajor)
}
