// Package money converts between the decimal-string amounts used on the
// wire and the integer minor units stored in the ledger. Balances are
// never represented as floats anywhere in the service.
package money

import (
	"github.com/portalops/ledger-backend/internal/apperrors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount parses a signed decimal string ("25.00", "-3.5") into minor
// units. More than two fractional digits, non-numeric input, or values
// outside the int64 range are validation errors.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, apperrors.Validationf("amount", "not a decimal number")
	}
	cents := d.Mul(hundred)
	if !cents.IsInteger() {
		return 0, apperrors.Validationf("amount", "more than two decimal places")
	}
	bi := cents.BigInt()
	if !bi.IsInt64() {
		return 0, apperrors.Validationf("amount", "out of range")
	}
	return bi.Int64(), nil
}

// Format renders minor units back into a two-decimal string.
func Format(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
