// Package units converts ingredient quantities between the main purchasing
// unit (kg, L) and the subunit used for stock accounting (g, ml).
package units

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidConversionFactor is returned whenever a conversion factor is not
// strictly positive.
var ErrInvalidConversionFactor = errors.New("conversion factor must be greater than zero")

// ValidateFactor checks the subunits-per-main-unit factor of an ingredient.
func ValidateFactor(factor decimal.Decimal) error {
	if !factor.IsPositive() {
		return ErrInvalidConversionFactor
	}
	return nil
}

// ToSubunit returns mainQty expressed in subunits.
func ToSubunit(mainQty, factor decimal.Decimal) decimal.Decimal {
	return mainQty.Mul(factor)
}

// ToMain returns subunitQty expressed in main units.
func ToMain(subunitQty, factor decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateFactor(factor); err != nil {
		return decimal.Zero, err
	}
	return subunitQty.Div(factor), nil
}
