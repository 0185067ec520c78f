package utils

import (
	"math"
	"strings"

	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a monetary amount from user input.
func ParseAmount(field, raw string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, error_handling.NewValidationError(field, "not a number")
	}
	return d.InexactFloat64(), nil
}

// ValidatePositiveAmount rejects NaN, infinities and non-positive amounts.
func ValidatePositiveAmount(field string, amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return error_handling.NewValidationError(field, "must be a finite number")
	}
	if amount <= 0 {
		return error_handling.NewValidationError(field, "must be greater than zero")
	}
	return nil
}

// ValidateNonNegativeAmount rejects NaN, infinities and negative amounts.
func ValidateNonNegativeAmount(field string, amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return error_handling.NewValidationError(field, "must be a finite number")
	}
	if amount < 0 {
		return error_handling.NewValidationError(field, "must not be negative")
	}
	return nil
}

// AddAmounts sums a and b in decimal so repeated small deposits do not drift.
func AddAmounts(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}
