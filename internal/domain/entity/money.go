package entity

import (
	"fmt"
	"strings"

	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/shopspring/decimal"
)

// MaxDecimalPlaces defines the maximum number of decimal places allowed for money amounts
const MaxDecimalPlaces = 2

var (
	// Epsilon is the tolerance used when comparing ledger amounts
	Epsilon = decimal.New(1, -MaxDecimalPlaces)

	// MinimumPartialShare is the smallest fraction of the total a partial payment may cover
	MinimumPartialShare = decimal.New(10, -2)
)

// ParseAmount parses a decimal string into a positive amount with at most two decimal places
func ParseAmount(amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", errs.ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", errs.ErrInvalidAmount, err.Error())
	}

	return d, ValidateAmount(d)
}

// ValidateAmount checks an already decoded amount
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errs.ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(MaxDecimalPlaces)) {
		return fmt.Errorf("%w: maximum %d decimal places allowed", errs.ErrInvalidAmount, MaxDecimalPlaces)
	}
	return nil
}

// FormatAmount renders an amount with exactly two decimal places
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(MaxDecimalPlaces)
}

// WithinEpsilon reports whether a and b differ by at most Epsilon
func WithinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Epsilon)
}

// MinimumPartialAmount returns the smallest acceptable partial payment for a total,
// rounded up to the cent
func MinimumPartialAmount(total decimal.Decimal) decimal.Decimal {
	return total.Mul(MinimumPartialShare).RoundCeil(MaxDecimalPlaces)
}
