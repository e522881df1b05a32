package repo

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Spanner NUMERIC carries 9 fractional digits.
const numericScale = 9

func numericValue(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

func decimalFromNumeric(r big.Rat) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(r.FloatString(numericScale))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid NUMERIC value %s: %w", r.String(), err)
	}
	return d, nil
}
