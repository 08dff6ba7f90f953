package number

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Decimals fixed point precision of amounts and prices
const Decimals int32 = 18

var (
	// ErrNegative negative amount
	ErrNegative = errors.New("number: negative amount")
	// ErrPrecision more fractional digits than Decimals
	ErrPrecision = errors.New("number: too many decimal places")
	// ErrOverflow value does not fit in 256 bits
	ErrOverflow = errors.New("number: overflows 256 bits")
)

func Decimal(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

// ToDecimal raw integer value as decimal
func ToDecimal(v *uint256.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(v.ToBig(), 0)
}

// FromDecimal raw integer decimal back to uint256
func FromDecimal(d decimal.Decimal) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, ErrNegative
	}

	if !d.Equal(d.Truncate(0)) {
		return nil, ErrPrecision
	}

	v, overflow := uint256.FromBig(d.BigInt())
	if overflow {
		return nil, ErrOverflow
	}

	return v, nil
}

// FormatUnits fixed point value as a decimal string, 1500000000000000000 -> "1.5"
func FormatUnits(v *uint256.Int) string {
	return Units(v).String()
}

// Units fixed point value as decimal units
func Units(v *uint256.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(v.ToBig(), -Decimals)
}

// ParseUnits decimal string to fixed point, "1.5" -> 1500000000000000000
func ParseUnits(s string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("number: parse %q: %w", s, err)
	}

	return FromDecimal(d.Shift(Decimals))
}

// MustParseUnits ParseUnits that panics, for constants and tests
func MustParseUnits(s string) *uint256.Int {
	v, err := ParseUnits(s)
	if err != nil {
		panic(err)
	}

	return v
}
