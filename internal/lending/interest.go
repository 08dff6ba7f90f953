package lending

import (
	"github.com/holiman/uint256"
)

const (
	// SecondsPerYear 365 days
	SecondsPerYear int64 = 365 * 24 * 60 * 60
	// SecondsPerDay one day
	SecondsPerDay int64 = 24 * 60 * 60
	// BasisPoints 100%
	BasisPoints uint64 = 10000
)

var (
	bps = uint256.NewInt(BasisPoints)
	// yearBps SECONDS_PER_YEAR * 10000
	yearBps = uint256.NewInt(uint64(SecondsPerYear) * BasisPoints)
)

// AccrueInterest interest owed on principal over elapsed seconds
// delta = principal * rate * elapsed / (SECONDS_PER_YEAR * 10000), rounded down
func AccrueInterest(principal *uint256.Int, rate uint64, elapsed int64) *uint256.Int {
	if elapsed <= 0 || rate == 0 || principal.IsZero() {
		return new(uint256.Int)
	}

	// rate and elapsed are 64 bit, their product fits easily
	factor := new(uint256.Int).Mul(uint256.NewInt(rate), uint256.NewInt(uint64(elapsed)))
	return mulDiv(principal, factor, yearBps)
}

// DailyInterest projected interest on principal over one day
func DailyInterest(principal *uint256.Int, rate uint64) *uint256.Int {
	return AccrueInterest(principal, rate, SecondsPerDay)
}

// mulDiv x * y / d with a 512 bit intermediate, saturating at the max value
func mulDiv(x, y, d *uint256.Int) *uint256.Int {
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return new(uint256.Int).Set(maxUint)
	}

	return z
}

// mulDivUp x * y / d rounded up
func mulDivUp(x, y, d *uint256.Int) *uint256.Int {
	z := mulDiv(x, y, d)
	if !new(uint256.Int).MulMod(x, y, d).IsZero() {
		if z.Eq(maxUint) {
			return z
		}
		z.AddUint64(z, 1)
	}

	return z
}
