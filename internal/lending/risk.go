package lending

import (
	"github.com/holiman/uint256"
)

var (
	// wad 1e18, the fixed point unit of amounts and prices
	wad     = uint256.NewInt(1e18)
	maxUint = new(uint256.Int).SetAllOne()

	// MaxHealthFactor reported for positions without debt, never mutate
	MaxHealthFactor = new(uint256.Int).SetAllOne()
	// OneHealthFactor 1.0 in basis points, positions below it are liquidatable
	OneHealthFactor = uint256.NewInt(BasisPoints)
)

// Value usd value of amount at an 18 decimal price
func Value(amount, price *uint256.Int) *uint256.Int {
	return mulDiv(amount, price, wad)
}

// HealthFactor collateralValue * threshold / debtValue in basis points.
// Without debt the ratio is undefined and MaxHealthFactor is returned.
func HealthFactor(collateralValue, debtValue *uint256.Int, threshold uint64) *uint256.Int {
	if debtValue.IsZero() {
		return new(uint256.Int).Set(MaxHealthFactor)
	}

	return mulDiv(collateralValue, uint256.NewInt(threshold), debtValue)
}

// Liquidatable health factor below 1.0
func Liquidatable(healthFactor *uint256.Int) bool {
	return healthFactor.Lt(OneHealthFactor)
}

// BorrowCapacity max debt value the collateral value supports
func BorrowCapacity(collateralValue *uint256.Int, factor uint64) *uint256.Int {
	return mulDiv(collateralValue, uint256.NewInt(factor), bps)
}

// RequiredCollateral the smallest collateral amount whose borrow capacity at
// price still covers debtValue
func RequiredCollateral(debtValue, price *uint256.Int, factor uint64) *uint256.Int {
	if debtValue.IsZero() {
		return new(uint256.Int)
	}

	if price.IsZero() || factor == 0 {
		return new(uint256.Int).Set(maxUint)
	}

	// capacity rounds down twice, so invert both steps rounding up
	minValue := mulDivUp(debtValue, bps, uint256.NewInt(factor))
	return mulDivUp(minValue, wad, price)
}

// MaxSafeWithdraw collateral that can leave the position without breaching the borrow capacity
func MaxSafeWithdraw(collateral, debtValue, price *uint256.Int, factor uint64) *uint256.Int {
	required := RequiredCollateral(debtValue, price, factor)
	if !collateral.Gt(required) {
		return new(uint256.Int)
	}

	return new(uint256.Int).Sub(collateral, required)
}

// Seize collateral taken for covering debt, capped at the available collateral
func Seize(debtToCover *uint256.Int, bonus uint64, collateral *uint256.Int) *uint256.Int {
	seized := mulDiv(debtToCover, uint256.NewInt(bonus), bps)
	if seized.Gt(collateral) {
		return collateral.Clone()
	}

	return seized
}

// ProtocolCut the bonus part of a seizure, zero when the cap ate the bonus
func ProtocolCut(seized, debtToCover *uint256.Int) *uint256.Int {
	if !seized.Gt(debtToCover) {
		return new(uint256.Int)
	}

	return new(uint256.Int).Sub(seized, debtToCover)
}

// Utilization borrows / deposits in basis points, zero without deposits
func Utilization(borrows, deposits *uint256.Int) *uint256.Int {
	if deposits.IsZero() {
		return new(uint256.Int)
	}

	return mulDiv(borrows, bps, deposits)
}
