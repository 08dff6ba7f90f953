package core

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	// BasisPoints 100%
	BasisPoints uint64 = 10000

	DefaultCollateralFactor     uint64 = 7500
	DefaultLiquidationThreshold uint64 = 8000
	DefaultLiquidationBonus     uint64 = 10500
	DefaultInterestRate         uint64 = 500
)

// Market the singleton lending market
type Market struct {
	CollateralAsset common.Address `json:"collateral_asset"`
	BorrowAsset     common.Address `json:"borrow_asset"`

	TotalDeposits *uint256.Int `json:"total_deposits"`
	// TotalBorrows sum of principal and accrued interest over all accounts
	TotalBorrows  *uint256.Int `json:"total_borrows"`
	CollectedFees *uint256.Int `json:"collected_fees"`

	// risk parameters in basis points
	ProtocolFeeRate      uint64 `json:"protocol_fee_rate"`
	CollateralFactor     uint64 `json:"collateral_factor"`
	LiquidationThreshold uint64 `json:"liquidation_threshold"`
	LiquidationBonus     uint64 `json:"liquidation_bonus"`
	// InterestRate annual borrow rate
	InterestRate uint64 `json:"interest_rate"`

	Paused    bool      `json:"paused"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMarket market with default risk parameters and empty totals
func NewMarket(collateralAsset, borrowAsset common.Address) *Market {
	return &Market{
		CollateralAsset:      collateralAsset,
		BorrowAsset:          borrowAsset,
		TotalDeposits:        new(uint256.Int),
		TotalBorrows:         new(uint256.Int),
		CollectedFees:        new(uint256.Int),
		CollateralFactor:     DefaultCollateralFactor,
		LiquidationThreshold: DefaultLiquidationThreshold,
		LiquidationBonus:     DefaultLiquidationBonus,
		InterestRate:         DefaultInterestRate,
	}
}

// Validate checks the risk parameter relations
func (m *Market) Validate() error {
	switch {
	case m.ProtocolFeeRate > BasisPoints:
		return ErrInvalidParameter
	case m.CollateralFactor == 0 || m.CollateralFactor >= m.LiquidationThreshold:
		return ErrInvalidParameter
	case m.LiquidationThreshold > BasisPoints:
		return ErrInvalidParameter
	case m.LiquidationBonus < BasisPoints:
		return ErrInvalidParameter
	}

	return nil
}

// Clone deep copy
func (m *Market) Clone() *Market {
	c := *m
	c.TotalDeposits = m.TotalDeposits.Clone()
	c.TotalBorrows = m.TotalBorrows.Clone()
	c.CollectedFees = m.CollectedFees.Clone()
	return &c
}
