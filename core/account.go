package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Account a user's position in the market
type Account struct {
	Address             common.Address `json:"address"`
	CollateralDeposited *uint256.Int   `json:"collateral_deposited"`
	AmountBorrowed      *uint256.Int   `json:"amount_borrowed"`
	InterestAccrued     *uint256.Int   `json:"interest_accrued"`
	// LastUpdateTime unix seconds of the latest accrual
	LastUpdateTime int64 `json:"last_update_time"`
	// Version 0 means the account has never been persisted
	Version int64 `json:"version"`
}

// NewAccount zero balance account
func NewAccount(address common.Address, now int64) *Account {
	return &Account{
		Address:             address,
		CollateralDeposited: new(uint256.Int),
		AmountBorrowed:      new(uint256.Int),
		InterestAccrued:     new(uint256.Int),
		LastUpdateTime:      now,
	}
}

// Debt principal plus accrued interest
func (a *Account) Debt() *uint256.Int {
	return new(uint256.Int).Add(a.AmountBorrowed, a.InterestAccrued)
}

// HasDebt reports whether any principal or interest is outstanding
func (a *Account) HasDebt() bool {
	return !a.AmountBorrowed.IsZero() || !a.InterestAccrued.IsZero()
}

// Clone deep copy
func (a *Account) Clone() *Account {
	c := *a
	c.CollateralDeposited = a.CollateralDeposited.Clone()
	c.AmountBorrowed = a.AmountBorrowed.Clone()
	c.InterestAccrued = a.InterestAccrued.Clone()
	return &c
}
