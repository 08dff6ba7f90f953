package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type (
	// TokenTransfer moves assets in and out of a holder, such as the ledger
	TokenTransfer interface {
		// TransferIn pulls amount from `from` into the holder, spending the
		// allowance `from` granted the holder
		TransferIn(ctx context.Context, asset, from common.Address, amount *uint256.Int) error
		// TransferOut pushes amount from the holder to `to`
		TransferOut(ctx context.Context, asset, to common.Address, amount *uint256.Int) error
	}

	// TokenReclaimer is implemented by transfer collaborators able to take back
	// a completed TransferOut when the operation that issued it is rolled back
	TokenReclaimer interface {
		Reclaim(ctx context.Context, asset, from common.Address, amount *uint256.Int) error
	}

	// Movement a balance move between two owners
	Movement struct {
		Asset common.Address
		From  common.Address
		To    common.Address
		// Spender when set, the allowance From granted Spender is consumed
		Spender *common.Address
		Amount  *uint256.Int
	}

	// BalanceStore persists token balances and allowances
	BalanceStore interface {
		Balance(ctx context.Context, asset, owner common.Address) (*uint256.Int, error)
		Allowance(ctx context.Context, asset, owner, spender common.Address) (*uint256.Int, error)
		SetAllowance(ctx context.Context, asset, owner, spender common.Address, amount *uint256.Int) error
		// Move applies the movement atomically, failing with ErrInsufficientFunds
		// or ErrInsufficientAllowance without any partial effect
		Move(ctx context.Context, m *Movement) error
		Mint(ctx context.Context, asset, to common.Address, amount *uint256.Int) error
	}

	// TokenService a standard fungible token ledger for many assets
	TokenService interface {
		BalanceOf(ctx context.Context, asset, owner common.Address) (*uint256.Int, error)
		Allowance(ctx context.Context, asset, owner, spender common.Address) (*uint256.Int, error)
		Approve(ctx context.Context, asset, owner, spender common.Address, amount *uint256.Int) error
		Transfer(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error
		TransferFrom(ctx context.Context, asset, spender, from, to common.Address, amount *uint256.Int) error
		Mint(ctx context.Context, caller, asset, to common.Address, amount *uint256.Int) error
	}
)
