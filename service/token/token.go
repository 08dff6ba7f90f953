package token

import (
	"context"

	"lending/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
)

// New new token service over store, minter may create supply
func New(minter common.Address, store core.BalanceStore) core.TokenService {
	return &tokenService{
		minter: minter,
		store:  store,
	}
}

type tokenService struct {
	minter common.Address
	store  core.BalanceStore
}

func (s *tokenService) BalanceOf(ctx context.Context, asset, owner common.Address) (*uint256.Int, error) {
	return s.store.Balance(ctx, asset, owner)
}

func (s *tokenService) Allowance(ctx context.Context, asset, owner, spender common.Address) (*uint256.Int, error) {
	return s.store.Allowance(ctx, asset, owner, spender)
}

func (s *tokenService) Approve(ctx context.Context, asset, owner, spender common.Address, amount *uint256.Int) error {
	if spender == (common.Address{}) {
		return core.ErrInvalidAddress
	}

	return s.store.SetAllowance(ctx, asset, owner, spender, amount)
}

func (s *tokenService) Transfer(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return core.ErrInvalidAddress
	}

	return s.store.Move(ctx, &core.Movement{
		Asset:  asset,
		From:   from,
		To:     to,
		Amount: amount,
	})
}

func (s *tokenService) TransferFrom(ctx context.Context, asset, spender, from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return core.ErrInvalidAddress
	}

	return s.store.Move(ctx, &core.Movement{
		Asset:   asset,
		From:    from,
		To:      to,
		Spender: &spender,
		Amount:  amount,
	})
}

func (s *tokenService) Mint(ctx context.Context, caller, asset, to common.Address, amount *uint256.Int) error {
	if !core.HasRole(caller, s.minter) {
		return core.ErrNotMinter
	}

	if to == (common.Address{}) {
		return core.ErrInvalidAddress
	}

	if err := s.store.Mint(ctx, asset, to, amount); err != nil {
		return err
	}

	logger.FromContext(ctx).
		WithField("asset", asset.Hex()).
		WithField("to", to.Hex()).
		WithField("amount", amount.Dec()).
		Infoln("Mint")
	return nil
}
