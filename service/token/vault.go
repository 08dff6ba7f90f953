package token

import (
	"context"

	"lending/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Vault token custody of a single holder, the ledger or the swap router
type Vault struct {
	holder common.Address
	store  core.BalanceStore
}

func NewVault(holder common.Address, store core.BalanceStore) *Vault {
	return &Vault{holder: holder, store: store}
}

func (v *Vault) Holder() common.Address {
	return v.holder
}

// TransferIn spends the allowance from granted the holder
func (v *Vault) TransferIn(ctx context.Context, asset, from common.Address, amount *uint256.Int) error {
	return v.store.Move(ctx, &core.Movement{
		Asset:   asset,
		From:    from,
		To:      v.holder,
		Spender: &v.holder,
		Amount:  amount,
	})
}

func (v *Vault) TransferOut(ctx context.Context, asset, to common.Address, amount *uint256.Int) error {
	return v.store.Move(ctx, &core.Movement{
		Asset:  asset,
		From:   v.holder,
		To:     to,
		Amount: amount,
	})
}

// Reclaim takes back a transfer out without consuming any allowance
func (v *Vault) Reclaim(ctx context.Context, asset, from common.Address, amount *uint256.Int) error {
	return v.store.Move(ctx, &core.Movement{
		Asset:  asset,
		From:   from,
		To:     v.holder,
		Amount: amount,
	})
}
