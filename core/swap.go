package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// DefaultSwapFeeRate 0.3%
const DefaultSwapFeeRate uint64 = 30

// SwapService oracle quoted exchange with a flat fee
type SwapService interface {
	// Quote output amount after fee, zero for unsupported tokens or zero input
	Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *uint256.Int) (*uint256.Int, error)
	Swap(ctx context.Context, trader, tokenIn, tokenOut common.Address, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error)
	FeeRate() uint64
	SetFeeRate(ctx context.Context, caller common.Address, rate uint64) error
	AddSupportedToken(ctx context.Context, caller, token common.Address) error
	RemoveSupportedToken(ctx context.Context, caller, token common.Address) error
	SupportedTokens() []common.Address
}
