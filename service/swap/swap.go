package swap

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"lending/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
)

// MaxFeeRate 10%
const MaxFeeRate uint64 = 1000

type Config struct {
	Owner common.Address `json:"owner"`
	// Router address holding the swap liquidity
	Router  common.Address   `json:"router"`
	FeeRate uint64           `json:"fee_rate"`
	Tokens  []common.Address `json:"tokens"`
}

// New new swap service. Liquidity sits in the router's balance; vault moves
// funds in and out of it.
func New(cfg Config, prices core.PriceFeed, tokens core.TokenService, vault core.TokenTransfer) *Service {
	if cfg.FeeRate == 0 {
		cfg.FeeRate = core.DefaultSwapFeeRate
	}

	s := &Service{
		cfg:       cfg,
		prices:    prices,
		tokens:    tokens,
		vault:     vault,
		feeRate:   cfg.FeeRate,
		supported: map[common.Address]bool{},
	}

	for _, token := range cfg.Tokens {
		s.supported[token] = true
	}

	return s
}

type Service struct {
	cfg    Config
	prices core.PriceFeed
	tokens core.TokenService
	vault  core.TokenTransfer

	mu        sync.RWMutex
	feeRate   uint64
	supported map[common.Address]bool
}

var bps = uint256.NewInt(core.BasisPoints)

func (s *Service) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	s.mu.RLock()
	ok := s.supported[tokenIn] && s.supported[tokenOut]
	feeRate := s.feeRate
	s.mu.RUnlock()

	if !ok || amountIn == nil || amountIn.IsZero() {
		return new(uint256.Int), nil
	}

	return s.quote(ctx, tokenIn, tokenOut, amountIn, feeRate)
}

func (s *Service) quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *uint256.Int, feeRate uint64) (*uint256.Int, error) {
	priceIn, err := s.prices.Price(ctx, tokenIn)
	if err != nil {
		return nil, err
	}

	priceOut, err := s.prices.Price(ctx, tokenOut)
	if err != nil {
		return nil, err
	}

	if priceIn.IsZero() || priceOut.IsZero() {
		return nil, core.ErrPriceUnavailable
	}

	gross, overflow := new(uint256.Int).MulDivOverflow(amountIn, priceIn, priceOut)
	if overflow {
		return nil, core.ErrAmountOverflow
	}

	fee := new(uint256.Int).Mul(gross, uint256.NewInt(feeRate))
	fee.Div(fee, bps)
	return gross.Sub(gross, fee), nil
}

func (s *Service) Swap(ctx context.Context, trader, tokenIn, tokenOut common.Address, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error) {
	s.mu.RLock()
	ok := s.supported[tokenIn] && s.supported[tokenOut]
	feeRate := s.feeRate
	s.mu.RUnlock()

	switch {
	case !ok:
		return nil, core.ErrUnsupportedToken
	case amountIn == nil || amountIn.IsZero():
		return nil, core.ErrAmountMustBePositive
	case tokenIn == tokenOut:
		return nil, core.ErrSameToken
	}

	out, err := s.quote(ctx, tokenIn, tokenOut, amountIn, feeRate)
	if err != nil {
		return nil, err
	}

	if minAmountOut != nil && out.Lt(minAmountOut) {
		return nil, core.ErrSlippageExceeded
	}

	liquidity, err := s.tokens.BalanceOf(ctx, tokenOut, s.cfg.Router)
	if err != nil {
		return nil, err
	}

	if liquidity.Lt(out) {
		return nil, core.ErrInsufficientLiquidity
	}

	if err := s.vault.TransferIn(ctx, tokenIn, trader, amountIn); err != nil {
		return nil, err
	}

	if err := s.vault.TransferOut(ctx, tokenOut, trader, out); err != nil {
		if rerr := s.vault.TransferOut(ctx, tokenIn, trader, amountIn); rerr != nil {
			logger.FromContext(ctx).WithError(rerr).Errorln("refund swap input")
		}

		return nil, err
	}

	logger.FromContext(ctx).
		WithField("trader", trader.Hex()).
		WithField("in", fmt.Sprintf("%s %s", amountIn.Dec(), tokenIn.Hex())).
		WithField("out", fmt.Sprintf("%s %s", out.Dec(), tokenOut.Hex())).
		Infoln("Swap")
	return out, nil
}

func (s *Service) FeeRate() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feeRate
}

func (s *Service) SetFeeRate(ctx context.Context, caller common.Address, rate uint64) error {
	if !s.isOwner(caller) {
		return core.ErrNotOwner
	}

	if rate > MaxFeeRate {
		return core.ErrFeeRateTooHigh
	}

	s.mu.Lock()
	s.feeRate = rate
	s.mu.Unlock()
	return nil
}

func (s *Service) AddSupportedToken(ctx context.Context, caller, token common.Address) error {
	if !s.isOwner(caller) {
		return core.ErrNotOwner
	}

	if token == (common.Address{}) {
		return core.ErrInvalidAddress
	}

	s.mu.Lock()
	s.supported[token] = true
	s.mu.Unlock()
	return nil
}

func (s *Service) RemoveSupportedToken(ctx context.Context, caller, token common.Address) error {
	if !s.isOwner(caller) {
		return core.ErrNotOwner
	}

	s.mu.Lock()
	delete(s.supported, token)
	s.mu.Unlock()
	return nil
}

func (s *Service) SupportedTokens() []common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := make([]common.Address, 0, len(s.supported))
	for token := range s.supported {
		tokens = append(tokens, token)
	}

	sort.Slice(tokens, func(i, j int) bool {
		return bytes.Compare(tokens[i].Bytes(), tokens[j].Bytes()) < 0
	})
	return tokens
}

func (s *Service) isOwner(caller common.Address) bool {
	return core.HasRole(caller, s.cfg.Owner)
}
