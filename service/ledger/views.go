package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lending/core"
	"lending/internal/lending"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// snapshot read only projection of an account, interest accrued up to now
// on a copy. Nothing is written back.
type snapshot struct {
	*valuer
	market  *core.Market
	account *core.Account
}

// snapshotAttempts bounds re-reads while commits keep landing between the
// market and account reads
const snapshotAttempts = 8

func (l *Ledger) snapshot(ctx context.Context, user common.Address) (*snapshot, error) {
	market, account, err := l.readPosition(ctx, user)
	if err != nil {
		return nil, err
	}

	now := l.clock().Unix()
	if account == nil {
		account = core.NewAccount(user, now)
	}

	if now > account.LastUpdateTime {
		delta := lending.AccrueInterest(account.AmountBorrowed, market.InterestRate, now-account.LastUpdateTime)
		account.InterestAccrued.Add(account.InterestAccrued, delta)
		account.LastUpdateTime = now
	}

	return &snapshot{
		valuer:  newValuer(ctx, l.prices),
		market:  market,
		account: account,
	}, nil
}

// readPosition reads the market and the account as of one commit. Every
// commit bumps the market version, so an unchanged version around the
// account read means no commit landed in between. account is nil when the
// address has never been committed.
func (l *Ledger) readPosition(ctx context.Context, user common.Address) (*core.Market, *core.Account, error) {
	for i := 0; i < snapshotAttempts; i++ {
		market, err := l.store.FindMarket(ctx)
		if err != nil {
			return nil, nil, err
		}

		account, err := l.store.FindAccount(ctx, user)
		switch {
		case err == nil:
			account = account.Clone()
		case errors.Is(err, core.ErrAccountNotFound):
			account = nil
		default:
			return nil, nil, err
		}

		check, err := l.store.FindMarket(ctx)
		if err != nil {
			return nil, nil, err
		}

		if check.Version == market.Version {
			return market, account, nil
		}
	}

	return nil, nil, fmt.Errorf("snapshot %s: %w", user.Hex(), core.ErrOptimisticLock)
}

func (l *Ledger) clock() time.Time {
	l.nowMu.RLock()
	defer l.nowMu.RUnlock()
	return l.now()
}

func (l *Ledger) GetAccount(ctx context.Context, user common.Address) (*core.AccountDetails, error) {
	s, err := l.snapshot(ctx, user)
	if err != nil {
		return nil, err
	}

	p, err := s.position(s.market, s.account)
	if err != nil {
		return nil, err
	}

	return &core.AccountDetails{
		Account:         *s.account,
		CollateralValue: p.collateralValue,
		DebtValue:       p.debtValue,
		HealthFactor:    p.healthFactor(s.market),
		BorrowingPower:  lending.HealthFactor(p.collateralValue, p.debtValue, s.market.CollateralFactor),
	}, nil
}

func (l *Ledger) GetMarket(ctx context.Context) (*core.MarketDetails, error) {
	market, err := l.store.FindMarket(ctx)
	if err != nil {
		return nil, err
	}

	v := newValuer(ctx, l.prices)
	collateralPrice, err := v.price(market.CollateralAsset)
	if err != nil {
		return nil, err
	}

	borrowPrice, err := v.price(market.BorrowAsset)
	if err != nil {
		return nil, err
	}

	return &core.MarketDetails{
		Market:          *market,
		Utilization:     lending.Utilization(market.TotalBorrows, market.TotalDeposits),
		CollateralPrice: collateralPrice.Clone(),
		BorrowPrice:     borrowPrice.Clone(),
	}, nil
}

func (l *Ledger) GetLiquidationRisk(ctx context.Context, user common.Address) (*core.LiquidationRisk, error) {
	s, err := l.snapshot(ctx, user)
	if err != nil {
		return nil, err
	}

	p, err := s.position(s.market, s.account)
	if err != nil {
		return nil, err
	}

	risk := &core.LiquidationRisk{
		HealthFactor:            p.healthFactor(s.market),
		MinCollateralToMaintain: new(uint256.Int),
		MaxSafeWithdraw:         s.account.CollateralDeposited.Clone(),
	}
	risk.Liquidatable = lending.Liquidatable(risk.HealthFactor)

	if s.account.HasDebt() {
		price, err := s.positivePrice(s.market.CollateralAsset)
		if err != nil {
			return nil, err
		}

		risk.MinCollateralToMaintain = lending.RequiredCollateral(p.debtValue, price, s.market.CollateralFactor)
		risk.MaxSafeWithdraw = lending.MaxSafeWithdraw(s.account.CollateralDeposited, p.debtValue, price, s.market.CollateralFactor)
	}

	return risk, nil
}

func (l *Ledger) GetInterestRateInfo(ctx context.Context, user common.Address) (*core.InterestRateInfo, error) {
	s, err := l.snapshot(ctx, user)
	if err != nil {
		return nil, err
	}

	return &core.InterestRateInfo{
		AnnualRate:    s.market.InterestRate,
		Principal:     s.account.AmountBorrowed.Clone(),
		DailyInterest: lending.DailyInterest(s.account.AmountBorrowed, s.market.InterestRate),
	}, nil
}

func (l *Ledger) GetPositionHealth(ctx context.Context, user common.Address) (*core.PositionHealth, error) {
	s, err := l.snapshot(ctx, user)
	if err != nil {
		return nil, err
	}

	p, err := s.position(s.market, s.account)
	if err != nil {
		return nil, err
	}

	hf := p.healthFactor(s.market)
	return &core.PositionHealth{
		Healthy:      !lending.Liquidatable(hf),
		HealthFactor: hf,
	}, nil
}

// Events committed effect log starting at fromSeq
func (l *Ledger) Events(ctx context.Context, fromSeq int64, limit int) ([]*core.Event, error) {
	return l.store.ListEvents(ctx, fromSeq, limit)
}
