package ledger

import (
	"context"

	"lending/core"
	"lending/internal/lending"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func (l *Ledger) Deposit(ctx context.Context, caller common.Address, amount *uint256.Int) ([]*core.Event, error) {
	if err := positive(amount); err != nil {
		return nil, err
	}

	return l.run(ctx, "deposit", func(t *txn) error {
		if t.market.Paused {
			return core.ErrPaused
		}

		a, err := t.account(caller)
		if err != nil {
			return err
		}

		if err := addTo(a.CollateralDeposited, amount); err != nil {
			return err
		}

		if err := addTo(t.market.TotalDeposits, amount); err != nil {
			return err
		}

		t.pull(t.market.CollateralAsset, caller, amount)
		t.emit(core.NewEvent(core.EventDeposited, caller).
			With(core.EventKeyAmount, amount))
		return nil
	})
}

func (l *Ledger) Withdraw(ctx context.Context, caller common.Address, amount *uint256.Int) ([]*core.Event, error) {
	if err := positive(amount); err != nil {
		return nil, err
	}

	return l.run(ctx, "withdraw", func(t *txn) error {
		if t.market.Paused {
			return core.ErrPaused
		}

		a, err := t.account(caller)
		if err != nil {
			return err
		}

		if amount.Gt(a.CollateralDeposited) {
			return core.ErrInsufficientCollateral
		}

		if a.HasDebt() {
			debtValue, err := t.value(t.market.BorrowAsset, a.Debt())
			if err != nil {
				return err
			}

			price, err := t.positivePrice(t.market.CollateralAsset)
			if err != nil {
				return err
			}

			limit := lending.MaxSafeWithdraw(a.CollateralDeposited, debtValue, price, t.market.CollateralFactor)
			if amount.Gt(limit) {
				return core.ErrWithdrawalUnsafe
			}
		}

		a.CollateralDeposited.Sub(a.CollateralDeposited, amount)
		t.market.TotalDeposits.Sub(t.market.TotalDeposits, amount)

		t.push(t.market.CollateralAsset, caller, amount)
		t.emit(core.NewEvent(core.EventWithdrawn, caller).
			With(core.EventKeyAmount, amount))
		return nil
	})
}

func (l *Ledger) Borrow(ctx context.Context, caller common.Address, amount *uint256.Int) ([]*core.Event, error) {
	if err := positive(amount); err != nil {
		return nil, err
	}

	return l.run(ctx, "borrow", func(t *txn) error {
		if t.market.Paused {
			return core.ErrPaused
		}

		a, err := t.account(caller)
		if err != nil {
			return err
		}

		debt := a.Debt()
		if err := addTo(debt, amount); err != nil {
			return err
		}

		debtValue, err := t.value(t.market.BorrowAsset, debt)
		if err != nil {
			return err
		}

		collateralValue, err := t.value(t.market.CollateralAsset, a.CollateralDeposited)
		if err != nil {
			return err
		}

		if debtValue.Gt(lending.BorrowCapacity(collateralValue, t.market.CollateralFactor)) {
			return core.ErrExceedsBorrowingLimit
		}

		if err := addTo(t.market.TotalBorrows, amount); err != nil {
			return err
		}
		a.AmountBorrowed.Add(a.AmountBorrowed, amount)

		t.push(t.market.BorrowAsset, caller, amount)
		t.emit(core.NewEvent(core.EventBorrowed, caller).
			With(core.EventKeyAmount, amount))
		return nil
	})
}

func (l *Ledger) Repay(ctx context.Context, caller common.Address, amount *uint256.Int) ([]*core.Event, error) {
	if err := positive(amount); err != nil {
		return nil, err
	}

	return l.run(ctx, "repay", func(t *txn) error {
		if t.market.Paused {
			return core.ErrPaused
		}

		a, err := t.account(caller)
		if err != nil {
			return err
		}

		if amount.Gt(a.Debt()) {
			return core.ErrRepayExceedsDebt
		}

		interest, principal := t.applyPayment(a, amount)

		t.pull(t.market.BorrowAsset, caller, amount)
		t.emit(core.NewEvent(core.EventRepaid, caller).
			With(core.EventKeyAmount, amount).
			With(core.EventKeyInterest, interest).
			With(core.EventKeyPrincipal, principal))
		return nil
	})
}

// Liquidate covers part of an unhealthy borrower's debt in exchange for
// collateral at a bonus. The bonus share above the covered debt goes to the
// protocol. When the borrower's collateral cannot pay the full bonus the
// covered debt is still relieved in full and the liquidator takes what is left.
func (l *Ledger) Liquidate(ctx context.Context, caller, borrower common.Address, debtToCover *uint256.Int) ([]*core.Event, error) {
	if caller == borrower {
		return nil, core.ErrCannotLiquidateSelf
	}

	return l.run(ctx, "liquidate", func(t *txn) error {
		if t.market.Paused {
			return core.ErrPaused
		}

		if err := positive(debtToCover); err != nil {
			return err
		}

		a, err := t.account(borrower)
		if err != nil {
			return err
		}

		if _, err := t.existingAccount(caller); err != nil {
			return err
		}

		if !a.HasDebt() {
			return core.ErrBorrowerHasNoDebt
		}

		before, err := t.position(t.market, a)
		if err != nil {
			return err
		}

		hfBefore := before.healthFactor(t.market)
		if !lending.Liquidatable(hfBefore) {
			return core.ErrPositionHealthy
		}

		cover := minOf(debtToCover, a.Debt())
		t.applyPayment(a, cover)

		seized := lending.Seize(cover, t.market.LiquidationBonus, a.CollateralDeposited)
		cut := lending.ProtocolCut(seized, cover)
		reward := new(uint256.Int).Sub(seized, cut)

		a.CollateralDeposited.Sub(a.CollateralDeposited, seized)
		t.market.TotalDeposits.Sub(t.market.TotalDeposits, seized)
		if err := addTo(t.market.CollectedFees, cut); err != nil {
			return err
		}

		if a.HasDebt() {
			after, err := t.position(t.market, a)
			if err != nil {
				return err
			}

			if !after.healthFactor(t.market).Gt(hfBefore) {
				return core.ErrLiquidationIneffective
			}
		}

		t.pull(t.market.BorrowAsset, caller, cover)
		t.push(t.market.CollateralAsset, caller, reward)
		t.emit(core.NewEvent(core.EventLiquidated, borrower).
			With(core.EventKeyBorrower, borrower).
			With(core.EventKeyLiquidator, caller).
			With(core.EventKeyDebtCovered, cover).
			With(core.EventKeyCollateralSeized, seized).
			With(core.EventKeyProtocolFee, cut))
		return nil
	})
}

// CollectFees pays the collected protocol fees to the fee collector
func (l *Ledger) CollectFees(ctx context.Context, caller common.Address) ([]*core.Event, error) {
	if !core.HasRole(caller, l.cfg.Roles.FeeCollector) {
		return nil, core.ErrNotFeeCollector
	}

	return l.run(ctx, "collect_fees", func(t *txn) error {
		fees := t.market.CollectedFees.Clone()
		t.market.CollectedFees.Clear()

		t.push(t.market.BorrowAsset, caller, fees)
		t.emit(core.NewEvent(core.EventFeesCollected, caller).
			With(core.EventKeyAmount, fees))
		return nil
	})
}

// SetPaused the pause admin may flip the switch at once, everyone else has to
// go through the timelock
func (l *Ledger) SetPaused(ctx context.Context, caller common.Address, paused bool) ([]*core.Event, error) {
	if !core.HasRole(caller, l.cfg.Roles.PauseAdmin) && !core.HasRole(caller, l.cfg.Governor) {
		return nil, core.ErrNotPauseAdmin
	}

	return l.run(ctx, "set_paused", func(t *txn) error {
		t.setPaused(caller, paused)
		return nil
	})
}

func (t *txn) setPaused(caller common.Address, paused bool) {
	t.market.Paused = paused

	name := core.EventUnpaused
	if paused {
		name = core.EventPaused
	}

	t.emit(core.NewEvent(name, caller))
}
