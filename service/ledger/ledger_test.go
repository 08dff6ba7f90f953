package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"lending/core"
	"lending/pkg/calldata"
	"lending/pkg/number"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	collateralAsset = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	borrowAsset     = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	ledgerAddress   = common.HexToAddress("0x00000000000000000000000000000000000000aa")

	governor     = common.HexToAddress("0x0000000000000000000000000000000000000901")
	pauseAdmin   = common.HexToAddress("0x0000000000000000000000000000000000000902")
	feeCollector = common.HexToAddress("0x0000000000000000000000000000000000000903")

	alice = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol = common.HexToAddress("0x0000000000000000000000000000000000000ca1")
)

func units(s string) *uint256.Int {
	return number.MustParseUnits(s)
}

type fixture struct {
	ledger *Ledger
	store  *memStore
	prices *memPrices
	tokens *memTokens
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		store:  newMemStore(),
		prices: &memPrices{prices: map[common.Address]*uint256.Int{}},
		tokens: &memTokens{
			holder:   ledgerAddress,
			balances: map[common.Address]map[common.Address]*uint256.Int{},
		},
		now: time.Unix(1700000000, 0),
	}

	f.ledger = New(Config{
		Governor: governor,
		Roles: core.Roles{
			PauseAdmin:   pauseAdmin,
			FeeCollector: feeCollector,
		},
	}, f.store, f.prices, f.tokens)
	f.ledger.SetNowFunc(func() time.Time { return f.now })

	f.prices.set(collateralAsset, units("1"))
	f.prices.set(borrowAsset, units("1"))

	f.tokens.mint(borrowAsset, ledgerAddress, units("1000000"))
	for _, user := range []common.Address{alice, bob, carol} {
		f.tokens.mint(collateralAsset, user, units("1000"))
		f.tokens.mint(borrowAsset, user, units("1000"))
	}

	require.Nil(t, f.ledger.Init(context.Background(), core.NewMarket(collateralAsset, borrowAsset)))
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) market(t *testing.T) *core.Market {
	m, err := f.store.FindMarket(context.Background())
	require.Nil(t, err)
	return m
}

func (f *fixture) account(t *testing.T, user common.Address) *core.Account {
	a, err := f.store.FindAccount(context.Background(), user)
	require.Nil(t, err)
	return a
}

// assertConserved checks the market totals against the sum over accounts
func (f *fixture) assertConserved(t *testing.T) {
	ctx := context.Background()
	m := f.market(t)

	accounts, err := f.store.ListAccounts(ctx, common.Address{}, 1000)
	require.Nil(t, err)

	deposits, borrows := new(uint256.Int), new(uint256.Int)
	for _, a := range accounts {
		deposits.Add(deposits, a.CollateralDeposited)
		borrows.Add(borrows, a.Debt())
	}

	assert.Equal(t, deposits.Dec(), m.TotalDeposits.Dec(), "total deposits")
	assert.Equal(t, borrows.Dec(), m.TotalBorrows.Dec(), "total borrows")
}

func TestHealthFactorScenarios(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Deposit(ctx, alice, units("100"))
	require.Nil(t, err)
	_, err = f.ledger.Borrow(ctx, alice, units("50"))
	require.Nil(t, err)

	details, err := f.ledger.GetAccount(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, "16000", details.HealthFactor.Dec())
	assert.Equal(t, "15000", details.BorrowingPower.Dec())
	assert.Equal(t, units("100").Dec(), details.CollateralValue.Dec())
	assert.Equal(t, units("50").Dec(), details.DebtValue.Dec())

	risk, err := f.ledger.GetLiquidationRisk(ctx, alice)
	require.Nil(t, err)
	assert.False(t, risk.Liquidatable)

	f.prices.set(collateralAsset, units("0.5"))

	risk, err = f.ledger.GetLiquidationRisk(ctx, alice)
	require.Nil(t, err)
	assert.True(t, risk.Liquidatable)
	assert.Equal(t, "8000", risk.HealthFactor.Dec())
	assert.Equal(t, "0", risk.MaxSafeWithdraw.Dec())

	health, err := f.ledger.GetPositionHealth(ctx, alice)
	require.Nil(t, err)
	assert.False(t, health.Healthy)
}

func TestLiquidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Deposit(ctx, alice, units("100"))
	require.Nil(t, err)
	_, err = f.ledger.Borrow(ctx, alice, units("50"))
	require.Nil(t, err)

	f.prices.set(collateralAsset, units("0.5"))

	events, err := f.ledger.Liquidate(ctx, bob, alice, units("50"))
	require.Nil(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, core.EventLiquidated, e.Name)
	assert.Equal(t, units("50").Dec(), e.Attrs[core.EventKeyDebtCovered])
	assert.Equal(t, units("52.5").Dec(), e.Attrs[core.EventKeyCollateralSeized])
	assert.Equal(t, units("2.5").Dec(), e.Attrs[core.EventKeyProtocolFee])

	a := f.account(t, alice)
	assert.False(t, a.HasDebt())
	assert.Equal(t, units("47.5").Dec(), a.CollateralDeposited.Dec())

	m := f.market(t)
	assert.Equal(t, units("2.5").Dec(), m.CollectedFees.Dec())

	assert.Equal(t, units("1050").Dec(), f.tokens.balance(collateralAsset, bob).Dec())
	assert.Equal(t, units("950").Dec(), f.tokens.balance(borrowAsset, bob).Dec())

	f.assertConserved(t)
}

func TestLiquidatePartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Deposit(ctx, alice, units("100"))
	require.Nil(t, err)
	_, err = f.ledger.Borrow(ctx, alice, units("75"))
	require.Nil(t, err)

	f.prices.set(collateralAsset, units("0.8"))

	_, err = f.ledger.Liquidate(ctx, bob, alice, units("50"))
	require.Nil(t, err)

	a := f.account(t, alice)
	assert.Equal(t, units("25").Dec(), a.Debt().Dec())
	assert.Equal(t, units("47.5").Dec(), a.CollateralDeposited.Dec())
	assert.Equal(t, units("2.5").Dec(), f.market(t).CollectedFees.Dec())

	f.assertConserved(t)
}

func TestLiquidateSeizureCap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.prices.set(collateralAsset, units("10"))

	_, err := f.ledger.Deposit(ctx, alice, units("10"))
	require.Nil(t, err)
	_, err = f.ledger.Borrow(ctx, alice, units("75"))
	require.Nil(t, err)

	f.prices.set(collateralAsset, units("9"))

	health, err := f.ledger.GetPositionHealth(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, "9600", health.HealthFactor.Dec())

	// a small liquidation would leave the position worse off
	_, err = f.ledger.Liquidate(ctx, bob, alice, units("5"))
	assert.True(t, errors.Is(err, core.ErrLiquidationIneffective))
	assert.Equal(t, units("75").Dec(), f.account(t, alice).Debt().Dec())
	assert.Equal(t, "0", f.market(t).CollectedFees.Dec())

	events, err := f.ledger.Liquidate(ctx, bob, alice, units("75"))
	require.Nil(t, err)
	assert.Equal(t, units("10").Dec(), events[0].Attrs[core.EventKeyCollateralSeized])
	assert.Equal(t, "0", events[0].Attrs[core.EventKeyProtocolFee])

	a := f.account(t, alice)
	assert.False(t, a.HasDebt())
	assert.True(t, a.CollateralDeposited.IsZero())
	assert.Equal(t, units("1010").Dec(), f.tokens.balance(collateralAsset, bob).Dec())

	f.assertConserved(t)
}

func TestLiquidateClampsCover(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Deposit(ctx, alice, units("100"))
	require.Nil(t, err)
	_, err = f.ledger.Borrow(ctx, alice, units("50"))
	require.Nil(t, err)

	f.prices.set(collateralAsset, units("0.5"))

	events, err := f.ledger.Liquidate(ctx, bob, alice, units("80"))
	require.Nil(t, err)
	assert.Equal(t, units("50").Dec(), events[0].Attrs[core.EventKeyDebtCovered])
	assert.Equal(t, units("950").Dec(), f.tokens.balance(borrowAsset, bob).Dec())
}

func TestLiquidateGates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Deposit(ctx, alice, units("100"))
	require.Nil(t, err)

	_, err = f.ledger.Liquidate(ctx, bob, alice, units("10"))
	assert.True(t, errors.Is(err, core.ErrBorrowerHasNoDebt))

	_, err = f.ledger.Borrow(ctx, alice, units("50"))
	require.Nil(t, err)

	_, err = f.ledger.Liquidate(ctx, bob, alice, units("10"))
	assert.True(t, errors.Is(err, core.ErrPositionHealthy))
	assert.Equal(t, core.KindNotLiquidatable, core.KindOf(err))

	_, err = f.ledger.Liquidate(ctx, alice, alice, units("10"))
	assert.True(t, errors.Is(err, core.ErrCannotLiquidateSelf))

	_, err = f.ledger.Liquidate(ctx, bob, alice, new(uint256.Int))
	assert.True(t, errors.Is(err, core.ErrAmountMustBePositive))

	_, err = f.ledger.Liquidate(ctx, bob, carol, units("10"))
	assert.True(t, errors.Is(err, core.ErrBorrowerHasNoDebt))
}

func TestBorrowLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Borrow(ctx, alice, units("1"))
	assert.True(t, errors.Is(err, core.ErrExceedsBorrowingLimit))

	_, err = f.ledger.Deposit(ctx, alice, units("100"))
	require.Nil(t, err)

	_, err = f.ledger.Borrow(ctx, alice, units("75"))
	require.Nil(t, err)

	_, err = f.ledger.Borrow(ctx, alice, uint256.NewInt(1))
	assert.True(t, errors.Is(err, core.ErrExceedsBorrowingLimit))
	assert.Equal(t, core.KindLimitExceeded, core.KindOf(err))

	assert.Equal(t, units("1075").Dec(), f.tokens.balance(borrowAsset, alice).Dec())
	f.assertConserved(t)
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Deposit(ctx, alice, units("100"))
	require.Nil(t, err)

	_, err = f.ledger.Withdraw(ctx, alice, units("101"))
	assert.True(t, errors.Is(err, core.ErrInsufficientCollateral))

	_, err = f.ledger.Borrow(ctx, alice, units("50"))
	require.Nil(t, err)

	risk, err := f.ledger.GetLiquidationRisk(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, "33333333333333333333", risk.MaxSafeWithdraw.Dec())
	assert.Equal(t, "66666666666666666667", risk.MinCollateralToMaintain.Dec())

	_, err = f.ledger.Withdraw(ctx, alice, units("34"))
	assert.True(t, errors.Is(err, core.ErrWithdrawalUnsafe))

	events, err := f.ledger.Withdraw(ctx, alice, risk.MaxSafeWithdraw)
	require.Nil(t, err)
	assert.Equal(t, core.EventWithdrawn, events[0].Name)

	_, err = f.ledger.Withdraw(ctx, alice, uint256.NewInt(1))
	assert.True(t, errors.Is(err, core.ErrWithdrawalUnsafe))

	_, err = f.ledger.Repay(ctx, alice, units("50"))
	require.Nil(t, err)

	_, err = f.ledger.Withdraw(ctx, alice, f.account(t, alice).CollateralDeposited)
	require.Nil(t, err)
	assert.Equal(t, units("1000").Dec(), f.tokens.balance(collateralAsset, alice).Dec())

	f.assertConserved(t)
}

func TestRepayInterestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Deposit(ctx, alice, units("100"))
	require.Nil(t, err)
	_, err = f.ledger.Borrow(ctx, alice, units("50"))
	require.Nil(t, err)

	f.advance(365 * 24 * time.Hour)

	info, err := f.ledger.GetInterestRateInfo(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, uint64(500), info.AnnualRate)

	events, err := f.ledger.Repay(ctx, alice, units("10"))
	require.Nil(t, err)
	assert.Equal(t, units("2.5").Dec(), events[0].Attrs[core.EventKeyInterest])
	assert.Equal(t, units("7.5").Dec(), events[0].Attrs[core.EventKeyPrincipal])

	a := f.account(t, alice)
	assert.True(t, a.InterestAccrued.IsZero())
	assert.Equal(t, units("42.5").Dec(), a.AmountBorrowed.Dec())

	f.assertConserved(t)
}

func TestRepayExceedsDebt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Repay(ctx, alice, units("1"))
	assert.True(t, errors.Is(err, core.ErrRepayExceedsDebt))

	// only interest left on the books
	a := core.NewAccount(alice, f.now.Unix())
	a.CollateralDeposited = units("10")
	a.InterestAccrued = units("1")
	f.store.seed(a)
	f.store.market.TotalDeposits = units("10")
	f.store.market.TotalBorrows = units("1")

	_, err = f.ledger.Repay(ctx, alice, units("2"))
	assert.True(t, errors.Is(err, core.ErrRepayExceedsDebt))
	assert.Equal(t, core.KindInsufficientBalance, core.KindOf(err))

	_, err = f.ledger.Repay(ctx, alice, units("1"))
	require.Nil(t, err)
	assert.False(t, f.account(t, alice).HasDebt())
	f.assertConserved(t)
}

func TestZeroAmounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	zero := new(uint256.Int)
	for name, op := range map[string]func() ([]*core.Event, error){
		"deposit":  func() ([]*core.Event, error) { return f.ledger.Deposit(ctx, alice, zero) },
		"withdraw": func() ([]*core.Event, error) { return f.ledger.Withdraw(ctx, alice, zero) },
		"borrow":   func() ([]*core.Event, error) { return f.ledger.Borrow(ctx, alice, zero) },
		"repay":    func() ([]*core.Event, error) { return f.ledger.Repay(ctx, alice, zero) },
	} {
		t.Run(name, func(t *testing.T) {
			_, err := op()
			assert.True(t, errors.Is(err, core.ErrAmountMustBePositive))
			assert.Equal(t, core.KindInvalidAmount, core.KindOf(err))
		})
	}
}

func TestPause(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.SetPaused(ctx, alice, true)
	assert.True(t, errors.Is(err, core.ErrNotPauseAdmin))

	events, err := f.ledger.SetPaused(ctx, pauseAdmin, true)
	require.Nil(t, err)
	assert.Equal(t, core.EventPaused, events[0].Name)

	_, err = f.ledger.Deposit(ctx, alice, units("1"))
	assert.True(t, errors.Is(err, core.ErrPaused))
	_, err = f.ledger.Liquidate(ctx, bob, alice, units("1"))
	assert.True(t, errors.Is(err, core.ErrPaused))
	_, err = f.ledger.Liquidate(ctx, alice, alice, units("1"))
	assert.True(t, errors.Is(err, core.ErrCannotLiquidateSelf))
	assert.Equal(t, core.KindSelfLiquidation, core.KindOf(err))

	_, err = f.ledger.CollectFees(ctx, feeCollector)
	assert.Nil(t, err)

	events, err = f.ledger.SetPaused(ctx, pauseAdmin, false)
	require.Nil(t, err)
	assert.Equal(t, core.EventUnpaused, events[0].Name)

	_, err = f.ledger.Deposit(ctx, alice, units("1"))
	assert.Nil(t, err)
}

func TestCollectFees(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Deposit(ctx, alice, units("100"))
	require.Nil(t, err)
	_, err = f.ledger.Borrow(ctx, alice, units("50"))
	require.Nil(t, err)
	f.prices.set(collateralAsset, units("0.5"))
	_, err = f.ledger.Liquidate(ctx, bob, alice, units("50"))
	require.Nil(t, err)

	// the bonus cut stays behind as collateral on top of the deposits
	m := f.market(t)
	held := new(uint256.Int).Add(m.TotalDeposits, m.CollectedFees)
	assert.Equal(t, units("50").Dec(), f.tokens.balance(collateralAsset, ledgerAddress).Dec())
	assert.Equal(t, held.Dec(), f.tokens.balance(collateralAsset, ledgerAddress).Dec())

	_, err = f.ledger.CollectFees(ctx, alice)
	assert.True(t, errors.Is(err, core.ErrNotFeeCollector))

	borrowHeld := f.tokens.balance(borrowAsset, ledgerAddress)

	events, err := f.ledger.CollectFees(ctx, feeCollector)
	require.Nil(t, err)
	assert.Equal(t, units("2.5").Dec(), events[0].Attrs[core.EventKeyAmount])
	assert.Equal(t, units("2.5").Dec(), f.tokens.balance(borrowAsset, feeCollector).Dec())
	assert.True(t, f.market(t).CollectedFees.IsZero())

	// fees are paid in the borrow asset, the collateral cut is not touched
	assert.Equal(t, new(uint256.Int).Sub(borrowHeld, units("2.5")).Dec(), f.tokens.balance(borrowAsset, ledgerAddress).Dec())
	assert.Equal(t, units("50").Dec(), f.tokens.balance(collateralAsset, ledgerAddress).Dec())
	assert.Equal(t, units("47.5").Dec(), f.market(t).TotalDeposits.Dec())

	events, err = f.ledger.CollectFees(ctx, feeCollector)
	require.Nil(t, err)
	assert.Equal(t, "0", events[0].Attrs[core.EventKeyAmount])
}

func TestExecuteCall(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	payload := calldata.EncodeUint(uint256.NewInt(300))

	_, err := f.ledger.ExecuteCall(ctx, alice, nil, SigSetProtocolFeeRate, payload)
	assert.True(t, errors.Is(err, core.ErrNotGovernor))

	_, err = f.ledger.ExecuteCall(ctx, governor, uint256.NewInt(1), SigSetProtocolFeeRate, payload)
	assert.True(t, errors.Is(err, core.ErrValueNotAccepted))

	_, err = f.ledger.ExecuteCall(ctx, governor, nil, "setOwner(address)", payload)
	assert.True(t, errors.Is(err, core.ErrUnknownSignature))

	_, err = f.ledger.ExecuteCall(ctx, governor, nil, SigSetProtocolFeeRate, calldata.EncodeUint(uint256.NewInt(10001)))
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))

	_, err = f.ledger.ExecuteCall(ctx, governor, nil, SigSetCollateralFactor, calldata.EncodeUint(uint256.NewInt(8000)))
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))

	_, err = f.ledger.ExecuteCall(ctx, governor, nil, SigSetLiquidationBonus, calldata.EncodeUint(uint256.NewInt(9999)))
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))

	events, err := f.ledger.ExecuteCall(ctx, governor, new(uint256.Int), SigSetProtocolFeeRate, payload)
	require.Nil(t, err)
	assert.Equal(t, core.EventParameterUpdated, events[0].Name)
	assert.Equal(t, "protocol_fee_rate", events[0].Attrs[core.EventKeyParameter])
	assert.Equal(t, "0", events[0].Attrs[core.EventKeyOldValue])
	assert.Equal(t, "300", events[0].Attrs[core.EventKeyNewValue])
	assert.Equal(t, uint64(300), f.market(t).ProtocolFeeRate)

	_, err = f.ledger.ExecuteCall(ctx, governor, nil, SigSetLiquidationThreshold, calldata.EncodeUint(uint256.NewInt(8500)))
	require.Nil(t, err)
	_, err = f.ledger.ExecuteCall(ctx, governor, nil, SigSetCollateralFactor, calldata.EncodeUint(uint256.NewInt(8000)))
	require.Nil(t, err)

	_, err = f.ledger.ExecuteCall(ctx, governor, nil, SigSetPaused, calldata.EncodeBool(true))
	require.Nil(t, err)
	assert.True(t, f.market(t).Paused)

	// the governor may also use the direct path
	_, err = f.ledger.SetPaused(ctx, governor, false)
	require.Nil(t, err)
	assert.False(t, f.market(t).Paused)
}

func TestSetInterestRateAccruesFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Deposit(ctx, alice, units("100"))
	require.Nil(t, err)
	_, err = f.ledger.Borrow(ctx, alice, units("50"))
	require.Nil(t, err)

	f.advance(365 * 24 * time.Hour)

	_, err = f.ledger.ExecuteCall(ctx, governor, nil, SigSetInterestRate, calldata.EncodeUint(uint256.NewInt(1000)))
	require.Nil(t, err)

	a := f.account(t, alice)
	assert.Equal(t, units("2.5").Dec(), a.InterestAccrued.Dec())
	f.assertConserved(t)

	f.advance(365 * 24 * time.Hour)

	details, err := f.ledger.GetAccount(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, units("7.5").Dec(), details.InterestAccrued.Dec())
}

func TestSnapshotSeesOneCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Deposit(ctx, alice, units("100"))
	require.Nil(t, err)

	reads := 0
	f.store.onFindAccount = func() {
		reads++
		if reads == 1 {
			_, err := f.ledger.Deposit(ctx, alice, units("20"))
			require.Nil(t, err)
		}
	}

	s, err := f.ledger.snapshot(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, units("120").Dec(), s.account.CollateralDeposited.Dec())
	assert.Equal(t, s.account.CollateralDeposited.Dec(), s.market.TotalDeposits.Dec())
	assert.Equal(t, 2, reads)

	f.store.onFindAccount = func() {
		_, err := f.ledger.Deposit(ctx, alice, units("1"))
		require.Nil(t, err)
	}

	_, err = f.ledger.GetAccount(ctx, alice)
	assert.True(t, errors.Is(err, core.ErrOptimisticLock))
}

func TestViewsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Deposit(ctx, alice, units("100"))
	require.Nil(t, err)
	_, err = f.ledger.Borrow(ctx, alice, units("50"))
	require.Nil(t, err)

	f.advance(30 * 24 * time.Hour)
	before := f.account(t, alice)

	first, err := f.ledger.GetAccount(ctx, alice)
	require.Nil(t, err)
	second, err := f.ledger.GetAccount(ctx, alice)
	require.Nil(t, err)

	assert.Equal(t, first.InterestAccrued.Dec(), second.InterestAccrued.Dec())
	assert.Equal(t, first.HealthFactor.Dec(), second.HealthFactor.Dec())
	assert.False(t, first.InterestAccrued.IsZero())
	assert.Equal(t, before, f.account(t, alice))

	market, err := f.ledger.GetMarket(ctx)
	require.Nil(t, err)
	assert.Equal(t, "5000", market.Utilization.Dec())
}

func TestPriceUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.prices.set(collateralAsset, new(uint256.Int))

	_, err := f.ledger.Deposit(ctx, alice, units("100"))
	require.Nil(t, err)

	_, err = f.ledger.Borrow(ctx, alice, units("10"))
	assert.True(t, errors.Is(err, core.ErrPriceUnavailable))
	assert.Equal(t, core.KindPriceUnavailable, core.KindOf(err))

	_, err = f.ledger.GetAccount(ctx, alice)
	assert.True(t, errors.Is(err, core.ErrPriceUnavailable))

	details, err := f.ledger.GetAccount(ctx, bob)
	require.Nil(t, err)
	assert.True(t, details.CollateralValue.IsZero())
}

func TestFailedTransferLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Deposit(ctx, alice, units("100"))
	require.Nil(t, err)

	market := f.market(t)
	account := f.account(t, alice)

	f.tokens.failOut = true
	_, err = f.ledger.Borrow(ctx, alice, units("10"))
	assert.True(t, errors.Is(err, errTransferFailed))

	assert.Equal(t, market, f.market(t))
	assert.Equal(t, account, f.account(t, alice))
	assert.Equal(t, units("1000").Dec(), f.tokens.balance(borrowAsset, alice).Dec())
}

func TestFailedCommitRollsBackTransfers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Deposit(ctx, alice, units("100"))
	require.Nil(t, err)
	_, err = f.ledger.Borrow(ctx, alice, units("50"))
	require.Nil(t, err)
	f.prices.set(collateralAsset, units("0.5"))

	f.store.failCommit = core.ErrOptimisticLock

	_, err = f.ledger.Liquidate(ctx, bob, alice, units("50"))
	assert.True(t, errors.Is(err, core.ErrOptimisticLock))

	assert.Equal(t, units("1000").Dec(), f.tokens.balance(collateralAsset, bob).Dec())
	assert.Equal(t, units("1000").Dec(), f.tokens.balance(borrowAsset, bob).Dec())

	_, err = f.ledger.Deposit(ctx, carol, units("5"))
	assert.True(t, errors.Is(err, core.ErrOptimisticLock))
	assert.Equal(t, units("1000").Dec(), f.tokens.balance(collateralAsset, carol).Dec())
}

func TestInsufficientTokenBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Deposit(ctx, alice, units("1001"))
	assert.True(t, errors.Is(err, core.ErrInsufficientFunds))

	_, err = f.store.FindAccount(ctx, alice)
	assert.True(t, errors.Is(err, core.ErrAccountNotFound))
	assert.True(t, f.market(t).TotalDeposits.IsZero())
}

func TestConservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	steps := []func() ([]*core.Event, error){
		func() ([]*core.Event, error) { return f.ledger.Deposit(ctx, alice, units("100")) },
		func() ([]*core.Event, error) { return f.ledger.Deposit(ctx, bob, units("40")) },
		func() ([]*core.Event, error) { return f.ledger.Borrow(ctx, alice, units("60")) },
		func() ([]*core.Event, error) { return f.ledger.Borrow(ctx, bob, units("20")) },
		func() ([]*core.Event, error) { return f.ledger.Repay(ctx, alice, units("15.25")) },
		func() ([]*core.Event, error) { return f.ledger.Withdraw(ctx, bob, units("5")) },
		func() ([]*core.Event, error) { return f.ledger.Borrow(ctx, carol, units("1")) },
		func() ([]*core.Event, error) { return f.ledger.Deposit(ctx, carol, units("3")) },
	}

	for _, step := range steps {
		f.advance(17 * 24 * time.Hour)
		step()
		f.assertConserved(t)
	}

	events, err := f.ledger.Events(ctx, 1, 100)
	require.Nil(t, err)
	require.Len(t, events, 7)
	for i, e := range events {
		assert.Equal(t, int64(i+1), e.Seq)
	}
}
