package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lending/core"
	"lending/internal/lending"
	"lending/pkg/id"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
)

// valuer prices balances, caching quotes for the life of one call
type valuer struct {
	ctx    context.Context
	feed   core.PriceFeed
	quotes map[common.Address]*uint256.Int
}

func newValuer(ctx context.Context, feed core.PriceFeed) *valuer {
	return &valuer{
		ctx:    ctx,
		feed:   feed,
		quotes: map[common.Address]*uint256.Int{},
	}
}

func (v *valuer) price(asset common.Address) (*uint256.Int, error) {
	if p, ok := v.quotes[asset]; ok {
		return p, nil
	}

	p, err := v.feed.Price(v.ctx, asset)
	if err != nil {
		return nil, err
	}

	if p == nil {
		p = new(uint256.Int)
	}

	v.quotes[asset] = p
	return p, nil
}

// positivePrice price of an asset with nonzero exposure
func (v *valuer) positivePrice(asset common.Address) (*uint256.Int, error) {
	p, err := v.price(asset)
	if err != nil {
		return nil, err
	}

	if p.IsZero() {
		return nil, fmt.Errorf("%w: %s", core.ErrPriceUnavailable, asset.Hex())
	}

	return p, nil
}

// value usd value of amount, zero amounts need no price
func (v *valuer) value(asset common.Address, amount *uint256.Int) (*uint256.Int, error) {
	if amount.IsZero() {
		return new(uint256.Int), nil
	}

	p, err := v.positivePrice(asset)
	if err != nil {
		return nil, err
	}

	return lending.Value(amount, p), nil
}

type position struct {
	collateralValue *uint256.Int
	debtValue       *uint256.Int
}

func (v *valuer) position(m *core.Market, a *core.Account) (*position, error) {
	collateralValue, err := v.value(m.CollateralAsset, a.CollateralDeposited)
	if err != nil {
		return nil, err
	}

	debtValue, err := v.value(m.BorrowAsset, a.Debt())
	if err != nil {
		return nil, err
	}

	return &position{collateralValue: collateralValue, debtValue: debtValue}, nil
}

func (p *position) healthFactor(m *core.Market) *uint256.Int {
	return lending.HealthFactor(p.collateralValue, p.debtValue, m.LiquidationThreshold)
}

type transfer struct {
	asset   common.Address
	account common.Address
	amount  *uint256.Int
	in      bool
}

// txn the unit of work of one ledger operation. Everything is staged on
// copies and only reaches the store, and the token ledger, in commit.
type txn struct {
	*valuer
	ledger *Ledger
	trace  string
	now    int64

	market    *core.Market
	accounts  map[common.Address]*core.Account
	order     []common.Address
	events    []*core.Event
	transfers []transfer
}

func (l *Ledger) begin(ctx context.Context) (*txn, error) {
	market, err := l.store.FindMarket(ctx)
	if err != nil {
		return nil, err
	}

	return &txn{
		valuer:   newValuer(ctx, l.prices),
		ledger:   l,
		trace:    newTraceID(),
		now:      l.clock().Unix(),
		market:   market.Clone(),
		accounts: map[common.Address]*core.Account{},
	}, nil
}

// account loads the account and accrues its interest up to now
func (t *txn) account(address common.Address) (*core.Account, error) {
	if a, ok := t.accounts[address]; ok {
		return a, nil
	}

	a, err := t.ledger.store.FindAccount(t.ctx, address)
	switch {
	case err == nil:
		a = a.Clone()
	case errors.Is(err, core.ErrAccountNotFound):
		a = core.NewAccount(address, t.now)
	default:
		return nil, err
	}

	t.accrue(a)
	t.accounts[address] = a
	t.order = append(t.order, address)
	return a, nil
}

// existingAccount like account, but never creates one. Returns nil for
// unknown addresses.
func (t *txn) existingAccount(address common.Address) (*core.Account, error) {
	if a, ok := t.accounts[address]; ok {
		return a, nil
	}

	if _, err := t.ledger.store.FindAccount(t.ctx, address); err != nil {
		if errors.Is(err, core.ErrAccountNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return t.account(address)
}

func (t *txn) accrue(a *core.Account) {
	if t.now <= a.LastUpdateTime {
		return
	}

	delta := lending.AccrueInterest(a.AmountBorrowed, t.market.InterestRate, t.now-a.LastUpdateTime)
	a.InterestAccrued.Add(a.InterestAccrued, delta)
	t.market.TotalBorrows.Add(t.market.TotalBorrows, delta)
	a.LastUpdateTime = t.now
}

// applyPayment pays interest first, then principal
func (t *txn) applyPayment(a *core.Account, amount *uint256.Int) (interest, principal *uint256.Int) {
	interest = minOf(amount, a.InterestAccrued)
	principal = new(uint256.Int).Sub(amount, interest)

	a.InterestAccrued.Sub(a.InterestAccrued, interest)
	a.AmountBorrowed.Sub(a.AmountBorrowed, principal)
	t.market.TotalBorrows.Sub(t.market.TotalBorrows, amount)
	return interest, principal
}

func (t *txn) pull(asset, from common.Address, amount *uint256.Int) {
	t.transfers = append(t.transfers, transfer{asset: asset, account: from, amount: amount.Clone(), in: true})
}

func (t *txn) push(asset, to common.Address, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}

	t.transfers = append(t.transfers, transfer{asset: asset, account: to, amount: amount.Clone()})
}

func (t *txn) emit(e *core.Event) {
	e.TraceID = id.EventTraceID(t.trace, len(t.events))
	e.CreatedAt = time.Unix(t.now, 0)
	t.events = append(t.events, e)
}

func (t *txn) commit() ([]*core.Event, error) {
	// pulls can fail on balance or allowance, run them before anything leaves
	ordered := make([]transfer, 0, len(t.transfers))
	for _, tr := range t.transfers {
		if tr.in {
			ordered = append(ordered, tr)
		}
	}
	for _, tr := range t.transfers {
		if !tr.in {
			ordered = append(ordered, tr)
		}
	}

	done := make([]transfer, 0, len(ordered))
	for _, tr := range ordered {
		var err error
		if tr.in {
			err = t.ledger.tokens.TransferIn(t.ctx, tr.asset, tr.account, tr.amount)
		} else {
			err = t.ledger.tokens.TransferOut(t.ctx, tr.asset, tr.account, tr.amount)
		}

		if err != nil {
			t.rollback(done)
			return nil, err
		}

		done = append(done, tr)
	}

	t.market.UpdatedAt = time.Unix(t.now, 0)
	c := &core.Commit{
		Market: t.market,
		Events: t.events,
	}

	for _, address := range t.order {
		a := t.accounts[address]
		if a.Version > 0 || a.HasDebt() || !a.CollateralDeposited.IsZero() {
			c.Accounts = append(c.Accounts, a)
		}
	}

	if err := t.ledger.store.Commit(t.ctx, c); err != nil {
		t.rollback(done)
		return nil, err
	}

	return t.events, nil
}

// rollback undoes completed transfers in reverse order
func (t *txn) rollback(done []transfer) {
	log := logger.FromContext(t.ctx)

	for i := len(done) - 1; i >= 0; i-- {
		tr := done[i]

		var err error
		if tr.in {
			err = t.ledger.tokens.TransferOut(t.ctx, tr.asset, tr.account, tr.amount)
		} else if r, ok := t.ledger.tokens.(core.TokenReclaimer); ok {
			err = r.Reclaim(t.ctx, tr.asset, tr.account, tr.amount)
		} else {
			err = errors.New("transfer collaborator cannot reclaim")
		}

		if err != nil {
			log.WithError(err).
				WithField("asset", tr.asset.Hex()).
				WithField("account", tr.account.Hex()).
				WithField("amount", tr.amount.Dec()).
				WithField("trace", t.trace).
				Errorln("rollback transfer failed")
		}
	}
}
