package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"lending/core"
	"lending/pkg/id"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	"github.com/yiplee/structs"
)

// Config ledger config
type Config struct {
	// Governor the timelock address allowed to call privileged setters
	Governor common.Address `json:"governor"`
	Roles    core.Roles     `json:"roles"`
}

// Ledger the lending ledger. State changing operations run one at a time and
// either commit fully or leave no trace.
type Ledger struct {
	cfg    Config
	store  core.LedgerStore
	prices core.PriceFeed
	tokens core.TokenTransfer

	mu    sync.Mutex
	nowMu sync.RWMutex
	now   func() time.Time
}

// New new ledger service
func New(cfg Config, store core.LedgerStore, prices core.PriceFeed, tokens core.TokenTransfer) *Ledger {
	return &Ledger{
		cfg:    cfg,
		store:  store,
		prices: prices,
		tokens: tokens,
		now:    time.Now,
	}
}

// SetNowFunc overrides the clock
func (l *Ledger) SetNowFunc(fn func() time.Time) {
	l.nowMu.Lock()
	defer l.nowMu.Unlock()

	if fn == nil {
		fn = time.Now
	}
	l.now = fn
}

// Init creates the market singleton unless it already exists
func (l *Ledger) Init(ctx context.Context, market *core.Market) error {
	if err := market.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.store.FindMarket(ctx)
	if err == nil {
		return nil
	}

	if !errors.Is(err, core.ErrMarketNotInitialized) {
		return err
	}

	market.UpdatedAt = l.clock()
	return l.store.CreateMarket(ctx, market)
}

func (l *Ledger) run(ctx context.Context, op string, fn func(t *txn) error) ([]*core.Event, error) {
	start := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	log := logger.FromContext(ctx).WithField("op", op)

	t, err := l.begin(ctx)
	if err == nil {
		err = fn(t)
	}

	var events []*core.Event
	if err == nil {
		events, err = t.commit()
	}

	observe(op, err, start)

	if err != nil {
		if core.KindOf(err) == core.KindInternal {
			log.WithError(err).Errorln("ledger operation failed")
		} else {
			log.WithError(err).Debugln("ledger operation rejected")
		}

		return nil, err
	}

	for _, e := range events {
		log.WithFields(logrus.Fields(structs.Map(e))).Infoln(e.Name)
	}

	return events, nil
}

func positive(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return core.ErrAmountMustBePositive
	}

	return nil
}

func minOf(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return x.Clone()
	}

	return y.Clone()
}

func addTo(dst, x *uint256.Int) error {
	if _, overflow := dst.AddOverflow(dst, x); overflow {
		return core.ErrAmountOverflow
	}

	return nil
}

func newTraceID() string {
	return id.GenTraceID()
}
