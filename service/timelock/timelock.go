package timelock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lending/core"
	"lending/pkg/calldata"
	"lending/pkg/id"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
)

const (
	DefaultDelay       = 2 * 24 * time.Hour
	DefaultGracePeriod = 14 * 24 * time.Hour
	DefaultMinDelay    = 2 * 24 * time.Hour
	DefaultMaxDelay    = 30 * 24 * time.Hour

	// SigSetDelay the only call the governor accepts on itself
	SigSetDelay = "setDelay(uint256)"
)

type Config struct {
	// Address the governor's own address, the caller seen by targets
	Address     common.Address `json:"address"`
	Proposer    common.Address `json:"proposer"`
	Delay       time.Duration  `json:"delay"`
	GracePeriod time.Duration  `json:"grace_period"`
	MinDelay    time.Duration  `json:"min_delay"`
	MaxDelay    time.Duration  `json:"max_delay"`
}

func (cfg *Config) defaults() {
	if cfg.Delay == 0 {
		cfg.Delay = DefaultDelay
	}

	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}

	if cfg.MinDelay == 0 {
		cfg.MinDelay = DefaultMinDelay
	}

	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
}

func New(cfg Config, store core.TimelockStore, sink core.EventSink) *Governor {
	cfg.defaults()

	g := &Governor{
		cfg:     cfg,
		store:   store,
		sink:    sink,
		targets: map[common.Address]core.CallTarget{},
		now:     time.Now,
	}

	g.targets[cfg.Address] = &self{g: g}
	return g
}

// Governor a timelock in front of privileged calls. Calls are queued by the
// proposer, wait out the delay and must be executed within the grace period.
type Governor struct {
	cfg   Config
	store core.TimelockStore
	sink  core.EventSink

	// mu serializes queue, execute, cancel and delay changes. Execute holds it
	// through dispatch so a cancel never sees a call that may still revert.
	mu      sync.Mutex
	targets map[common.Address]core.CallTarget

	nowMu sync.RWMutex
	now   func() time.Time
}

// Register routes calls addressed to target
func (g *Governor) Register(target common.Address, handler core.CallTarget) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.targets[target] = handler
}

func (g *Governor) SetNowFunc(fn func() time.Time) {
	g.nowMu.Lock()
	defer g.nowMu.Unlock()

	if fn == nil {
		fn = time.Now
	}
	g.now = fn
}

func (g *Governor) clock() time.Time {
	g.nowMu.RLock()
	defer g.nowMu.RUnlock()
	return g.now()
}

func (g *Governor) Address() common.Address {
	return g.cfg.Address
}

func (g *Governor) GracePeriod() time.Duration {
	return g.cfg.GracePeriod
}

// Delay current delay in seconds
func (g *Governor) Delay(ctx context.Context) (int64, error) {
	delay, err := g.store.FindDelay(ctx)
	if err != nil {
		return 0, err
	}

	if delay == 0 {
		delay = int64(g.cfg.Delay / time.Second)
	}

	return delay, nil
}

func (g *Governor) Queue(ctx context.Context, caller common.Address, call *core.Call) (common.Hash, []*core.Event, error) {
	start := time.Now()
	if !core.HasRole(caller, g.cfg.Proposer) {
		return common.Hash{}, nil, core.ErrNotProposer
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	callID, events, err := g.queue(ctx, caller, call)
	observe("queue", err, start)
	return callID, events, err
}

func (g *Governor) queue(ctx context.Context, caller common.Address, call *core.Call) (common.Hash, []*core.Event, error) {
	delay, err := g.Delay(ctx)
	if err != nil {
		return common.Hash{}, nil, err
	}

	now := g.clock().Unix()
	if call.Eta < now+delay {
		return common.Hash{}, nil, core.ErrEtaTooSoon
	}

	if call.Eta > now+int64(g.cfg.MaxDelay/time.Second) {
		return common.Hash{}, nil, core.ErrEtaTooFar
	}

	callID, err := call.Hash()
	if err != nil {
		return common.Hash{}, nil, fmt.Errorf("%w: %s", core.ErrInvalidParameter, err)
	}

	existing, err := g.store.Find(ctx, callID)
	switch {
	case err == nil && existing.Queued():
		return common.Hash{}, nil, core.ErrAlreadyQueued
	case err == nil:
		return common.Hash{}, nil, core.ErrCallFinalized
	case !errors.Is(err, core.ErrCallNotFound):
		return common.Hash{}, nil, err
	}

	pending := &core.PendingCall{
		ID:    callID,
		Call:  *call,
		State: core.CallQueued,
	}
	if pending.Value == nil {
		pending.Value = new(uint256.Int)
	}

	if err := g.store.Create(ctx, pending); err != nil {
		return common.Hash{}, nil, err
	}

	events := g.emit(ctx, newCallEvent(core.EventQueueTransaction, caller, callID, call))
	return callID, events, nil
}

func (g *Governor) Execute(ctx context.Context, caller common.Address, call *core.Call) ([]*core.Event, error) {
	start := time.Now()

	g.mu.Lock()
	events, err := g.execute(ctx, caller, call)
	g.mu.Unlock()

	observe("execute", err, start)
	return events, err
}

func (g *Governor) execute(ctx context.Context, caller common.Address, call *core.Call) ([]*core.Event, error) {
	if !core.HasRole(caller, g.cfg.Proposer) {
		return nil, core.ErrNotProposer
	}

	callID, err := call.Hash()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidParameter, err)
	}

	pending, err := g.store.Find(ctx, callID)
	if err != nil {
		if errors.Is(err, core.ErrCallNotFound) {
			return nil, core.ErrNotQueued
		}

		return nil, err
	}

	if !pending.Queued() {
		return nil, core.ErrNotQueued
	}

	now := g.clock().Unix()
	if now < call.Eta {
		return nil, core.ErrTooEarly
	}

	if now > call.Eta+int64(g.cfg.GracePeriod/time.Second) {
		return nil, core.ErrStaleTransaction
	}

	target, ok := g.targets[call.Target]
	if !ok {
		return nil, core.ErrUnknownTarget
	}

	won, err := g.store.Transition(ctx, callID, core.CallQueued, core.CallExecuted)
	if err != nil {
		return nil, err
	}

	if !won {
		return nil, core.ErrNotQueued
	}

	events, err := target.ExecuteCall(ctx, g.cfg.Address, call.Value, call.Signature, call.Payload)
	if err != nil {
		if _, rerr := g.store.Transition(ctx, callID, core.CallExecuted, core.CallQueued); rerr != nil {
			logger.FromContext(ctx).WithError(rerr).
				WithField("call", callID.Hex()).
				Errorln("requeue reverted call failed")
		}

		return nil, fmt.Errorf("%w (%w)", err, core.ErrExecutionReverted)
	}

	events = append(events, g.emit(ctx, newCallEvent(core.EventExecuteTransaction, caller, callID, call))...)
	return events, nil
}

func (g *Governor) Cancel(ctx context.Context, caller common.Address, call *core.Call) ([]*core.Event, error) {
	start := time.Now()
	if !core.HasRole(caller, g.cfg.Proposer) {
		return nil, core.ErrNotProposer
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	events, err := g.cancel(ctx, caller, call)
	observe("cancel", err, start)
	return events, err
}

func (g *Governor) cancel(ctx context.Context, caller common.Address, call *core.Call) ([]*core.Event, error) {
	callID, err := call.Hash()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidParameter, err)
	}

	ok, err := g.store.Transition(ctx, callID, core.CallQueued, core.CallCancelled)
	if err != nil {
		if errors.Is(err, core.ErrCallNotFound) {
			return nil, core.ErrNotQueued
		}

		return nil, err
	}

	if !ok {
		return nil, core.ErrNotQueued
	}

	return g.emit(ctx, newCallEvent(core.EventCancelTransaction, caller, callID, call)), nil
}

// SetDelay changes the delay, in seconds, for calls queued from now on
func (g *Governor) SetDelay(ctx context.Context, caller common.Address, delay int64) ([]*core.Event, error) {
	if !core.HasRole(caller, g.cfg.Proposer) && !core.HasRole(caller, g.cfg.Address) {
		return nil, core.ErrNotProposer
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	return g.setDelay(ctx, caller, delay)
}

func (g *Governor) setDelay(ctx context.Context, caller common.Address, delay int64) ([]*core.Event, error) {
	if delay < int64(g.cfg.MinDelay/time.Second) || delay > int64(g.cfg.MaxDelay/time.Second) {
		return nil, core.ErrDelayOutOfRange
	}

	old, err := g.Delay(ctx)
	if err != nil {
		return nil, err
	}

	if err := g.store.SaveDelay(ctx, delay); err != nil {
		return nil, err
	}

	e := core.NewEvent(core.EventNewDelay, caller).
		With(core.EventKeyOldValue, old).
		With(core.EventKeyNewValue, delay)
	return g.emit(ctx, e), nil
}

// Pending queued calls, oldest eta first
func (g *Governor) Pending(ctx context.Context) ([]*core.PendingCall, error) {
	return g.store.ListQueued(ctx)
}

func (g *Governor) IsQueued(ctx context.Context, callID common.Hash) (bool, error) {
	pending, err := g.store.Find(ctx, callID)
	if err != nil {
		if errors.Is(err, core.ErrCallNotFound) {
			return false, nil
		}

		return false, err
	}

	return pending.Queued(), nil
}

func newCallEvent(name string, caller common.Address, callID common.Hash, call *core.Call) *core.Event {
	value := call.Value
	if value == nil {
		value = new(uint256.Int)
	}

	return core.NewEvent(name, caller).
		With(core.EventKeyCallID, callID).
		With(core.EventKeyTarget, call.Target).
		With(core.EventKeyAmount, value).
		With(core.EventKeySignature, call.Signature).
		With(core.EventKeyEta, call.Eta)
}

// emit stamps and publishes events. The call already took effect, so a sink
// failure is logged and not returned.
func (g *Governor) emit(ctx context.Context, events ...*core.Event) []*core.Event {
	trace := id.GenTraceID()
	now := g.clock()
	for i, e := range events {
		e.TraceID = id.EventTraceID(trace, i)
		e.CreatedAt = now
	}

	if g.sink == nil {
		return events
	}

	if err := g.sink.AppendEvents(ctx, events); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("append timelock events")
	}

	return events
}

// self dispatch target for calls the governor addresses to itself
type self struct {
	g *Governor
}

func (s *self) ExecuteCall(ctx context.Context, caller common.Address, value *uint256.Int, signature string, payload []byte) ([]*core.Event, error) {
	if value != nil && !value.IsZero() {
		return nil, core.ErrValueNotAccepted
	}

	if signature != SigSetDelay {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownSignature, signature)
	}

	delay, err := calldata.DecodeUint(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidParameter, err)
	}

	if !delay.IsUint64() || delay.Uint64() > uint64(1<<62) {
		return nil, core.ErrDelayOutOfRange
	}

	// dispatched from execute, which already holds the lock
	return s.g.setDelay(ctx, caller, int64(delay.Uint64()))
}
