package timelock

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lending/core"
	"lending/pkg/calldata"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	governorAddress = common.HexToAddress("0x0000000000000000000000000000000000000901")
	proposer        = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	stranger        = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	ledgerAddress   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

type memStore struct {
	mu    sync.Mutex
	calls map[common.Hash]*core.PendingCall
	delay int64
}

func (s *memStore) Find(_ context.Context, id common.Hash) (*core.PendingCall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.calls[id]
	if !ok {
		return nil, core.ErrCallNotFound
	}

	cp := *c
	return &cp, nil
}

func (s *memStore) Create(_ context.Context, call *core.PendingCall) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *call
	s.calls[call.ID] = &cp
	return nil
}

func (s *memStore) Transition(_ context.Context, id common.Hash, from, to core.CallState) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.calls[id]
	if !ok || c.State != from {
		return false, nil
	}

	c.State = to
	return true, nil
}

func (s *memStore) ListQueued(_ context.Context) ([]*core.PendingCall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var calls []*core.PendingCall
	for _, c := range s.calls {
		if c.Queued() {
			cp := *c
			calls = append(calls, &cp)
		}
	}

	sort.Slice(calls, func(i, j int) bool { return calls[i].Eta < calls[j].Eta })
	return calls, nil
}

func (s *memStore) FindDelay(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delay, nil
}

func (s *memStore) SaveDelay(_ context.Context, delay int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = delay
	return nil
}

type memSink struct {
	mu     sync.Mutex
	events []*core.Event
}

func (s *memSink) AppendEvents(_ context.Context, events []*core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

// recorder a call target that counts calls and can be told to fail
type recorder struct {
	calls  int32
	fail   error
	caller common.Address
	sig    string
}

func (r *recorder) ExecuteCall(_ context.Context, caller common.Address, _ *uint256.Int, signature string, _ []byte) ([]*core.Event, error) {
	atomic.AddInt32(&r.calls, 1)
	if r.fail != nil {
		return nil, r.fail
	}

	r.caller, r.sig = caller, signature
	return []*core.Event{core.NewEvent(core.EventParameterUpdated, caller)}, nil
}

type fixture struct {
	gov    *Governor
	store  *memStore
	sink   *memSink
	target *recorder
	now    time.Time
}

func newFixture() *fixture {
	f := &fixture{
		store:  &memStore{calls: map[common.Hash]*core.PendingCall{}},
		sink:   &memSink{},
		target: &recorder{},
		now:    time.Unix(1700000000, 0),
	}

	f.gov = New(Config{Address: governorAddress, Proposer: proposer}, f.store, f.sink)
	f.gov.SetNowFunc(func() time.Time { return f.now })
	f.gov.Register(ledgerAddress, f.target)
	return f
}

func (f *fixture) call(eta int64) *core.Call {
	return &core.Call{
		Target:    ledgerAddress,
		Signature: "setProtocolFeeRate(uint256)",
		Payload:   calldata.EncodeUint(uint256.NewInt(500)),
		Eta:       eta,
	}
}

const day = int64(24 * 60 * 60)

func TestQueueAndExecuteWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	now := f.now.Unix()

	_, _, err := f.gov.Queue(ctx, proposer, f.call(now+2*day-1))
	assert.True(t, errors.Is(err, core.ErrEtaTooSoon))
	assert.Equal(t, core.KindGovernorTiming, core.KindOf(err))

	call := f.call(now + 2*day)
	callID, events, err := f.gov.Queue(ctx, proposer, call)
	require.Nil(t, err)
	assert.Equal(t, core.EventQueueTransaction, events[0].Name)
	assert.Equal(t, callID.Hex(), events[0].Attrs[core.EventKeyCallID])

	queued, err := f.gov.IsQueued(ctx, callID)
	require.Nil(t, err)
	assert.True(t, queued)

	_, _, err = f.gov.Queue(ctx, proposer, call)
	assert.True(t, errors.Is(err, core.ErrAlreadyQueued))

	_, err = f.gov.Execute(ctx, proposer, call)
	assert.True(t, errors.Is(err, core.ErrTooEarly))

	f.now = time.Unix(call.Eta+14*day+1, 0)
	_, err = f.gov.Execute(ctx, proposer, call)
	assert.True(t, errors.Is(err, core.ErrStaleTransaction))
	assert.Equal(t, int32(0), f.target.calls)

	f.now = time.Unix(call.Eta+14*day, 0)
	events, err = f.gov.Execute(ctx, proposer, call)
	require.Nil(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, core.EventParameterUpdated, events[0].Name)
	assert.Equal(t, core.EventExecuteTransaction, events[1].Name)
	assert.Equal(t, governorAddress, f.target.caller)
	assert.Equal(t, call.Signature, f.target.sig)

	_, err = f.gov.Execute(ctx, proposer, call)
	assert.True(t, errors.Is(err, core.ErrNotQueued))

	f.now = time.Unix(now, 0)
	_, _, err = f.gov.Queue(ctx, proposer, call)
	assert.True(t, errors.Is(err, core.ErrCallFinalized))
}

func TestQueueRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	now := f.now.Unix()

	_, _, err := f.gov.Queue(ctx, stranger, f.call(now+3*day))
	assert.True(t, errors.Is(err, core.ErrNotProposer))
	assert.Equal(t, core.KindUnauthorized, core.KindOf(err))

	_, _, err = f.gov.Queue(ctx, proposer, f.call(now+31*day))
	assert.True(t, errors.Is(err, core.ErrEtaTooFar))

	_, _, err = f.gov.Queue(ctx, proposer, f.call(now+30*day))
	assert.Nil(t, err)
}

func TestExecuteNeverQueued(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.gov.Execute(ctx, proposer, f.call(f.now.Unix()+2*day))
	assert.True(t, errors.Is(err, core.ErrNotQueued))

	_, err = f.gov.Execute(ctx, stranger, f.call(f.now.Unix()+2*day))
	assert.True(t, errors.Is(err, core.ErrNotProposer))
}

func TestExecuteRevertKeepsCallQueued(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	call := f.call(f.now.Unix() + 2*day)
	callID, _, err := f.gov.Queue(ctx, proposer, call)
	require.Nil(t, err)

	f.now = time.Unix(call.Eta, 0)
	f.target.fail = core.ErrInvalidParameter

	_, err = f.gov.Execute(ctx, proposer, call)
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))
	assert.True(t, errors.Is(err, core.ErrExecutionReverted))

	queued, err := f.gov.IsQueued(ctx, callID)
	require.Nil(t, err)
	assert.True(t, queued)

	f.target.fail = nil
	_, err = f.gov.Execute(ctx, proposer, call)
	assert.Nil(t, err)
}

func TestExecuteUnknownTarget(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	call := f.call(f.now.Unix() + 2*day)
	call.Target = stranger
	callID, _, err := f.gov.Queue(ctx, proposer, call)
	require.Nil(t, err)

	f.now = time.Unix(call.Eta, 0)
	_, err = f.gov.Execute(ctx, proposer, call)
	assert.True(t, errors.Is(err, core.ErrUnknownTarget))

	queued, err := f.gov.IsQueued(ctx, callID)
	require.Nil(t, err)
	assert.True(t, queued)
}

func TestConcurrentExecuteHasOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	call := f.call(f.now.Unix() + 2*day)
	_, _, err := f.gov.Queue(ctx, proposer, call)
	require.Nil(t, err)
	f.now = time.Unix(call.Eta+1, 0)

	const n = 16
	var (
		wg       sync.WaitGroup
		wins     int32
		notQueue int32
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := f.gov.Execute(ctx, proposer, call)
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case errors.Is(err, core.ErrNotQueued):
				atomic.AddInt32(&notQueue, 1)
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(n-1), notQueue)
	assert.Equal(t, int32(1), f.target.calls)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	call := f.call(f.now.Unix() + 2*day)
	callID, _, err := f.gov.Queue(ctx, proposer, call)
	require.Nil(t, err)

	_, err = f.gov.Cancel(ctx, stranger, call)
	assert.True(t, errors.Is(err, core.ErrNotProposer))

	events, err := f.gov.Cancel(ctx, proposer, call)
	require.Nil(t, err)
	assert.Equal(t, core.EventCancelTransaction, events[0].Name)

	queued, err := f.gov.IsQueued(ctx, callID)
	require.Nil(t, err)
	assert.False(t, queued)

	_, err = f.gov.Cancel(ctx, proposer, call)
	assert.True(t, errors.Is(err, core.ErrNotQueued))

	f.now = time.Unix(call.Eta, 0)
	_, err = f.gov.Execute(ctx, proposer, call)
	assert.True(t, errors.Is(err, core.ErrNotQueued))

	pending, err := f.gov.Pending(ctx)
	require.Nil(t, err)
	assert.Len(t, pending, 0)
}

func TestSetDelay(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	delay, err := f.gov.Delay(ctx)
	require.Nil(t, err)
	assert.Equal(t, 2*day, delay)

	_, err = f.gov.SetDelay(ctx, stranger, 3*day)
	assert.True(t, errors.Is(err, core.ErrNotProposer))

	_, err = f.gov.SetDelay(ctx, proposer, 2*day-1)
	assert.True(t, errors.Is(err, core.ErrDelayOutOfRange))

	_, err = f.gov.SetDelay(ctx, proposer, 30*day+1)
	assert.True(t, errors.Is(err, core.ErrDelayOutOfRange))

	events, err := f.gov.SetDelay(ctx, proposer, 3*day)
	require.Nil(t, err)
	assert.Equal(t, core.EventNewDelay, events[0].Name)

	delay, err = f.gov.Delay(ctx)
	require.Nil(t, err)
	assert.Equal(t, 3*day, delay)

	// the new delay applies to queueing
	_, _, err = f.gov.Queue(ctx, proposer, f.call(f.now.Unix()+2*day))
	assert.True(t, errors.Is(err, core.ErrEtaTooSoon))
}

func TestSetDelayThroughQueue(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	call := &core.Call{
		Target:    governorAddress,
		Signature: SigSetDelay,
		Payload:   calldata.EncodeUint(uint256.NewInt(uint64(5 * day))),
		Eta:       f.now.Unix() + 2*day,
	}

	_, _, err := f.gov.Queue(ctx, proposer, call)
	require.Nil(t, err)

	f.now = time.Unix(call.Eta, 0)
	events, err := f.gov.Execute(ctx, proposer, call)
	require.Nil(t, err)
	assert.Equal(t, core.EventNewDelay, events[0].Name)
	assert.Equal(t, governorAddress, events[0].Account)

	delay, err := f.gov.Delay(ctx)
	require.Nil(t, err)
	assert.Equal(t, 5*day, delay)

	var names []string
	for _, e := range f.sink.events {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{core.EventQueueTransaction, core.EventNewDelay, core.EventExecuteTransaction}, names)
}

func TestUnsetProposerHoldsNothing(t *testing.T) {
	ctx := context.Background()
	store := &memStore{calls: map[common.Hash]*core.PendingCall{}}
	gov := New(Config{Address: governorAddress}, store, &memSink{})

	call := &core.Call{
		Target:    ledgerAddress,
		Signature: "setProtocolFeeRate(uint256)",
		Payload:   calldata.EncodeUint(uint256.NewInt(500)),
		Eta:       time.Now().Unix() + 3*day,
	}

	_, _, err := gov.Queue(ctx, common.Address{}, call)
	assert.True(t, errors.Is(err, core.ErrNotProposer))

	_, err = gov.Execute(ctx, common.Address{}, call)
	assert.True(t, errors.Is(err, core.ErrNotProposer))

	_, err = gov.Cancel(ctx, common.Address{}, call)
	assert.True(t, errors.Is(err, core.ErrNotProposer))

	_, err = gov.SetDelay(ctx, common.Address{}, 3*day)
	assert.True(t, errors.Is(err, core.ErrNotProposer))
}

// gate blocks in dispatch until released, then fails with err
type gate struct {
	entered chan struct{}
	release chan struct{}
	err     error
}

func (g *gate) ExecuteCall(context.Context, common.Address, *uint256.Int, string, []byte) ([]*core.Event, error) {
	close(g.entered)
	<-g.release
	return nil, g.err
}

func TestCancelWaitsForDispatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	target := &gate{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		err:     core.ErrInvalidParameter,
	}
	f.gov.Register(ledgerAddress, target)

	call := f.call(f.now.Unix() + 2*day)
	callID, _, err := f.gov.Queue(ctx, proposer, call)
	require.Nil(t, err)
	f.now = time.Unix(call.Eta, 0)

	executed := make(chan error, 1)
	go func() {
		_, err := f.gov.Execute(ctx, proposer, call)
		executed <- err
	}()
	<-target.entered

	cancelled := make(chan error, 1)
	go func() {
		_, err := f.gov.Cancel(ctx, proposer, call)
		cancelled <- err
	}()

	select {
	case err := <-cancelled:
		t.Fatalf("cancel returned during dispatch: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(target.release)
	assert.True(t, errors.Is(<-executed, core.ErrExecutionReverted))
	assert.Nil(t, <-cancelled)

	queued, err := f.gov.IsQueued(ctx, callID)
	require.Nil(t, err)
	assert.False(t, queued)

	_, err = f.gov.Execute(ctx, proposer, call)
	assert.True(t, errors.Is(err, core.ErrNotQueued))
}
