package core

import (
	"context"
	"time"

	"lending/pkg/calldata"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// CallState pending call lifecycle
type CallState int

const (
	_ CallState = iota
	CallQueued
	CallExecuted
	CallCancelled
)

func (s CallState) String() string {
	switch s {
	case CallQueued:
		return "Queued"
	case CallExecuted:
		return "Executed"
	case CallCancelled:
		return "Cancelled"
	default:
		return "Nonexistent"
	}
}

// Call a privileged call as submitted to the timelock
type Call struct {
	Target    common.Address `json:"target"`
	Value     *uint256.Int   `json:"value"`
	Signature string         `json:"signature"`
	Payload   []byte         `json:"payload"`
	// Eta unix seconds
	Eta int64 `json:"eta"`
}

// Hash keccak256(abi.encode(target, value, signature, payload, eta))
func (c *Call) Hash() (common.Hash, error) {
	return calldata.CallID(c.Target, c.Value, c.Signature, c.Payload, c.Eta)
}

// PendingCall a call tracked by the timelock, keyed by its call id
type PendingCall struct {
	ID common.Hash `json:"id"`
	Call
	State     CallState `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Queued reports whether the call can still be executed or cancelled
func (p *PendingCall) Queued() bool {
	return p.State == CallQueued
}

type (
	// TimelockStore persists pending calls and the timelock delay
	TimelockStore interface {
		// Find returns ErrCallNotFound when missing
		Find(ctx context.Context, id common.Hash) (*PendingCall, error)
		Create(ctx context.Context, call *PendingCall) error
		// Transition moves id from one state to another; false when the call was
		// not in the from state, so racing callers see exactly one winner
		Transition(ctx context.Context, id common.Hash, from, to CallState) (bool, error)
		ListQueued(ctx context.Context) ([]*PendingCall, error)
		// FindDelay returns 0 when the delay was never changed
		FindDelay(ctx context.Context) (int64, error)
		SaveDelay(ctx context.Context, delay int64) error
	}

	// TimelockService the timelocked governor
	TimelockService interface {
		Queue(ctx context.Context, caller common.Address, call *Call) (common.Hash, []*Event, error)
		Execute(ctx context.Context, caller common.Address, call *Call) ([]*Event, error)
		Cancel(ctx context.Context, caller common.Address, call *Call) ([]*Event, error)
		SetDelay(ctx context.Context, caller common.Address, delay int64) ([]*Event, error)
		Delay(ctx context.Context) (int64, error)
		Pending(ctx context.Context) ([]*PendingCall, error)
		IsQueued(ctx context.Context, id common.Hash) (bool, error)
	}
)
