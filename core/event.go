package core

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// event names
const (
	EventDeposited        = "Deposited"
	EventWithdrawn        = "Withdrawn"
	EventBorrowed         = "Borrowed"
	EventRepaid           = "Repaid"
	EventLiquidated       = "Liquidated"
	EventFeesCollected    = "FeesCollected"
	EventPaused           = "Paused"
	EventUnpaused         = "Unpaused"
	EventParameterUpdated = "ParameterUpdated"

	EventQueueTransaction   = "QueueTransaction"
	EventExecuteTransaction = "ExecuteTransaction"
	EventCancelTransaction  = "CancelTransaction"
	EventNewDelay           = "NewDelay"
)

// event attribute keys
const (
	EventKeyAmount           = "amount"
	EventKeyInterest         = "interest"
	EventKeyPrincipal        = "principal"
	EventKeyBorrower         = "borrower"
	EventKeyLiquidator       = "liquidator"
	EventKeyDebtCovered      = "debt_covered"
	EventKeyCollateralSeized = "collateral_seized"
	EventKeyProtocolFee      = "protocol_fee"
	EventKeyParameter        = "parameter"
	EventKeyOldValue         = "old_value"
	EventKeyNewValue         = "new_value"
	EventKeyCallID           = "call_id"
	EventKeyTarget           = "target"
	EventKeySignature        = "signature"
	EventKeyEta              = "eta"
)

// Event an ordered effect record produced by a state change
type Event struct {
	// Seq assigned when the event is appended to the log
	Seq       int64             `json:"seq"`
	TraceID   string            `json:"trace_id"`
	Name      string            `json:"name"`
	Account   common.Address    `json:"account"`
	Attrs     map[string]string `json:"attrs"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewEvent new event record
func NewEvent(name string, account common.Address) *Event {
	return &Event{
		Name:    name,
		Account: account,
		Attrs:   map[string]string{},
	}
}

// With set attribute, amounts are written as decimal integers
func (e *Event) With(key string, value interface{}) *Event {
	switch v := value.(type) {
	case *uint256.Int:
		e.Attrs[key] = v.Dec()
	case common.Address:
		e.Attrs[key] = v.Hex()
	case common.Hash:
		e.Attrs[key] = v.Hex()
	case string:
		e.Attrs[key] = v
	default:
		e.Attrs[key] = fmt.Sprint(v)
	}

	return e
}

// EventSink receives committed events in order
type EventSink interface {
	AppendEvents(ctx context.Context, events []*Event) error
}
