package timelock

import (
	"context"
	"time"

	"lending/core"
	"lending/pkg/number"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

const delayKey = "timelock_delay"

type pendingCall struct {
	ID        int64           `sql:"PRIMARY_KEY"`
	CallID    string          `sql:"size:66;unique_index:idx_pending_calls_call"`
	Target    string          `sql:"size:42"`
	Value     decimal.Decimal `sql:"type:decimal(65,0)"`
	Signature string          `sql:"size:255"`
	Payload   string          `sql:"type:TEXT"`
	Eta       int64           `sql:"index:idx_pending_calls_eta"`
	State     core.CallState  `sql:"index:idx_pending_calls_state"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (pendingCall) TableName() string {
	return "pending_calls"
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(pendingCall{})
		if err := tx.AutoMigrate(pendingCall{}).Error; err != nil {
			return err
		}

		return nil
	})
}

type timelockStore struct {
	db       *db.DB
	property property.Store
}

// New new timelock store, the delay lives in the property store
func New(db *db.DB, property property.Store) core.TimelockStore {
	return &timelockStore{
		db:       db,
		property: property,
	}
}

func (s *timelockStore) Find(ctx context.Context, id common.Hash) (*core.PendingCall, error) {
	var row pendingCall
	if err := s.db.View().Where("call_id = ?", id.Hex()).Take(&row).Error; err != nil {
		if store.IsErrNotFound(err) {
			return nil, core.ErrCallNotFound
		}

		return nil, err
	}

	return row.toPendingCall()
}

func (s *timelockStore) Create(ctx context.Context, call *core.PendingCall) error {
	row := &pendingCall{
		CallID:    call.ID.Hex(),
		Target:    call.Target.Hex(),
		Value:     number.ToDecimal(call.Value),
		Signature: call.Signature,
		Payload:   hexutil.Encode(call.Payload),
		Eta:       call.Eta,
		State:     call.State,
	}

	if err := s.db.Update().Create(row).Error; err != nil {
		return err
	}

	call.CreatedAt = row.CreatedAt
	call.UpdatedAt = row.UpdatedAt
	return nil
}

// Transition conditional update, the row count tells who won
func (s *timelockStore) Transition(ctx context.Context, id common.Hash, from, to core.CallState) (bool, error) {
	r := s.db.Update().Model(pendingCall{}).
		Where("call_id = ? AND state = ?", id.Hex(), from).
		Updates(map[string]interface{}{
			"state":      to,
			"updated_at": time.Now(),
		})
	if r.Error != nil {
		return false, r.Error
	}

	return r.RowsAffected == 1, nil
}

func (s *timelockStore) ListQueued(ctx context.Context) ([]*core.PendingCall, error) {
	var rows []pendingCall
	if err := s.db.View().Where("state = ?", core.CallQueued).Order("eta, id").Find(&rows).Error; err != nil {
		return nil, err
	}

	calls := make([]*core.PendingCall, 0, len(rows))
	for i := range rows {
		call, err := rows[i].toPendingCall()
		if err != nil {
			return nil, err
		}

		calls = append(calls, call)
	}

	return calls, nil
}

func (s *timelockStore) FindDelay(ctx context.Context) (int64, error) {
	v, err := s.property.Get(ctx, delayKey)
	if err != nil {
		return 0, err
	}

	return v.Int64(), nil
}

func (s *timelockStore) SaveDelay(ctx context.Context, delay int64) error {
	return s.property.Save(ctx, delayKey, delay)
}

func (p *pendingCall) toPendingCall() (*core.PendingCall, error) {
	value, err := number.FromDecimal(p.Value)
	if err != nil {
		return nil, err
	}

	payload, err := hexutil.Decode(p.Payload)
	if err != nil {
		return nil, err
	}

	return &core.PendingCall{
		ID: common.HexToHash(p.CallID),
		Call: core.Call{
			Target:    common.HexToAddress(p.Target),
			Value:     value,
			Signature: p.Signature,
			Payload:   payload,
			Eta:       p.Eta,
		},
		State:     p.State,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}
