package ledger

import (
	"encoding/json"
	"strings"
	"time"

	"lending/core"
	"lending/pkg/number"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const marketID = 1

type market struct {
	ID                   int64           `sql:"PRIMARY_KEY"`
	CollateralAsset      string          `sql:"size:42"`
	BorrowAsset          string          `sql:"size:42"`
	TotalDeposits        decimal.Decimal `sql:"type:decimal(65,0)"`
	TotalBorrows         decimal.Decimal `sql:"type:decimal(65,0)"`
	CollectedFees        decimal.Decimal `sql:"type:decimal(65,0)"`
	ProtocolFeeRate      uint64
	CollateralFactor     uint64
	LiquidationThreshold uint64
	LiquidationBonus     uint64
	InterestRate         uint64
	Paused               bool
	Version              int64 `sql:"not null"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (market) TableName() string {
	return "markets"
}

type account struct {
	ID                  int64           `sql:"PRIMARY_KEY"`
	Address             string          `sql:"size:42;unique_index:idx_accounts_address"`
	CollateralDeposited decimal.Decimal `sql:"type:decimal(65,0)"`
	AmountBorrowed      decimal.Decimal `sql:"type:decimal(65,0)"`
	InterestAccrued     decimal.Decimal `sql:"type:decimal(65,0)"`
	LastUpdateTime      int64
	Version             int64 `sql:"not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (account) TableName() string {
	return "accounts"
}

type event struct {
	Seq     int64          `sql:"PRIMARY_KEY;AUTO_INCREMENT"`
	TraceID string         `sql:"size:36;unique_index:idx_events_trace"`
	Name    string         `sql:"size:36"`
	Account string         `sql:"size:42;index:idx_events_account"`
	Attrs   types.JSONText `sql:"type:TEXT"`
	// Refs every address the event mentions
	Refs      pq.StringArray `sql:"type:TEXT"`
	CreatedAt time.Time
}

func (event) TableName() string {
	return "events"
}

func addressKey(a common.Address) string {
	return strings.ToLower(a.Hex())
}

func fromMarket(m *core.Market) *market {
	return &market{
		ID:                   marketID,
		CollateralAsset:      addressKey(m.CollateralAsset),
		BorrowAsset:          addressKey(m.BorrowAsset),
		TotalDeposits:        number.ToDecimal(m.TotalDeposits),
		TotalBorrows:         number.ToDecimal(m.TotalBorrows),
		CollectedFees:        number.ToDecimal(m.CollectedFees),
		ProtocolFeeRate:      m.ProtocolFeeRate,
		CollateralFactor:     m.CollateralFactor,
		LiquidationThreshold: m.LiquidationThreshold,
		LiquidationBonus:     m.LiquidationBonus,
		InterestRate:         m.InterestRate,
		Paused:               m.Paused,
		Version:              m.Version,
		UpdatedAt:            m.UpdatedAt,
	}
}

func (m *market) toMarket() (*core.Market, error) {
	out := &core.Market{
		CollateralAsset:      common.HexToAddress(m.CollateralAsset),
		BorrowAsset:          common.HexToAddress(m.BorrowAsset),
		ProtocolFeeRate:      m.ProtocolFeeRate,
		CollateralFactor:     m.CollateralFactor,
		LiquidationThreshold: m.LiquidationThreshold,
		LiquidationBonus:     m.LiquidationBonus,
		InterestRate:         m.InterestRate,
		Paused:               m.Paused,
		Version:              m.Version,
		UpdatedAt:            m.UpdatedAt,
	}

	var err error
	if out.TotalDeposits, err = number.FromDecimal(m.TotalDeposits); err != nil {
		return nil, err
	}

	if out.TotalBorrows, err = number.FromDecimal(m.TotalBorrows); err != nil {
		return nil, err
	}

	if out.CollectedFees, err = number.FromDecimal(m.CollectedFees); err != nil {
		return nil, err
	}

	return out, nil
}

func fromAccount(a *core.Account) *account {
	return &account{
		Address:             addressKey(a.Address),
		CollateralDeposited: number.ToDecimal(a.CollateralDeposited),
		AmountBorrowed:      number.ToDecimal(a.AmountBorrowed),
		InterestAccrued:     number.ToDecimal(a.InterestAccrued),
		LastUpdateTime:      a.LastUpdateTime,
		Version:             a.Version,
	}
}

func (a *account) toAccount() (*core.Account, error) {
	out := &core.Account{
		Address:        common.HexToAddress(a.Address),
		LastUpdateTime: a.LastUpdateTime,
		Version:        a.Version,
	}

	var err error
	if out.CollateralDeposited, err = number.FromDecimal(a.CollateralDeposited); err != nil {
		return nil, err
	}

	if out.AmountBorrowed, err = number.FromDecimal(a.AmountBorrowed); err != nil {
		return nil, err
	}

	if out.InterestAccrued, err = number.FromDecimal(a.InterestAccrued); err != nil {
		return nil, err
	}

	return out, nil
}

var refKeys = []string{
	core.EventKeyBorrower,
	core.EventKeyLiquidator,
	core.EventKeyTarget,
}

func fromEvent(e *core.Event) (*event, error) {
	attrs, err := json.Marshal(e.Attrs)
	if err != nil {
		return nil, err
	}

	refs := pq.StringArray{addressKey(e.Account)}
	for _, key := range refKeys {
		if v, ok := e.Attrs[key]; ok {
			refs = append(refs, strings.ToLower(v))
		}
	}

	return &event{
		TraceID:   e.TraceID,
		Name:      e.Name,
		Account:   addressKey(e.Account),
		Attrs:     types.JSONText(attrs),
		Refs:      refs,
		CreatedAt: e.CreatedAt,
	}, nil
}

func (e *event) toEvent() (*core.Event, error) {
	out := &core.Event{
		Seq:       e.Seq,
		TraceID:   e.TraceID,
		Name:      e.Name,
		Account:   common.HexToAddress(e.Account),
		Attrs:     map[string]string{},
		CreatedAt: e.CreatedAt,
	}

	if len(e.Attrs) > 0 {
		if err := e.Attrs.Unmarshal(&out.Attrs); err != nil {
			return nil, err
		}
	}

	return out, nil
}
