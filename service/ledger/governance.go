package ledger

import (
	"context"
	"fmt"

	"lending/core"
	"lending/pkg/calldata"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// setter signatures accepted from the timelock
const (
	SigSetProtocolFeeRate      = "setProtocolFeeRate(uint256)"
	SigSetPaused               = "setPaused(bool)"
	SigSetCollateralFactor     = "setCollateralFactor(uint256)"
	SigSetLiquidationThreshold = "setLiquidationThreshold(uint256)"
	SigSetLiquidationBonus     = "setLiquidationBonus(uint256)"
	SigSetInterestRate         = "setInterestRate(uint256)"
)

// Signatures setters ExecuteCall understands
func Signatures() []string {
	return []string{
		SigSetProtocolFeeRate,
		SigSetPaused,
		SigSetCollateralFactor,
		SigSetLiquidationThreshold,
		SigSetLiquidationBonus,
		SigSetInterestRate,
	}
}

const accrualPageSize = 500

type paramSetter struct {
	name string
	get  func(m *core.Market) uint64
	set  func(m *core.Market, v uint64)
}

var paramSetters = map[string]paramSetter{
	SigSetProtocolFeeRate: {
		name: "protocol_fee_rate",
		get:  func(m *core.Market) uint64 { return m.ProtocolFeeRate },
		set:  func(m *core.Market, v uint64) { m.ProtocolFeeRate = v },
	},
	SigSetCollateralFactor: {
		name: "collateral_factor",
		get:  func(m *core.Market) uint64 { return m.CollateralFactor },
		set:  func(m *core.Market, v uint64) { m.CollateralFactor = v },
	},
	SigSetLiquidationThreshold: {
		name: "liquidation_threshold",
		get:  func(m *core.Market) uint64 { return m.LiquidationThreshold },
		set:  func(m *core.Market, v uint64) { m.LiquidationThreshold = v },
	},
	SigSetLiquidationBonus: {
		name: "liquidation_bonus",
		get:  func(m *core.Market) uint64 { return m.LiquidationBonus },
		set:  func(m *core.Market, v uint64) { m.LiquidationBonus = v },
	},
	SigSetInterestRate: {
		name: "interest_rate",
		get:  func(m *core.Market) uint64 { return m.InterestRate },
		set:  func(m *core.Market, v uint64) { m.InterestRate = v },
	},
}

// ExecuteCall applies a privileged setter dispatched by the timelock
func (l *Ledger) ExecuteCall(ctx context.Context, caller common.Address, value *uint256.Int, signature string, payload []byte) ([]*core.Event, error) {
	if !core.HasRole(caller, l.cfg.Governor) {
		return nil, core.ErrNotGovernor
	}

	if value != nil && !value.IsZero() {
		return nil, core.ErrValueNotAccepted
	}

	if signature == SigSetPaused {
		paused, err := calldata.DecodeBool(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", core.ErrInvalidParameter, err)
		}

		return l.run(ctx, "set_paused", func(t *txn) error {
			t.setPaused(caller, paused)
			return nil
		})
	}

	setter, ok := paramSetters[signature]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownSignature, signature)
	}

	arg, err := calldata.DecodeUint(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidParameter, err)
	}

	if !arg.IsUint64() {
		return nil, core.ErrInvalidParameter
	}

	return l.run(ctx, "set_parameter", func(t *txn) error {
		// interest owed so far is charged at the old rate
		if signature == SigSetInterestRate {
			if err := t.accrueAll(); err != nil {
				return err
			}
		}

		old := setter.get(t.market)
		setter.set(t.market, arg.Uint64())
		if err := t.market.Validate(); err != nil {
			return err
		}

		t.emit(core.NewEvent(core.EventParameterUpdated, caller).
			With(core.EventKeyParameter, setter.name).
			With(core.EventKeyOldValue, old).
			With(core.EventKeyNewValue, arg.Uint64()))
		return nil
	})
}

func (t *txn) accrueAll() error {
	var after common.Address
	for {
		accounts, err := t.ledger.store.ListAccounts(t.ctx, after, accrualPageSize)
		if err != nil {
			return err
		}

		for _, a := range accounts {
			if _, err := t.account(a.Address); err != nil {
				return err
			}
		}

		if len(accounts) < accrualPageSize {
			return nil
		}

		after = accounts[len(accounts)-1].Address
	}
}
