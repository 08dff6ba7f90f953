package views

import (
	"encoding/hex"
	"time"

	"lending/core"
	"lending/internal/lending"
	"lending/pkg/number"

	"github.com/holiman/uint256"
)

// Default default view
type Default struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// DefaultSuccess default success view
var DefaultSuccess = Default{
	Code:    0,
	Message: "success",
}

type (
	Account struct {
		Address             string `json:"address"`
		CollateralDeposited string `json:"collateral_deposited"`
		AmountBorrowed      string `json:"amount_borrowed"`
		InterestAccrued     string `json:"interest_accrued"`
		LastUpdateTime      int64  `json:"last_update_time"`
		CollateralValue     string `json:"collateral_value"`
		DebtValue           string `json:"debt_value"`
		// HealthFactor ratio, empty without debt
		HealthFactor   string `json:"health_factor,omitempty"`
		BorrowingPower string `json:"borrowing_power,omitempty"`
	}

	Market struct {
		CollateralAsset      string `json:"collateral_asset"`
		BorrowAsset          string `json:"borrow_asset"`
		TotalDeposits        string `json:"total_deposits"`
		TotalBorrows         string `json:"total_borrows"`
		CollectedFees        string `json:"collected_fees"`
		ProtocolFeeRate      uint64 `json:"protocol_fee_rate"`
		CollateralFactor     uint64 `json:"collateral_factor"`
		LiquidationThreshold uint64 `json:"liquidation_threshold"`
		LiquidationBonus     uint64 `json:"liquidation_bonus"`
		InterestRate         uint64 `json:"interest_rate"`
		Paused               bool   `json:"paused"`
		Utilization          string `json:"utilization"`
		CollateralPrice      string `json:"collateral_price"`
		BorrowPrice          string `json:"borrow_price"`
	}

	Risk struct {
		Liquidatable            bool   `json:"liquidatable"`
		HealthFactor            string `json:"health_factor,omitempty"`
		MinCollateralToMaintain string `json:"min_collateral_to_maintain"`
		MaxSafeWithdraw         string `json:"max_safe_withdraw"`
	}

	Interest struct {
		AnnualRate    uint64 `json:"annual_rate"`
		Principal     string `json:"principal"`
		DailyInterest string `json:"daily_interest"`
	}

	Health struct {
		Healthy      bool   `json:"healthy"`
		HealthFactor string `json:"health_factor,omitempty"`
	}

	Event struct {
		Seq       int64             `json:"seq"`
		TraceID   string            `json:"trace_id"`
		Name      string            `json:"name"`
		Account   string            `json:"account"`
		Attrs     map[string]string `json:"attrs"`
		CreatedAt time.Time         `json:"created_at"`
	}

	PendingCall struct {
		ID        string    `json:"id"`
		Target    string    `json:"target"`
		Value     string    `json:"value"`
		Signature string    `json:"signature"`
		Payload   string    `json:"payload"`
		Eta       int64     `json:"eta"`
		State     string    `json:"state"`
		CreatedAt time.Time `json:"created_at"`
	}

	Price struct {
		Asset     string     `json:"asset"`
		Price     string     `json:"price"`
		UpdatedAt *time.Time `json:"updated_at,omitempty"`
	}
)

// Ratio basis points as a decimal ratio, 15000 -> "1.5". Without debt the
// health factor is unbounded and rendered empty.
func Ratio(bps *uint256.Int) string {
	if bps == nil || bps.Eq(lending.MaxHealthFactor) {
		return ""
	}

	return number.ToDecimal(bps).Shift(-4).String()
}

func AccountView(d *core.AccountDetails) Account {
	return Account{
		Address:             d.Address.Hex(),
		CollateralDeposited: number.FormatUnits(d.CollateralDeposited),
		AmountBorrowed:      number.FormatUnits(d.AmountBorrowed),
		InterestAccrued:     number.FormatUnits(d.InterestAccrued),
		LastUpdateTime:      d.LastUpdateTime,
		CollateralValue:     number.FormatUnits(d.CollateralValue),
		DebtValue:           number.FormatUnits(d.DebtValue),
		HealthFactor:        Ratio(d.HealthFactor),
		BorrowingPower:      Ratio(d.BorrowingPower),
	}
}

func MarketView(d *core.MarketDetails) Market {
	return Market{
		CollateralAsset:      d.CollateralAsset.Hex(),
		BorrowAsset:          d.BorrowAsset.Hex(),
		TotalDeposits:        number.FormatUnits(d.TotalDeposits),
		TotalBorrows:         number.FormatUnits(d.TotalBorrows),
		CollectedFees:        number.FormatUnits(d.CollectedFees),
		ProtocolFeeRate:      d.ProtocolFeeRate,
		CollateralFactor:     d.CollateralFactor,
		LiquidationThreshold: d.LiquidationThreshold,
		LiquidationBonus:     d.LiquidationBonus,
		InterestRate:         d.InterestRate,
		Paused:               d.Paused,
		Utilization:          Ratio(d.Utilization),
		CollateralPrice:      number.FormatUnits(d.CollateralPrice),
		BorrowPrice:          number.FormatUnits(d.BorrowPrice),
	}
}

func RiskView(r *core.LiquidationRisk) Risk {
	return Risk{
		Liquidatable:            r.Liquidatable,
		HealthFactor:            Ratio(r.HealthFactor),
		MinCollateralToMaintain: number.FormatUnits(r.MinCollateralToMaintain),
		MaxSafeWithdraw:         number.FormatUnits(r.MaxSafeWithdraw),
	}
}

func InterestView(i *core.InterestRateInfo) Interest {
	return Interest{
		AnnualRate:    i.AnnualRate,
		Principal:     number.FormatUnits(i.Principal),
		DailyInterest: number.FormatUnits(i.DailyInterest),
	}
}

func HealthView(h *core.PositionHealth) Health {
	return Health{
		Healthy:      h.Healthy,
		HealthFactor: Ratio(h.HealthFactor),
	}
}

func EventView(e *core.Event) Event {
	return Event{
		Seq:       e.Seq,
		TraceID:   e.TraceID,
		Name:      e.Name,
		Account:   e.Account.Hex(),
		Attrs:     e.Attrs,
		CreatedAt: e.CreatedAt,
	}
}

func EventViews(events []*core.Event) []Event {
	items := make([]Event, len(events))
	for i, e := range events {
		items[i] = EventView(e)
	}
	return items
}

func PendingCallView(p *core.PendingCall) PendingCall {
	return PendingCall{
		ID:        p.ID.Hex(),
		Target:    p.Target.Hex(),
		Value:     p.Value.Dec(),
		Signature: p.Signature,
		Payload:   "0x" + hex.EncodeToString(p.Payload),
		Eta:       p.Eta,
		State:     p.State.String(),
		CreatedAt: p.CreatedAt,
	}
}

func PendingCallViews(calls []*core.PendingCall) []PendingCall {
	items := make([]PendingCall, len(calls))
	for i, c := range calls {
		items[i] = PendingCallView(c)
	}
	return items
}

func PriceView(p *core.Price) Price {
	view := Price{
		Asset: p.Asset.Hex(),
		Price: number.FormatUnits(p.Price),
	}

	if !p.UpdatedAt.IsZero() {
		view.UpdatedAt = &p.UpdatedAt
	}

	return view
}
