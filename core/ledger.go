package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type (
	// Commit the state written by one ledger operation
	Commit struct {
		Market   *Market
		Accounts []*Account
		Events   []*Event
	}

	// LedgerStore persists the market singleton, accounts and the event log
	LedgerStore interface {
		EventSink
		// FindMarket returns ErrMarketNotInitialized when missing
		FindMarket(ctx context.Context) (*Market, error)
		CreateMarket(ctx context.Context, market *Market) error
		// FindAccount returns ErrAccountNotFound when missing
		FindAccount(ctx context.Context, address common.Address) (*Account, error)
		// ListAccounts pages accounts ordered by address, starting after the given one
		ListAccounts(ctx context.Context, after common.Address, limit int) ([]*Account, error)
		ListEvents(ctx context.Context, fromSeq int64, limit int) ([]*Event, error)
		// Commit writes market, accounts and events atomically. Versions are checked
		// against the stored rows and bumped; a mismatch fails with ErrOptimisticLock.
		Commit(ctx context.Context, c *Commit) error
	}

	// AccountDetails projected account view
	AccountDetails struct {
		Account
		CollateralValue *uint256.Int `json:"collateral_value"`
		DebtValue       *uint256.Int `json:"debt_value"`
		// HealthFactor liquidation threshold based, bps
		HealthFactor *uint256.Int `json:"health_factor"`
		// BorrowingPower collateral factor based headroom ratio, bps
		BorrowingPower *uint256.Int `json:"borrowing_power"`
	}

	// MarketDetails market view
	MarketDetails struct {
		Market
		// Utilization total borrows over total deposits, bps
		Utilization     *uint256.Int `json:"utilization"`
		CollateralPrice *uint256.Int `json:"collateral_price"`
		BorrowPrice     *uint256.Int `json:"borrow_price"`
	}

	// LiquidationRisk risk view
	LiquidationRisk struct {
		Liquidatable            bool         `json:"liquidatable"`
		HealthFactor            *uint256.Int `json:"health_factor"`
		MinCollateralToMaintain *uint256.Int `json:"min_collateral_to_maintain"`
		MaxSafeWithdraw         *uint256.Int `json:"max_safe_withdraw"`
	}

	// InterestRateInfo interest view
	InterestRateInfo struct {
		AnnualRate    uint64       `json:"annual_rate"`
		Principal     *uint256.Int `json:"principal"`
		DailyInterest *uint256.Int `json:"daily_interest"`
	}

	// PositionHealth health view
	PositionHealth struct {
		Healthy      bool         `json:"healthy"`
		HealthFactor *uint256.Int `json:"health_factor"`
	}

	// CallTarget receives calls dispatched by the timelock
	CallTarget interface {
		ExecuteCall(ctx context.Context, caller common.Address, value *uint256.Int, signature string, payload []byte) ([]*Event, error)
	}

	// LedgerService the lending ledger
	LedgerService interface {
		CallTarget
		Deposit(ctx context.Context, caller common.Address, amount *uint256.Int) ([]*Event, error)
		Withdraw(ctx context.Context, caller common.Address, amount *uint256.Int) ([]*Event, error)
		Borrow(ctx context.Context, caller common.Address, amount *uint256.Int) ([]*Event, error)
		Repay(ctx context.Context, caller common.Address, amount *uint256.Int) ([]*Event, error)
		Liquidate(ctx context.Context, caller, borrower common.Address, debtToCover *uint256.Int) ([]*Event, error)
		CollectFees(ctx context.Context, caller common.Address) ([]*Event, error)
		SetPaused(ctx context.Context, caller common.Address, paused bool) ([]*Event, error)

		GetAccount(ctx context.Context, user common.Address) (*AccountDetails, error)
		GetMarket(ctx context.Context) (*MarketDetails, error)
		GetLiquidationRisk(ctx context.Context, user common.Address) (*LiquidationRisk, error)
		GetInterestRateInfo(ctx context.Context, user common.Address) (*InterestRateInfo, error)
		GetPositionHealth(ctx context.Context, user common.Address) (*PositionHealth, error)
		Events(ctx context.Context, fromSeq int64, limit int) ([]*Event, error)
	}
)

// Roles privileged addresses, fixed at construction
type Roles struct {
	Proposer     common.Address `json:"proposer"`
	PauseAdmin   common.Address `json:"pause_admin"`
	FeeCollector common.Address `json:"fee_collector"`
	// Owner may set prices and swap parameters
	Owner  common.Address `json:"owner"`
	Minter common.Address `json:"minter"`
}

// HasRole reports whether caller holds role. The zero address marks an unset
// role that nobody holds.
func HasRole(caller, role common.Address) bool {
	return role != (common.Address{}) && caller == role
}
