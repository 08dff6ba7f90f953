package config

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store/db"
	"github.com/spf13/cast"
)

// Config lending service config
type Config struct {
	App      App       `json:"app"`
	DB       db.Config `json:"db"`
	Ledger   Ledger    `json:"ledger"`
	Timelock Timelock  `json:"timelock"`
	Roles    Roles     `json:"roles"`
	Swap     Swap      `json:"swap"`
	Oracle   Oracle    `json:"oracle"`
	Risk     Risk      `json:"risk"`
	Auth     Auth      `json:"auth"`
	Server   Server    `json:"server"`
}

// App app config
type App struct {
	// Location time zone cron schedules are evaluated in
	Location string `json:"location"`
}

// Ledger market config, the parameters only seed a fresh market
type Ledger struct {
	// Address account holding the pooled tokens
	Address              string `json:"address" valid:"address,required"`
	CollateralAsset      string `json:"collateral_asset" valid:"address,required"`
	BorrowAsset          string `json:"borrow_asset" valid:"address,required"`
	ProtocolFeeRate      uint64 `json:"protocol_fee_rate"`
	CollateralFactor     uint64 `json:"collateral_factor"`
	LiquidationThreshold uint64 `json:"liquidation_threshold"`
	LiquidationBonus     uint64 `json:"liquidation_bonus"`
	InterestRate         uint64 `json:"interest_rate"`
}

// Timelock governor config, durations like "48h"
type Timelock struct {
	Address     string `json:"address" valid:"address,required"`
	Delay       string `json:"delay"`
	GracePeriod string `json:"grace_period"`
	MinDelay    string `json:"min_delay"`
	MaxDelay    string `json:"max_delay"`
	// Schedule of the executor worker
	Schedule string `json:"schedule"`
}

// Roles privileged addresses
type Roles struct {
	Proposer     string `json:"proposer" valid:"address,required"`
	PauseAdmin   string `json:"pause_admin" valid:"address"`
	FeeCollector string `json:"fee_collector" valid:"address"`
	Owner        string `json:"owner" valid:"address,required"`
	Minter       string `json:"minter" valid:"address"`
}

// Swap router config
type Swap struct {
	Router  string   `json:"router" valid:"address"`
	FeeRate uint64   `json:"fee_rate"`
	Tokens  []string `json:"tokens"`
}

// Oracle price config
type Oracle struct {
	// Endpoint serving GET /tickers, the puller is off when empty
	Endpoint  string `json:"endpoint" valid:"url"`
	Schedule  string `json:"schedule"`
	CacheSize int    `json:"cache_size"`
}

// Risk scanner config
type Risk struct {
	Schedule string `json:"schedule"`
}

// Auth jwt config
type Auth struct {
	Secret   string `json:"secret"`
	TokenTTL string `json:"token_ttl"`
}

// Server http config
type Server struct {
	RequestsPerMinute float64 `json:"requests_per_minute"`
	Burst             int     `json:"burst"`
}

// Address parse a configured hex address, empty yields the zero address
func Address(s string) common.Address {
	return common.HexToAddress(s)
}

// Addresses parse a list of hex addresses
func Addresses(list []string) []common.Address {
	out := make([]common.Address, len(list))
	for i, s := range list {
		out[i] = Address(s)
	}
	return out
}

// Duration parse "48h" style durations, 0 when empty or malformed
func Duration(s string) time.Duration {
	return cast.ToDuration(s)
}
