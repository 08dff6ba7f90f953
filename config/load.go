package config

import (
	"fmt"

	"lending/core"

	"github.com/asaskevich/govalidator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/config"
)

func init() {
	govalidator.TagMap["address"] = govalidator.Validator(func(s string) bool {
		return common.IsHexAddress(s)
	})
}

// Load load config file
func Load(cfgFile string, cfg *Config) error {
	config.AutomaticLoadEnv("LENDING")
	if cfgFile != "" {
		if err := config.LoadYaml(cfgFile, cfg); err != nil {
			return err
		}
	}

	defaults(cfg)
	return nil
}

// Validate check required addresses and formats
func Validate(cfg *Config) error {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if Duration(cfg.Timelock.Delay) <= 0 {
		return fmt.Errorf("config: invalid timelock delay %q", cfg.Timelock.Delay)
	}

	return nil
}

func defaults(cfg *Config) {
	if cfg.App.Location == "" {
		cfg.App.Location = "Local"
	}

	l := &cfg.Ledger
	if l.CollateralFactor == 0 {
		l.CollateralFactor = core.DefaultCollateralFactor
	}

	if l.LiquidationThreshold == 0 {
		l.LiquidationThreshold = core.DefaultLiquidationThreshold
	}

	if l.LiquidationBonus == 0 {
		l.LiquidationBonus = core.DefaultLiquidationBonus
	}

	if l.InterestRate == 0 {
		l.InterestRate = core.DefaultInterestRate
	}

	t := &cfg.Timelock
	if t.Delay == "" {
		t.Delay = "48h"
	}

	if t.GracePeriod == "" {
		t.GracePeriod = "336h"
	}

	if t.MinDelay == "" {
		t.MinDelay = "48h"
	}

	if t.MaxDelay == "" {
		t.MaxDelay = "720h"
	}

	if t.Schedule == "" {
		t.Schedule = "@every 30s"
	}

	if cfg.Swap.FeeRate == 0 {
		cfg.Swap.FeeRate = core.DefaultSwapFeeRate
	}

	if cfg.Oracle.Schedule == "" {
		cfg.Oracle.Schedule = "@every 1m"
	}

	if cfg.Oracle.CacheSize == 0 {
		cfg.Oracle.CacheSize = 256
	}

	if cfg.Risk.Schedule == "" {
		cfg.Risk.Schedule = "@every 1m"
	}

	if cfg.Auth.TokenTTL == "" {
		cfg.Auth.TokenTTL = "24h"
	}

	if cfg.Server.RequestsPerMinute == 0 {
		cfg.Server.RequestsPerMinute = 600
	}

	if cfg.Server.Burst == 0 {
		cfg.Server.Burst = 50
	}
}
