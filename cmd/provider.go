package cmd

import (
	"context"

	"lending/config"
	"lending/core"
	"lending/handler/auth"
	"lending/service/ledger"
	"lending/service/oracle"
	"lending/service/swap"
	"lending/service/timelock"
	"lending/service/token"
	"lending/store/balance"
	ledgerstore "lending/store/ledger"
	"lending/store/price"
	timelockstore "lending/store/timelock"

	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
	propertystore "github.com/fox-one/pkg/store/property"
)

func provideDatabase() *db.DB {
	return db.MustOpen(cfg.DB)
}

// ---------------store-----------------------------------------

func providePropertyStore(db *db.DB) property.Store {
	return propertystore.New(db)
}

func provideLedgerStore(db *db.DB) core.LedgerStore {
	return ledgerstore.New(db)
}

func provideTimelockStore(db *db.DB, property property.Store) core.TimelockStore {
	return timelockstore.New(db, property)
}

func providePriceStore(db *db.DB) core.PriceStore {
	return price.Cache(price.New(db), cfg.Oracle.CacheSize)
}

func provideBalanceStore(db *db.DB) core.BalanceStore {
	return balance.New(db)
}

// ------------------service------------------------------------

func provideRoles() core.Roles {
	return core.Roles{
		Proposer:     config.Address(cfg.Roles.Proposer),
		PauseAdmin:   config.Address(cfg.Roles.PauseAdmin),
		FeeCollector: config.Address(cfg.Roles.FeeCollector),
		Owner:        config.Address(cfg.Roles.Owner),
		Minter:       config.Address(cfg.Roles.Minter),
	}
}

func provideMarket() *core.Market {
	m := core.NewMarket(config.Address(cfg.Ledger.CollateralAsset), config.Address(cfg.Ledger.BorrowAsset))
	m.ProtocolFeeRate = cfg.Ledger.ProtocolFeeRate
	m.CollateralFactor = cfg.Ledger.CollateralFactor
	m.LiquidationThreshold = cfg.Ledger.LiquidationThreshold
	m.LiquidationBonus = cfg.Ledger.LiquidationBonus
	m.InterestRate = cfg.Ledger.InterestRate
	return m
}

func provideAuthenticator() *auth.Authenticator {
	return auth.New(cfg.Auth.Secret)
}

// services every command shares, wired over one database
type services struct {
	db       *db.DB
	property property.Store
	store    core.LedgerStore
	ledger   *ledger.Ledger
	governor *timelock.Governor
	oracle   core.OracleService
	tokens   core.TokenService
	swap     *swap.Service
}

func provideServices() *services {
	database := provideDatabase()
	props := providePropertyStore(database)
	ledgerStore := provideLedgerStore(database)
	balances := provideBalanceStore(database)
	roles := provideRoles()

	oracleService := oracle.New(roles.Owner, providePriceStore(database))
	tokens := token.New(roles.Minter, balances)

	ledgerAddress := config.Address(cfg.Ledger.Address)
	lendingLedger := ledger.New(ledger.Config{
		Governor: config.Address(cfg.Timelock.Address),
		Roles:    roles,
	}, ledgerStore, oracleService, token.NewVault(ledgerAddress, balances))

	governor := timelock.New(timelock.Config{
		Address:     config.Address(cfg.Timelock.Address),
		Proposer:    roles.Proposer,
		Delay:       config.Duration(cfg.Timelock.Delay),
		GracePeriod: config.Duration(cfg.Timelock.GracePeriod),
		MinDelay:    config.Duration(cfg.Timelock.MinDelay),
		MaxDelay:    config.Duration(cfg.Timelock.MaxDelay),
	}, provideTimelockStore(database, props), ledgerStore)
	governor.Register(ledgerAddress, lendingLedger)

	router := config.Address(cfg.Swap.Router)
	swapService := swap.New(swap.Config{
		Owner:   roles.Owner,
		Router:  router,
		FeeRate: cfg.Swap.FeeRate,
		Tokens:  config.Addresses(cfg.Swap.Tokens),
	}, oracleService, tokens, token.NewVault(router, balances))

	return &services{
		db:       database,
		property: props,
		store:    ledgerStore,
		ledger:   lendingLedger,
		governor: governor,
		oracle:   oracleService,
		tokens:   tokens,
		swap:     swapService,
	}
}

func (s *services) ping(ctx context.Context) error {
	return s.db.View().DB().PingContext(ctx)
}

func (s *services) Close() error {
	return s.db.Close()
}
