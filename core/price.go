package core

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Price usd price of an asset, 18 decimals
type Price struct {
	Asset     common.Address `json:"asset"`
	Price     *uint256.Int   `json:"price"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type (
	// PriceFeed read side of the oracle. Price is zero for assets never priced.
	PriceFeed interface {
		Price(ctx context.Context, asset common.Address) (*uint256.Int, error)
	}

	// OracleService owner gated price oracle
	OracleService interface {
		PriceFeed
		SetPrice(ctx context.Context, caller, asset common.Address, price *uint256.Int) error
		Prices(ctx context.Context) ([]*Price, error)
	}

	// PriceStore persists prices
	PriceStore interface {
		// Find returns nil, nil for unknown assets
		Find(ctx context.Context, asset common.Address) (*Price, error)
		Save(ctx context.Context, price *Price) error
		All(ctx context.Context) ([]*Price, error)
	}

	// PriceTicker a quote pulled from the external price endpoint
	PriceTicker struct {
		Asset  string `json:"asset"`
		Symbol string `json:"symbol"`
		// Price decimal usd string, "1.25"
		Price string `json:"price"`
	}

	// PriceTickerService pulls quotes from the external price endpoint
	PriceTickerService interface {
		PullPriceTickers(ctx context.Context) ([]*PriceTicker, error)
	}
)
