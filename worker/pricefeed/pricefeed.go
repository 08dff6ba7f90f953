package pricefeed

import (
	"context"

	"lending/core"
	"lending/pkg/number"
	"lending/worker"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
)

// Puller copies external quotes into the oracle, signing as the owner
type Puller struct {
	worker.BaseJob
	tickers core.PriceTickerService
	oracle  core.OracleService
	owner   common.Address
}

// New new price puller
func New(tickers core.PriceTickerService, oracle core.OracleService, owner common.Address) *Puller {
	w := &Puller{
		tickers: tickers,
		oracle:  oracle,
		owner:   owner,
	}

	w.Name = "pricefeed"
	w.OnWork = w.onWork
	return w
}

func (w *Puller) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx)

	tickers, err := w.tickers.PullPriceTickers(ctx)
	if err != nil {
		log.WithError(err).Errorln("PullPriceTickers")
		return err
	}

	for _, ticker := range tickers {
		log := log.WithField("symbol", ticker.Symbol).WithField("asset", ticker.Asset)

		if !common.IsHexAddress(ticker.Asset) {
			log.Warnln("skip ticker with invalid asset")
			continue
		}

		price, err := number.ParseUnits(ticker.Price)
		if err != nil || price.IsZero() {
			log.WithField("price", ticker.Price).Warnln("skip ticker with invalid price")
			continue
		}

		if err := w.oracle.SetPrice(ctx, w.owner, common.HexToAddress(ticker.Asset), price); err != nil {
			log.WithError(err).Errorln("oracle.SetPrice")
			continue
		}
	}

	return nil
}
