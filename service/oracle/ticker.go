package oracle

import (
	"context"
	"strings"

	"lending/core"
	"lending/pkg/resthttp"

	"github.com/fox-one/pkg/logger"
)

// NewTickerService pulls quotes from endpoint + "/tickers"
func NewTickerService(endpoint string) core.PriceTickerService {
	return &tickerService{endpoint: strings.TrimSuffix(endpoint, "/")}
}

type tickerService struct {
	endpoint string
}

func (s *tickerService) PullPriceTickers(ctx context.Context) ([]*core.PriceTicker, error) {
	url := s.endpoint + "/tickers"
	logger.FromContext(ctx).Debugln("pull prices:", url)

	resp, err := resthttp.Request(ctx).Get(url)
	if err != nil {
		return nil, err
	}

	var tickers []*core.PriceTicker
	if err := resthttp.ParseResponse(resp, &tickers); err != nil {
		return nil, err
	}

	return tickers, nil
}
