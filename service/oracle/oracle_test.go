package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lending/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore map[common.Address]*core.Price

func (s memStore) Find(_ context.Context, asset common.Address) (*core.Price, error) {
	return s[asset], nil
}

func (s memStore) Save(_ context.Context, p *core.Price) error {
	s[p.Asset] = p
	return nil
}

func (s memStore) All(_ context.Context) ([]*core.Price, error) {
	var prices []*core.Price
	for _, p := range s {
		prices = append(prices, p)
	}
	return prices, nil
}

func TestOracle(t *testing.T) {
	ctx := context.Background()
	owner := common.HexToAddress("0x0000000000000000000000000000000000000001")
	asset := common.HexToAddress("0x00000000000000000000000000000000000000c0")

	s := New(owner, memStore{})

	p, err := s.Price(ctx, asset)
	require.Nil(t, err)
	assert.True(t, p.IsZero())

	err = s.SetPrice(ctx, asset, asset, uint256.NewInt(1))
	assert.True(t, errors.Is(err, core.ErrNotOwner))

	err = s.SetPrice(ctx, owner, asset, new(uint256.Int))
	assert.True(t, errors.Is(err, core.ErrPriceMustBePositive))

	require.Nil(t, s.SetPrice(ctx, owner, asset, uint256.NewInt(5e17)))

	p, err = s.Price(ctx, asset)
	require.Nil(t, err)
	assert.Equal(t, "500000000000000000", p.Dec())

	prices, err := s.Prices(ctx)
	require.Nil(t, err)
	assert.Len(t, prices, 1)
}

func TestPullPriceTickers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tickers", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"asset":"0x00000000000000000000000000000000000000c0","symbol":"WETH","price":"1800.5"}]`))
	}))
	defer srv.Close()

	tickers, err := NewTickerService(srv.URL+"/").PullPriceTickers(context.Background())
	require.Nil(t, err)
	require.Len(t, tickers, 1)
	assert.Equal(t, "WETH", tickers[0].Symbol)
	assert.Equal(t, "1800.5", tickers[0].Price)
}
