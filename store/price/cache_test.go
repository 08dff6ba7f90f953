package price

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"lending/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	mu     sync.Mutex
	finds  int32
	prices map[common.Address]*core.Price
}

func (s *countingStore) Find(_ context.Context, asset common.Address) (*core.Price, error) {
	atomic.AddInt32(&s.finds, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prices[asset], nil
}

func (s *countingStore) Save(_ context.Context, p *core.Price) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[p.Asset] = p
	return nil
}

func (s *countingStore) All(_ context.Context) ([]*core.Price, error) {
	return nil, nil
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	asset := common.HexToAddress("0x00000000000000000000000000000000000000c0")

	backend := &countingStore{prices: map[common.Address]*core.Price{}}
	store := Cache(backend, 16)

	p, err := store.Find(ctx, asset)
	require.Nil(t, err)
	assert.Nil(t, p)

	require.Nil(t, store.Save(ctx, &core.Price{Asset: asset, Price: uint256.NewInt(7)}))

	for i := 0; i < 3; i++ {
		p, err = store.Find(ctx, asset)
		require.Nil(t, err)
		assert.Equal(t, "7", p.Price.Dec())
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&backend.finds))

	require.Nil(t, store.Save(ctx, &core.Price{Asset: asset, Price: uint256.NewInt(9)}))

	p, err = store.Find(ctx, asset)
	require.Nil(t, err)
	assert.Equal(t, "9", p.Price.Dec())
}
