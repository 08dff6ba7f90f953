package price

import (
	"context"

	"lending/core"

	"github.com/bluele/gcache"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/singleflight"
)

// Cache wraps store with an lru cache. Concurrent misses for the same asset
// share one store read.
func Cache(store core.PriceStore, size int) core.PriceStore {
	return &cachePriceStore{
		PriceStore: store,
		cache:      gcache.New(size).LRU().Build(),
		sf:         &singleflight.Group{},
	}
}

type cachePriceStore struct {
	core.PriceStore
	cache gcache.Cache
	sf    *singleflight.Group
}

func (s *cachePriceStore) Find(ctx context.Context, asset common.Address) (*core.Price, error) {
	key := asset.Hex()
	if v, err := s.cache.Get(key); err == nil {
		if p, ok := v.(*core.Price); ok {
			return p, nil
		}
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		p, err := s.PriceStore.Find(ctx, asset)
		if err != nil {
			return nil, err
		}

		if p != nil {
			s.cache.Set(key, p)
		}

		return p, nil
	})
	if err != nil {
		return nil, err
	}

	p, _ := v.(*core.Price)
	return p, nil
}

func (s *cachePriceStore) Save(ctx context.Context, p *core.Price) error {
	s.cache.Remove(p.Asset.Hex())
	if err := s.PriceStore.Save(ctx, p); err != nil {
		return err
	}

	s.cache.Remove(p.Asset.Hex())
	return nil
}
