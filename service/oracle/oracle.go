package oracle

import (
	"context"

	"lending/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
)

// New new oracle service, owner is the only address allowed to set prices
func New(owner common.Address, store core.PriceStore) core.OracleService {
	return &oracleService{
		owner: owner,
		store: store,
	}
}

type oracleService struct {
	owner common.Address
	store core.PriceStore
}

// Price zero for assets never priced
func (s *oracleService) Price(ctx context.Context, asset common.Address) (*uint256.Int, error) {
	p, err := s.store.Find(ctx, asset)
	if err != nil {
		return nil, err
	}

	if p == nil {
		return new(uint256.Int), nil
	}

	return p.Price.Clone(), nil
}

func (s *oracleService) SetPrice(ctx context.Context, caller, asset common.Address, price *uint256.Int) error {
	if !core.HasRole(caller, s.owner) {
		return core.ErrNotOwner
	}

	if price == nil || price.IsZero() {
		return core.ErrPriceMustBePositive
	}

	if err := s.store.Save(ctx, &core.Price{Asset: asset, Price: price.Clone()}); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("save price")
		return err
	}

	logger.FromContext(ctx).
		WithField("asset", asset.Hex()).
		WithField("price", price.Dec()).
		Infoln("PriceUpdated")
	return nil
}

func (s *oracleService) Prices(ctx context.Context) ([]*core.Price, error) {
	return s.store.All(ctx)
}
