package price

import (
	"context"
	"strings"
	"time"

	"lending/core"
	"lending/pkg/number"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

type price struct {
	ID        int64           `sql:"PRIMARY_KEY"`
	Asset     string          `sql:"size:42;unique_index:idx_prices_asset"`
	Price     decimal.Decimal `sql:"type:decimal(65,0)"`
	Version   int64           `sql:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (price) TableName() string {
	return "prices"
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(price{})
		if err := tx.AutoMigrate(price{}).Error; err != nil {
			return err
		}

		return nil
	})
}

type priceStore struct {
	db *db.DB
}

// New new price store
func New(db *db.DB) core.PriceStore {
	return &priceStore{db: db}
}

func (s *priceStore) Find(ctx context.Context, asset common.Address) (*core.Price, error) {
	var p price
	if err := s.db.View().Where("asset = ?", strings.ToLower(asset.Hex())).Take(&p).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}

		return nil, err
	}

	return p.toPrice()
}

func (s *priceStore) Save(ctx context.Context, p *core.Price) error {
	row := price{
		Asset: strings.ToLower(p.Asset.Hex()),
		Price: number.ToDecimal(p.Price),
	}

	return s.db.Tx(func(tx *db.DB) error {
		var existing price
		err := tx.Update().Where("asset = ?", row.Asset).Take(&existing).Error
		if gorm.IsRecordNotFoundError(err) {
			row.Version = 1
			return tx.Update().Create(&row).Error
		}

		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"price":   row.Price,
			"version": existing.Version + 1,
		}

		return tx.Update().Model(existing).Where("version = ?", existing.Version).Updates(updates).Error
	})
}

func (s *priceStore) All(ctx context.Context) ([]*core.Price, error) {
	var rows []price
	if err := s.db.View().Order("asset").Find(&rows).Error; err != nil {
		return nil, err
	}

	prices := make([]*core.Price, 0, len(rows))
	for _, row := range rows {
		p, err := row.toPrice()
		if err != nil {
			return nil, err
		}

		prices = append(prices, p)
	}

	return prices, nil
}

func (p *price) toPrice() (*core.Price, error) {
	v, err := number.FromDecimal(p.Price)
	if err != nil {
		return nil, err
	}

	return &core.Price{
		Asset:     common.HexToAddress(p.Asset),
		Price:     v,
		UpdatedAt: p.UpdatedAt,
	}, nil
}
