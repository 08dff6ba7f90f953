package balance

import (
	"context"
	"strings"
	"time"

	"lending/core"
	"lending/pkg/number"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store/db"
	"github.com/holiman/uint256"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

type balance struct {
	ID        int64           `sql:"PRIMARY_KEY"`
	Asset     string          `sql:"size:42;unique_index:idx_balances_asset_owner"`
	Owner     string          `sql:"size:42;unique_index:idx_balances_asset_owner"`
	Amount    decimal.Decimal `sql:"type:decimal(65,0)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (balance) TableName() string {
	return "balances"
}

type allowance struct {
	ID        int64           `sql:"PRIMARY_KEY"`
	Asset     string          `sql:"size:42;unique_index:idx_allowances_key"`
	Owner     string          `sql:"size:42;unique_index:idx_allowances_key"`
	Spender   string          `sql:"size:42;unique_index:idx_allowances_key"`
	Amount    decimal.Decimal `sql:"type:decimal(65,0)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (allowance) TableName() string {
	return "allowances"
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update()
		if err := tx.AutoMigrate(balance{}, allowance{}).Error; err != nil {
			return err
		}

		return nil
	})
}

type balanceStore struct {
	db *db.DB
}

// New new balance store
func New(db *db.DB) core.BalanceStore {
	return &balanceStore{db: db}
}

func key(a common.Address) string {
	return strings.ToLower(a.Hex())
}

func (s *balanceStore) Balance(ctx context.Context, asset, owner common.Address) (*uint256.Int, error) {
	var b balance
	if err := s.db.View().Where("asset = ? AND owner = ?", key(asset), key(owner)).Take(&b).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return new(uint256.Int), nil
		}

		return nil, err
	}

	return number.FromDecimal(b.Amount)
}

func (s *balanceStore) Allowance(ctx context.Context, asset, owner, spender common.Address) (*uint256.Int, error) {
	var a allowance
	if err := s.db.View().
		Where("asset = ? AND owner = ? AND spender = ?", key(asset), key(owner), key(spender)).
		Take(&a).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return new(uint256.Int), nil
		}

		return nil, err
	}

	return number.FromDecimal(a.Amount)
}

func (s *balanceStore) SetAllowance(ctx context.Context, asset, owner, spender common.Address, amount *uint256.Int) error {
	return s.db.Tx(func(tx *db.DB) error {
		r := tx.Update().Model(allowance{}).
			Where("asset = ? AND owner = ? AND spender = ?", key(asset), key(owner), key(spender)).
			Updates(map[string]interface{}{"amount": number.ToDecimal(amount)})
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected > 0 {
			return nil
		}

		return tx.Update().Create(&allowance{
			Asset:   key(asset),
			Owner:   key(owner),
			Spender: key(spender),
			Amount:  number.ToDecimal(amount),
		}).Error
	})
}

func (s *balanceStore) Move(ctx context.Context, m *core.Movement) error {
	amount := number.ToDecimal(m.Amount)

	return s.db.Tx(func(tx *db.DB) error {
		if m.Spender != nil {
			r := tx.Update().Model(allowance{}).
				Where("asset = ? AND owner = ? AND spender = ? AND amount >= ?", key(m.Asset), key(m.From), key(*m.Spender), amount).
				UpdateColumn("amount", gorm.Expr("amount - ?", amount))
			if r.Error != nil {
				return r.Error
			}

			if r.RowsAffected == 0 {
				return core.ErrInsufficientAllowance
			}
		}

		r := tx.Update().Model(balance{}).
			Where("asset = ? AND owner = ? AND amount >= ?", key(m.Asset), key(m.From), amount).
			UpdateColumn("amount", gorm.Expr("amount - ?", amount))
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected == 0 && !m.Amount.IsZero() {
			return core.ErrInsufficientFunds
		}

		return credit(tx, m.Asset, m.To, amount)
	})
}

func (s *balanceStore) Mint(ctx context.Context, asset, to common.Address, amount *uint256.Int) error {
	return s.db.Tx(func(tx *db.DB) error {
		return credit(tx, asset, to, number.ToDecimal(amount))
	})
}

func credit(tx *db.DB, asset, owner common.Address, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}

	r := tx.Update().Model(balance{}).
		Where("asset = ? AND owner = ?", key(asset), key(owner)).
		UpdateColumn("amount", gorm.Expr("amount + ?", amount))
	if r.Error != nil {
		return r.Error
	}

	if r.RowsAffected > 0 {
		return nil
	}

	return tx.Update().Create(&balance{
		Asset:  key(asset),
		Owner:  key(owner),
		Amount: amount,
	}).Error
}
