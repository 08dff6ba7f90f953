package ledger

import (
	"context"
	"fmt"

	"lending/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
)

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update()
		if err := tx.AutoMigrate(market{}, account{}, event{}).Error; err != nil {
			return err
		}

		return nil
	})
}

type ledgerStore struct {
	db *db.DB
}

// New new ledger store
func New(db *db.DB) core.LedgerStore {
	return &ledgerStore{db: db}
}

func (s *ledgerStore) FindMarket(ctx context.Context) (*core.Market, error) {
	var m market
	if err := s.db.View().Where("id = ?", marketID).Take(&m).Error; err != nil {
		if store.IsErrNotFound(err) {
			return nil, core.ErrMarketNotInitialized
		}

		return nil, err
	}

	return m.toMarket()
}

func (s *ledgerStore) CreateMarket(ctx context.Context, m *core.Market) error {
	row := fromMarket(m)
	row.Version = 1
	if err := s.db.Update().Create(row).Error; err != nil {
		return err
	}

	m.Version = row.Version
	return nil
}

func (s *ledgerStore) FindAccount(ctx context.Context, address common.Address) (*core.Account, error) {
	var a account
	if err := s.db.View().Where("address = ?", addressKey(address)).Take(&a).Error; err != nil {
		if store.IsErrNotFound(err) {
			return nil, core.ErrAccountNotFound
		}

		return nil, err
	}

	return a.toAccount()
}

func (s *ledgerStore) ListAccounts(ctx context.Context, after common.Address, limit int) ([]*core.Account, error) {
	var rows []account
	if err := s.db.View().
		Where("address > ?", addressKey(after)).
		Order("address").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	accounts := make([]*core.Account, 0, len(rows))
	for i := range rows {
		a, err := rows[i].toAccount()
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, a)
	}

	return accounts, nil
}

func (s *ledgerStore) ListEvents(ctx context.Context, fromSeq int64, limit int) ([]*core.Event, error) {
	var rows []event
	if err := s.db.View().
		Where("seq >= ?", fromSeq).
		Order("seq").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]*core.Event, 0, len(rows))
	for i := range rows {
		e, err := rows[i].toEvent()
		if err != nil {
			return nil, err
		}

		events = append(events, e)
	}

	return events, nil
}

func (s *ledgerStore) AppendEvents(ctx context.Context, events []*core.Event) error {
	return s.db.Tx(func(tx *db.DB) error {
		return appendEvents(tx, events)
	})
}

func appendEvents(tx *db.DB, events []*core.Event) error {
	for _, e := range events {
		row, err := fromEvent(e)
		if err != nil {
			return err
		}

		if err := tx.Update().Create(row).Error; err != nil {
			return err
		}

		e.Seq = row.Seq
	}

	return nil
}

func (s *ledgerStore) Commit(ctx context.Context, c *core.Commit) error {
	return s.db.Tx(func(tx *db.DB) error {
		if c.Market != nil {
			if err := updateMarket(tx, c.Market); err != nil {
				return err
			}
		}

		for _, a := range c.Accounts {
			if err := saveAccount(tx, a); err != nil {
				return err
			}
		}

		return appendEvents(tx, c.Events)
	})
}

func updateMarket(tx *db.DB, m *core.Market) error {
	row := fromMarket(m)
	updates := map[string]interface{}{
		"total_deposits":        row.TotalDeposits,
		"total_borrows":         row.TotalBorrows,
		"collected_fees":        row.CollectedFees,
		"protocol_fee_rate":     row.ProtocolFeeRate,
		"collateral_factor":     row.CollateralFactor,
		"liquidation_threshold": row.LiquidationThreshold,
		"liquidation_bonus":     row.LiquidationBonus,
		"interest_rate":         row.InterestRate,
		"paused":                row.Paused,
		"version":               m.Version + 1,
	}

	r := tx.Update().Model(market{}).Where("id = ? AND version = ?", marketID, m.Version).Updates(updates)
	if r.Error != nil {
		return r.Error
	}

	if r.RowsAffected == 0 {
		return fmt.Errorf("market: %w", core.ErrOptimisticLock)
	}

	return nil
}

func saveAccount(tx *db.DB, a *core.Account) error {
	row := fromAccount(a)
	if a.Version == 0 {
		row.Version = 1
		return tx.Update().Create(row).Error
	}

	updates := map[string]interface{}{
		"collateral_deposited": row.CollateralDeposited,
		"amount_borrowed":      row.AmountBorrowed,
		"interest_accrued":     row.InterestAccrued,
		"last_update_time":     row.LastUpdateTime,
		"version":              a.Version + 1,
	}

	r := tx.Update().Model(account{}).Where("address = ? AND version = ?", row.Address, a.Version).Updates(updates)
	if r.Error != nil {
		return r.Error
	}

	if r.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", a.Address.Hex(), core.ErrOptimisticLock)
	}

	return nil
}
