package ledger

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"

	"lending/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type memStore struct {
	mu         sync.Mutex
	market     *core.Market
	accounts   map[common.Address]*core.Account
	events     []*core.Event
	failCommit error

	// onFindAccount runs after each account read, outside the lock
	onFindAccount func()
}

func newMemStore() *memStore {
	return &memStore{accounts: map[common.Address]*core.Account{}}
}

func (s *memStore) AppendEvents(_ context.Context, events []*core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendEvents(events)
	return nil
}

func (s *memStore) appendEvents(events []*core.Event) {
	for _, e := range events {
		e.Seq = int64(len(s.events) + 1)
		s.events = append(s.events, e)
	}
}

func (s *memStore) FindMarket(_ context.Context) (*core.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.market == nil {
		return nil, core.ErrMarketNotInitialized
	}

	return s.market.Clone(), nil
}

func (s *memStore) CreateMarket(_ context.Context, market *core.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := market.Clone()
	m.Version = 1
	s.market = m
	return nil
}

func (s *memStore) FindAccount(_ context.Context, address common.Address) (*core.Account, error) {
	s.mu.Lock()
	a, ok := s.accounts[address]
	if ok {
		a = a.Clone()
	}

	// cleared while it runs so reads made by the hook do not trigger it again
	hook := s.onFindAccount
	s.onFindAccount = nil
	s.mu.Unlock()

	if hook != nil {
		hook()

		s.mu.Lock()
		s.onFindAccount = hook
		s.mu.Unlock()
	}

	if !ok {
		return nil, core.ErrAccountNotFound
	}

	return a, nil
}

func (s *memStore) ListAccounts(_ context.Context, after common.Address, limit int) ([]*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accounts []*core.Account
	for _, a := range s.accounts {
		if bytes.Compare(a.Address.Bytes(), after.Bytes()) > 0 {
			accounts = append(accounts, a.Clone())
		}
	}

	sort.Slice(accounts, func(i, j int) bool {
		return bytes.Compare(accounts[i].Address.Bytes(), accounts[j].Address.Bytes()) < 0
	})

	if len(accounts) > limit {
		accounts = accounts[:limit]
	}

	return accounts, nil
}

func (s *memStore) ListEvents(_ context.Context, fromSeq int64, limit int) ([]*core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []*core.Event
	for _, e := range s.events {
		if e.Seq >= fromSeq && len(events) < limit {
			events = append(events, e)
		}
	}

	return events, nil
}

func (s *memStore) Commit(_ context.Context, c *core.Commit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCommit != nil {
		return s.failCommit
	}

	if c.Market.Version != s.market.Version {
		return core.ErrOptimisticLock
	}

	for _, a := range c.Accounts {
		var version int64
		if stored, ok := s.accounts[a.Address]; ok {
			version = stored.Version
		}

		if a.Version != version {
			return core.ErrOptimisticLock
		}
	}

	m := c.Market.Clone()
	m.Version++
	s.market = m

	for _, a := range c.Accounts {
		stored := a.Clone()
		stored.Version++
		s.accounts[a.Address] = stored
	}

	s.appendEvents(c.Events)
	return nil
}

// seed writes an account as if it had been committed earlier
func (s *memStore) seed(a *core.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := a.Clone()
	stored.Version = 1
	s.accounts[a.Address] = stored
}

type memPrices struct {
	mu     sync.Mutex
	prices map[common.Address]*uint256.Int
}

func (p *memPrices) Price(_ context.Context, asset common.Address) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.prices[asset]; ok {
		return v.Clone(), nil
	}

	return new(uint256.Int), nil
}

func (p *memPrices) set(asset common.Address, price *uint256.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prices[asset] = price
}

var errTransferFailed = errors.New("transfer failed")

// memTokens balances per asset and owner, holder is the ledger itself
type memTokens struct {
	mu       sync.Mutex
	holder   common.Address
	balances map[common.Address]map[common.Address]*uint256.Int
	failOut  bool
}

func (m *memTokens) balance(asset, owner common.Address) *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.get(asset, owner).Clone()
}

func (m *memTokens) get(asset, owner common.Address) *uint256.Int {
	if m.balances[asset] == nil {
		m.balances[asset] = map[common.Address]*uint256.Int{}
	}

	b, ok := m.balances[asset][owner]
	if !ok {
		b = new(uint256.Int)
		m.balances[asset][owner] = b
	}

	return b
}

func (m *memTokens) mint(asset, to common.Address, amount *uint256.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.get(asset, to)
	b.Add(b, amount)
}

func (m *memTokens) move(asset, from, to common.Address, amount *uint256.Int) error {
	src := m.get(asset, from)
	if src.Lt(amount) {
		return core.ErrInsufficientFunds
	}

	dst := m.get(asset, to)
	src.Sub(src, amount)
	dst.Add(dst, amount)
	return nil
}

func (m *memTokens) TransferIn(_ context.Context, asset, from common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.move(asset, from, m.holder, amount)
}

func (m *memTokens) TransferOut(_ context.Context, asset, to common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failOut {
		return errTransferFailed
	}

	return m.move(asset, m.holder, to, amount)
}

func (m *memTokens) Reclaim(_ context.Context, asset, from common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.move(asset, from, m.holder, amount)
}
