package risk

import (
	"context"
	"sync"

	"lending/core"
	"lending/worker"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

const pageSize = 200

// AccountLister pages accounts ordered by address
type AccountLister interface {
	ListAccounts(ctx context.Context, after common.Address, limit int) ([]*core.Account, error)
}

var (
	gaugeOnce    sync.Once
	liquidatable prometheus.Gauge
	borrowers    prometheus.Gauge
)

func registerGauges() {
	gaugeOnce.Do(func() {
		liquidatable = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lending",
			Subsystem: "risk",
			Name:      "liquidatable_accounts",
			Help:      "Accounts with a health factor below 1.0 at the last scan.",
		})
		borrowers = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lending",
			Subsystem: "risk",
			Name:      "borrowing_accounts",
			Help:      "Accounts carrying debt at the last scan.",
		})
		prometheus.MustRegister(liquidatable, borrowers)
	})
}

// Scanner walks every account with debt and reports liquidatable positions
type Scanner struct {
	worker.BaseJob
	accounts AccountLister
	ledger   core.LedgerService

	mu sync.Mutex
	// last liquidatable addresses found by the previous scan
	last []common.Address
}

// New new risk scanner
func New(accounts AccountLister, ledger core.LedgerService) *Scanner {
	registerGauges()

	w := &Scanner{
		accounts: accounts,
		ledger:   ledger,
	}

	w.Name = "risk"
	w.OnWork = w.onWork
	return w
}

// Liquidatable result of the last completed scan
func (w *Scanner) Liquidatable() []common.Address {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]common.Address(nil), w.last...)
}

func (w *Scanner) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx)

	var (
		after  common.Address
		found  []common.Address
		inDebt int
	)

	for {
		accounts, err := w.accounts.ListAccounts(ctx, after, pageSize)
		if err != nil {
			log.WithError(err).Errorln("ListAccounts")
			return err
		}

		for _, a := range accounts {
			after = a.Address
			if !a.HasDebt() {
				continue
			}

			inDebt++
			risk, err := w.ledger.GetLiquidationRisk(ctx, a.Address)
			if err != nil {
				log.WithError(err).WithField("account", a.Address.Hex()).Warnln("GetLiquidationRisk")
				continue
			}

			if risk.Liquidatable {
				found = append(found, a.Address)
				log.WithField("account", a.Address.Hex()).
					WithField("health_factor", risk.HealthFactor.Dec()).
					Infoln("position is liquidatable")
			}
		}

		if len(accounts) < pageSize {
			break
		}
	}

	liquidatable.Set(float64(len(found)))
	borrowers.Set(float64(inDebt))

	w.mu.Lock()
	w.last = found
	w.mu.Unlock()

	return nil
}
