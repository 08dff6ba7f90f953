package cmd

import (
	"lending/config"
	"lending/service/oracle"
	"lending/worker"
	"lending/worker/executor"
	"lending/worker/pricefeed"
	"lending/worker/risk"

	"github.com/drone/signal"
	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "run the timelock executor, risk scanner and price puller",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := signal.WithContext(cmd.Context())
		log := logger.FromContext(ctx)
		ctx = logger.WithContext(ctx, log)

		s := provideServices()
		defer s.Close()

		jobs := []*worker.BaseJob{}

		exec := executor.New(s.governor, config.Address(cfg.Roles.Proposer), s.property)
		if err := exec.Schedule(cfg.App.Location, cfg.Timelock.Schedule); err != nil {
			return err
		}
		jobs = append(jobs, &exec.BaseJob)

		scanner := risk.New(s.store, s.ledger)
		if err := scanner.Schedule(cfg.App.Location, cfg.Risk.Schedule); err != nil {
			return err
		}
		jobs = append(jobs, &scanner.BaseJob)

		if cfg.Oracle.Endpoint != "" {
			puller := pricefeed.New(oracle.NewTickerService(cfg.Oracle.Endpoint), s.oracle, config.Address(cfg.Roles.Owner))
			if err := puller.Schedule(cfg.App.Location, cfg.Oracle.Schedule); err != nil {
				return err
			}
			jobs = append(jobs, &puller.BaseJob)
		}

		g, ctx := errgroup.WithContext(ctx)
		for _, job := range jobs {
			var w worker.Worker = job
			g.Go(func() error {
				return w.Run(ctx)
			})
		}

		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
