package cmd

import (
	"context"

	"lending/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

type amountOp func(s *services) func(ctx context.Context, caller common.Address, amount *uint256.Int) ([]*core.Event, error)

func amountCommand(use, short string, op amountOp) *cobra.Command {
	c := &cobra.Command{
		Use:   use + " <amount>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := callerFlag(cmd)
			if err != nil {
				return err
			}

			amount, err := amountArg(args[0])
			if err != nil {
				return err
			}

			s := provideServices()
			defer s.Close()

			events, err := op(s)(cmd.Context(), caller, amount)
			if err != nil {
				return err
			}

			return printEvents(cmd, events)
		},
	}

	c.Flags().String("as", "", "caller address")
	return c
}

var liquidateCmd = &cobra.Command{
	Use:   "liquidate <borrower> <debt_to_cover>",
	Short: "repay part of an unhealthy position and seize collateral",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		caller, err := callerFlag(cmd)
		if err != nil {
			return err
		}

		borrower, err := addressArg(args[0])
		if err != nil {
			return err
		}

		amount, err := amountArg(args[1])
		if err != nil {
			return err
		}

		s := provideServices()
		defer s.Close()

		events, err := s.ledger.Liquidate(cmd.Context(), caller, borrower, amount)
		if err != nil {
			return err
		}

		return printEvents(cmd, events)
	},
}

var collectFeesCmd = &cobra.Command{
	Use:   "collect-fees",
	Short: "pay collected protocol fees to the fee collector",
	RunE: func(cmd *cobra.Command, args []string) error {
		caller, err := callerFlag(cmd)
		if err != nil {
			return err
		}

		s := provideServices()
		defer s.Close()

		events, err := s.ledger.CollectFees(cmd.Context(), caller)
		if err != nil {
			return err
		}

		return printEvents(cmd, events)
	},
}

func pauseCommand(use string, paused bool) *cobra.Command {
	c := &cobra.Command{
		Use:   use,
		Short: use + " the market",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := callerFlag(cmd)
			if err != nil {
				return err
			}

			s := provideServices()
			defer s.Close()

			events, err := s.ledger.SetPaused(cmd.Context(), caller, paused)
			if err != nil {
				return err
			}

			return printEvents(cmd, events)
		},
	}

	c.Flags().String("as", "", "pause admin address")
	return c
}

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "market state",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := provideServices()
		defer s.Close()

		market, err := s.ledger.GetMarket(cmd.Context())
		if err != nil {
			return err
		}

		return printJSON(cmd, market)
	},
}

var marketInitCmd = &cobra.Command{
	Use:   "init",
	Short: "create the market from config when missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := provideServices()
		defer s.Close()

		return s.ledger.Init(cmd.Context(), provideMarket())
	},
}

var accountCmd = &cobra.Command{
	Use:   "account <address>",
	Short: "account position, risk and interest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := addressArg(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		s := provideServices()
		defer s.Close()

		details, err := s.ledger.GetAccount(ctx, user)
		if err != nil {
			return err
		}

		risk, err := s.ledger.GetLiquidationRisk(ctx, user)
		if err != nil {
			return err
		}

		interest, err := s.ledger.GetInterestRateInfo(ctx, user)
		if err != nil {
			return err
		}

		return printJSON(cmd, map[string]interface{}{
			"account":  details,
			"risk":     risk,
			"interest": interest,
		})
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events [from] [limit]",
	Short: "list the event log",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, limit := int64(0), 100
		if len(args) > 0 {
			from = cast.ToInt64(args[0])
		}
		if len(args) > 1 {
			limit = cast.ToInt(args[1])
		}

		s := provideServices()
		defer s.Close()

		events, err := s.ledger.Events(cmd.Context(), from, limit)
		if err != nil {
			return err
		}

		return printEvents(cmd, events)
	},
}

func init() {
	rootCmd.AddCommand(
		amountCommand("deposit", "deposit collateral", func(s *services) func(context.Context, common.Address, *uint256.Int) ([]*core.Event, error) {
			return s.ledger.Deposit
		}),
		amountCommand("withdraw", "withdraw collateral", func(s *services) func(context.Context, common.Address, *uint256.Int) ([]*core.Event, error) {
			return s.ledger.Withdraw
		}),
		amountCommand("borrow", "borrow against collateral", func(s *services) func(context.Context, common.Address, *uint256.Int) ([]*core.Event, error) {
			return s.ledger.Borrow
		}),
		amountCommand("repay", "repay debt, interest first", func(s *services) func(context.Context, common.Address, *uint256.Int) ([]*core.Event, error) {
			return s.ledger.Repay
		}),
		liquidateCmd,
		collectFeesCmd,
		pauseCommand("pause", true),
		pauseCommand("unpause", false),
		marketCmd,
		accountCmd,
		eventsCmd,
	)

	marketCmd.AddCommand(marketInitCmd)
	liquidateCmd.Flags().String("as", "", "liquidator address")
	collectFeesCmd.Flags().String("as", "", "fee collector address")
}
