package cmd

import (
	"lending/pkg/number"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "token balances and allowances",
}

var tokenMintCmd = &cobra.Command{
	Use:   "mint <asset> <to> <amount>",
	Short: "mint tokens, minter only",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		caller, err := callerFlag(cmd)
		if err != nil {
			return err
		}

		asset, err := addressArg(args[0])
		if err != nil {
			return err
		}

		to, err := addressArg(args[1])
		if err != nil {
			return err
		}

		amount, err := amountArg(args[2])
		if err != nil {
			return err
		}

		s := provideServices()
		defer s.Close()

		return s.tokens.Mint(cmd.Context(), caller, asset, to, amount)
	},
}

var tokenApproveCmd = &cobra.Command{
	Use:   "approve <asset> <spender> <amount>",
	Short: "let spender move the caller's tokens",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		caller, err := callerFlag(cmd)
		if err != nil {
			return err
		}

		asset, err := addressArg(args[0])
		if err != nil {
			return err
		}

		spender, err := addressArg(args[1])
		if err != nil {
			return err
		}

		amount, err := amountArg(args[2])
		if err != nil {
			return err
		}

		s := provideServices()
		defer s.Close()

		return s.tokens.Approve(cmd.Context(), asset, caller, spender, amount)
	},
}

var tokenBalanceCmd = &cobra.Command{
	Use:   "balance <asset> <owner>",
	Short: "print a token balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		asset, err := addressArg(args[0])
		if err != nil {
			return err
		}

		owner, err := addressArg(args[1])
		if err != nil {
			return err
		}

		s := provideServices()
		defer s.Close()

		balance, err := s.tokens.BalanceOf(cmd.Context(), asset, owner)
		if err != nil {
			return err
		}

		cmd.Println(number.FormatUnits(balance))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenMintCmd, tokenApproveCmd, tokenBalanceCmd)
	tokenMintCmd.Flags().String("as", "", "minter address")
	tokenApproveCmd.Flags().String("as", "", "owner address")
}
