package cmd

import (
	"lending/pkg/number"

	"github.com/spf13/cobra"
)

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "oracle priced token swaps",
}

var swapQuoteCmd = &cobra.Command{
	Use:   "quote <token_in> <token_out> <amount_in>",
	Short: "quote the output of a swap after fee",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		tokenIn, err := addressArg(args[0])
		if err != nil {
			return err
		}

		tokenOut, err := addressArg(args[1])
		if err != nil {
			return err
		}

		amountIn, err := amountArg(args[2])
		if err != nil {
			return err
		}

		s := provideServices()
		defer s.Close()

		out, err := s.swap.Quote(cmd.Context(), tokenIn, tokenOut, amountIn)
		if err != nil {
			return err
		}

		cmd.Println(number.FormatUnits(out))
		return nil
	},
}

var swapDoCmd = &cobra.Command{
	Use:   "do <token_in> <token_out> <amount_in> [min_amount_out]",
	Short: "swap token_in for token_out",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		trader, err := callerFlag(cmd)
		if err != nil {
			return err
		}

		tokenIn, err := addressArg(args[0])
		if err != nil {
			return err
		}

		tokenOut, err := addressArg(args[1])
		if err != nil {
			return err
		}

		amountIn, err := amountArg(args[2])
		if err != nil {
			return err
		}

		minOut := "0"
		if len(args) > 3 {
			minOut = args[3]
		}

		minAmountOut, err := amountArg(minOut)
		if err != nil {
			return err
		}

		s := provideServices()
		defer s.Close()

		out, err := s.swap.Swap(cmd.Context(), trader, tokenIn, tokenOut, amountIn, minAmountOut)
		if err != nil {
			return err
		}

		cmd.Println(number.FormatUnits(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(swapCmd)
	swapCmd.AddCommand(swapQuoteCmd, swapDoCmd)
	swapDoCmd.Flags().String("as", "", "trader address")
}
