package cmd

import (
	"lending/core"
	"lending/handler/views"

	"github.com/spf13/cobra"
)

var oracleCmd = &cobra.Command{
	Use:   "oracle",
	Short: "read and set asset prices",
}

var oracleSetCmd = &cobra.Command{
	Use:   "set <asset> <price>",
	Short: "set the usd price of an asset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		caller, err := callerFlag(cmd)
		if err != nil {
			return err
		}

		asset, err := addressArg(args[0])
		if err != nil {
			return err
		}

		price, err := amountArg(args[1])
		if err != nil {
			return err
		}

		s := provideServices()
		defer s.Close()

		return s.oracle.SetPrice(cmd.Context(), caller, asset, price)
	},
}

var oracleGetCmd = &cobra.Command{
	Use:   "get [asset]",
	Short: "print one or all prices",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := provideServices()
		defer s.Close()

		ctx := cmd.Context()
		if len(args) == 0 {
			prices, err := s.oracle.Prices(ctx)
			if err != nil {
				return err
			}

			items := make([]views.Price, len(prices))
			for i, p := range prices {
				items[i] = views.PriceView(p)
			}
			return printJSON(cmd, items)
		}

		asset, err := addressArg(args[0])
		if err != nil {
			return err
		}

		price, err := s.oracle.Price(ctx, asset)
		if err != nil {
			return err
		}

		return printJSON(cmd, views.PriceView(&core.Price{Asset: asset, Price: price}))
	},
}

func init() {
	rootCmd.AddCommand(oracleCmd)
	oracleCmd.AddCommand(oracleSetCmd, oracleGetCmd)
	oracleSetCmd.Flags().String("as", "", "owner address")
}
