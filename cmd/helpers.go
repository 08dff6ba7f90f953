package cmd

import (
	"encoding/json"
	"fmt"

	"lending/core"
	"lending/handler/views"
	"lending/pkg/number"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

func addressArg(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}

	return common.HexToAddress(s), nil
}

func callerFlag(cmd *cobra.Command) (common.Address, error) {
	as, _ := cmd.Flags().GetString("as")
	return addressArg(as)
}

func amountArg(s string) (*uint256.Int, error) {
	v, err := number.ParseUnits(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	return v, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}

	cmd.Println(string(data))
	return nil
}

func printEvents(cmd *cobra.Command, events []*core.Event) error {
	return printJSON(cmd, views.EventViews(events))
}
