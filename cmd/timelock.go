package cmd

import (
	"encoding/hex"
	"fmt"

	"lending/core"
	"lending/handler/views"
	"lending/pkg/calldata"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var timelockCmd = &cobra.Command{
	Use:   "timelock",
	Short: "queue, execute and cancel privileged calls",
}

// callFromArgs target, signature, arg and eta; the arg is encoded for the
// signature's single parameter
func callFromArgs(cmd *cobra.Command, args []string) (*core.Call, error) {
	target, err := addressArg(args[0])
	if err != nil {
		return nil, err
	}

	payload, err := calldata.Encode(args[1], args[2])
	if err != nil {
		return nil, err
	}

	eta, err := cast.ToInt64E(args[3])
	if err != nil {
		return nil, fmt.Errorf("invalid eta %q", args[3])
	}

	value := new(uint256.Int)
	if v, _ := cmd.Flags().GetString("value"); v != "" {
		if value, err = uint256.FromDecimal(v); err != nil {
			return nil, fmt.Errorf("invalid value %q", v)
		}
	}

	return &core.Call{
		Target:    target,
		Value:     value,
		Signature: args[1],
		Payload:   payload,
		Eta:       eta,
	}, nil
}

func callCommand(use, short string) *cobra.Command {
	c := &cobra.Command{
		Use:   use + " <target> <signature> <arg> <eta>",
		Short: short,
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := callerFlag(cmd)
			if err != nil {
				return err
			}

			call, err := callFromArgs(cmd, args)
			if err != nil {
				return err
			}

			s := provideServices()
			defer s.Close()

			ctx := cmd.Context()
			var events []*core.Event
			switch use {
			case "queue":
				id, queued, err := s.governor.Queue(ctx, caller, call)
				if err != nil {
					return err
				}
				cmd.Println("call id", id.Hex())
				events = queued
			case "execute":
				events, err = s.governor.Execute(ctx, caller, call)
			case "cancel":
				events, err = s.governor.Cancel(ctx, caller, call)
			}

			if err != nil {
				return err
			}

			return printEvents(cmd, events)
		},
	}

	c.Flags().String("as", "", "proposer address")
	c.Flags().String("value", "0", "call value in base units")
	return c
}

var timelockListCmd = &cobra.Command{
	Use:   "list",
	Short: "list queued calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := provideServices()
		defer s.Close()

		calls, err := s.governor.Pending(cmd.Context())
		if err != nil {
			return err
		}

		return printJSON(cmd, views.PendingCallViews(calls))
	},
}

var timelockEncodeCmd = &cobra.Command{
	Use:   "encode <signature> <arg>",
	Short: "abi encode the payload of a single parameter call",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := calldata.Encode(args[0], args[1])
		if err != nil {
			return err
		}

		cmd.Println(hexutil.Encode(payload))
		return nil
	},
}

var timelockHashCmd = &cobra.Command{
	Use:   "hash <target> <signature> <arg> <eta>",
	Short: "print the id of a call",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		call, err := callFromArgs(cmd, args)
		if err != nil {
			return err
		}

		id, err := call.Hash()
		if err != nil {
			return err
		}

		cmd.Println(id.Hex(), hex.EncodeToString(call.Payload))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(timelockCmd)
	timelockCmd.AddCommand(
		callCommand("queue", "queue a call for execution after the delay"),
		callCommand("execute", "execute a queued call inside its window"),
		callCommand("cancel", "cancel a queued call"),
		timelockListCmd,
		timelockEncodeCmd,
		timelockHashCmd,
	)
	timelockHashCmd.Flags().String("value", "0", "call value in base units")
}
