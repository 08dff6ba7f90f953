package cmd

import (
	"lending/config"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "api access tokens",
}

var authIssueCmd = &cobra.Command{
	Use:   "issue <address>",
	Short: "issue a bearer token for address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address, err := addressArg(args[0])
		if err != nil {
			return err
		}

		ttl := config.Duration(cfg.Auth.TokenTTL)
		if v, _ := cmd.Flags().GetDuration("ttl"); v > 0 {
			ttl = v
		}

		token, err := provideAuthenticator().Issue(address, ttl)
		if err != nil {
			return err
		}

		cmd.Println(token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authIssueCmd)
	authIssueCmd.Flags().Duration("ttl", 0, "token lifetime, default from config")
}
