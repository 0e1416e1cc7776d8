package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sprout-finance/sprout/internal/client"
	"github.com/sprout-finance/sprout/internal/config"
	"github.com/sprout-finance/sprout/internal/logger"
)

var apiURL string

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sproutctl",
		Short:        "Operate a running sproutd through its REST API.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Initialize("warn", nil)
			if apiURL == "" {
				if err := config.LoadEndpointConfig(); err != nil {
					return err
				}
				apiURL = config.APIURL
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&apiURL, "api", "", "sproutd base URL (default $SPROUT_API_URL or http://localhost:$WEB_PORT)")

	root.AddCommand(statusCmd())
	root.AddCommand(strategyCmd())
	root.AddCommand(treasuryCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(ammCmd())
	root.AddCommand(balancesCmd())
	root.AddCommand(faucetCmd())
	root.AddCommand(actionsCmd())

	return root
}

func newClient() *client.Client {
	return client.New(apiURL)
}

// printJSON writes v as indented JSON to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func parseAmount(name, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an unsigned integer: %w", name, err)
	}
	return v, nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon health.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := newClient().Health(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, health)
		},
	}
}

func balancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balances <identity>",
		Short: "Show the balances of an address (address:0x…) or contract (contract:0x…).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().Balances(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func faucetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "faucet <identity> <asset> <amount>",
		Short: "Mint simulation funds to a wallet.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("amount", args[2])
			if err != nil {
				return err
			}
			if err := newClient().Faucet(cmd.Context(), args[0], args[1], amount); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "minted %d %s to %s\n", amount, args[1], args[0])
			return nil
		},
	}
}

func actionsCmd() *cobra.Command {
	var limit int
	actions := &cobra.Command{
		Use:   "actions",
		Short: "List recently recorded transactions.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().Actions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	actions.Flags().IntVar(&limit, "limit", 20, "number of receipts to show")

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Show success and failure counts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().ActionSummary(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	actions.AddCommand(summary)
	return actions
}
