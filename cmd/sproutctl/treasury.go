package main

import (
	"github.com/spf13/cobra"
)

func treasuryCmd() *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "treasury",
		Short: "Fee treasury related commands",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the proxy and fee state.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := newClient().Treasury(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, view)
		},
	}
	withdrawFeesCmd := &cobra.Command{
		Use:   "withdraw-fees <owner>",
		Short: "Send the whole fee balance to the treasury owner.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().WithdrawFees(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	setStrategyCmd := &cobra.Command{
		Use:   "set-strategy <owner> <strategy>",
		Short: "Change the identity allowed to send fees.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().SetTreasuryStrategy(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	setProxyTargetCmd := &cobra.Command{
		Use:   "set-proxy-target <owner> <contract>",
		Short: "Upgrade the treasury proxy to a new implementation.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().SetProxyTarget(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	subCmd.AddCommand(showCmd)
	subCmd.AddCommand(withdrawFeesCmd)
	subCmd.AddCommand(setStrategyCmd)
	subCmd.AddCommand(setProxyTargetCmd)

	return subCmd
}
