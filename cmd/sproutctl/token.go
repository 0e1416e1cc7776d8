package main

import (
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "token",
		Short: "Receipt token related commands",
	}

	approval := func(use, short string, approved bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <owner> <strategy-contract>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := newClient().SetTokenApproval(cmd.Context(), args[0], args[1], approved)
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			},
		}
	}

	subCmd.AddCommand(approval("approve", "Allow a strategy to mint and burn receipts.", true))
	subCmd.AddCommand(approval("revoke", "Withdraw a strategy's mint and burn rights.", false))

	return subCmd
}
