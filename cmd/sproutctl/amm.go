package main

import (
	"github.com/spf13/cobra"
)

func ammCmd() *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "amm",
		Short: "AMM related commands",
	}

	poolsCmd := &cobra.Command{
		Use:   "pools",
		Short: "List the AMM pools and their reserves.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().Pools(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	subCmd.AddCommand(poolsCmd)

	return subCmd
}
