package main

import (
	"github.com/spf13/cobra"
)

func strategyCmd() *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "strategy",
		Short: "Strategy related commands",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the strategy configuration and holdings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := newClient().Strategy(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, view)
		},
	}
	allocationCmd := &cobra.Command{
		Use:   "allocation <asset>",
		Short: "Show the target allocation of one asset.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alloc, err := newClient().Allocation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, alloc)
		},
	}
	depositCmd := &cobra.Command{
		Use:   "deposit <caller> <amount>",
		Short: "Deposit base asset and receive receipts.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return err
			}
			res, err := newClient().Deposit(cmd.Context(), args[0], amount)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	withdrawCmd := &cobra.Command{
		Use:   "withdraw <caller> <receipts>",
		Short: "Redeem receipts for base asset.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			receipts, err := parseAmount("receipts", args[1])
			if err != nil {
				return err
			}
			res, err := newClient().Withdraw(cmd.Context(), args[0], receipts)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	previewDepositCmd := &cobra.Command{
		Use:   "preview-deposit <amount>",
		Short: "Price a deposit without executing it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("amount", args[0])
			if err != nil {
				return err
			}
			plan, err := newClient().PreviewDeposit(cmd.Context(), amount)
			if err != nil {
				return err
			}
			return printJSON(cmd, plan)
		},
	}
	previewWithdrawCmd := &cobra.Command{
		Use:   "preview-withdraw <receipts>",
		Short: "Price a redemption without executing it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			receipts, err := parseAmount("receipts", args[0])
			if err != nil {
				return err
			}
			plan, err := newClient().PreviewWithdraw(cmd.Context(), receipts)
			if err != nil {
				return err
			}
			return printJSON(cmd, plan)
		},
	}
	setFeeCmd := &cobra.Command{
		Use:   "set-fee <owner> <bps>",
		Short: "Set the withdrawal fee in basis points.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bps, err := parseAmount("bps", args[1])
			if err != nil {
				return err
			}
			res, err := newClient().SetWithdrawalFee(cmd.Context(), args[0], bps)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	setSlippageCmd := &cobra.Command{
		Use:   "set-slippage <owner> <bps>",
		Short: "Set the slippage tolerance in basis points.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bps, err := parseAmount("bps", args[1])
			if err != nil {
				return err
			}
			res, err := newClient().SetSlippageTolerance(cmd.Context(), args[0], bps)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	setFeeTreasuryCmd := &cobra.Command{
		Use:   "set-fee-treasury <owner> [recipient]",
		Short: "Send withdrawal fees to a new recipient. Without a recipient fees stay in the strategy.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipient := ""
			if len(args) == 2 {
				recipient = args[1]
			}
			res, err := newClient().SetFeeTreasury(cmd.Context(), args[0], recipient)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	setOwnerCmd := &cobra.Command{
		Use:   "set-owner <owner> <new-owner>",
		Short: "Hand strategy ownership to another identity.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().SetStrategyOwner(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	setAMMCmd := &cobra.Command{
		Use:   "set-amm <owner> <contract>",
		Short: "Route strategy swaps through another AMM contract.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().SetAMMContract(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	setReceiptTokenCmd := &cobra.Command{
		Use:   "set-receipt-token <owner> [contract]",
		Short: "Issue receipts through another token contract. Without a contract the strategy issues its own.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			receiptToken := ""
			if len(args) == 2 {
				receiptToken = args[1]
			}
			res, err := newClient().SetReceiptToken(cmd.Context(), args[0], receiptToken)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	subCmd.AddCommand(showCmd)
	subCmd.AddCommand(allocationCmd)
	subCmd.AddCommand(depositCmd)
	subCmd.AddCommand(withdrawCmd)
	subCmd.AddCommand(previewDepositCmd)
	subCmd.AddCommand(previewWithdrawCmd)
	subCmd.AddCommand(setFeeCmd)
	subCmd.AddCommand(setSlippageCmd)
	subCmd.AddCommand(setFeeTreasuryCmd)
	subCmd.AddCommand(setOwnerCmd)
	subCmd.AddCommand(setAMMCmd)
	subCmd.AddCommand(setReceiptTokenCmd)

	return subCmd
}
