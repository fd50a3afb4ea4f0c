package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWalletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Token wallet commands",
	}

	cmd.AddCommand(newWalletBalanceCmd())
	cmd.AddCommand(newWalletMintCmd())

	return cmd
}

func newWalletBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show your token balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Wallet

			if err := client.Get("/api/v1/wallet", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newWalletMintCmd() *cobra.Command {
	var playerID string
	var amount uint64

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Credit tokens to a player (configurator only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if playerID == "" || amount == 0 {
				return fmt.Errorf("--player and a positive --amount are required")
			}

			req := map[string]any{
				"player_id": playerID,
				"amount":    amount,
			}
			var result Wallet

			if err := client.Post("/api/v1/wallet/mint", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&playerID, "player", "", "Player ID to credit (required)")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "Amount to credit (required)")
	_ = cmd.MarkFlagRequired("player")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
