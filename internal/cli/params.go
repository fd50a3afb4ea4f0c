package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Game parameter commands",
	}

	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())

	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the parameters new games are created with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ConfigResult

			if err := client.Get("/api/v1/config", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var joinWindow, turnDuration time.Duration
	var entryFee uint64

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the game parameters (configurator only)",
		Long: `Change the parameters used by games started from now on.
Games already started keep the parameters they were created with.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if joinWindow < 0 || turnDuration < 0 {
				return fmt.Errorf("durations must not be negative")
			}

			req := map[string]any{
				"join_window":   joinWindow.String(),
				"turn_duration": turnDuration.String(),
				"entry_fee":     entryFee,
			}
			var result ConfigResult

			if err := client.Put("/api/v1/config", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&joinWindow, "join-window", 30*time.Minute, "How long players may join after a game starts")
	cmd.Flags().DurationVar(&turnDuration, "turn", 10*time.Minute, "Minimum time between draws")
	cmd.Flags().Uint64Var(&entryFee, "fee", 100, "Entry fee in tokens")

	return cmd
}
