package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Error codes the draw command retries on with --wait
const (
	codeTurnTooSoon         = "TURN_TOO_SOON"
	codeJoinWindowStillOpen = "JOIN_WINDOW_STILL_OPEN"
)

const minDrawRetryDelay = 50 * time.Millisecond

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameStartCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameListCmd())
	cmd.AddCommand(newGameJoinCmd())
	cmd.AddCommand(newGameLeaveCmd())
	cmd.AddCommand(newGameDrawCmd())
	cmd.AddCommand(newGameCheckCmd())
	cmd.AddCommand(newGameDrawsCmd())
	cmd.AddCommand(newGameBoardCmd())
	cmd.AddCommand(newGameJoinedCmd())

	return cmd
}

// parseGameID validates a game ID argument
func parseGameID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid game id %q", arg)
	}
	return id, nil
}

func newGameStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a new game with the current parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Game

			if err := client.Post("/api/v1/games", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			var result Game

			if err := client.Get(fmt.Sprintf("/api/v1/games/%d", id), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameListCmd() *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List games, optionally by state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/games"
			if state != "" {
				path += "?state=" + url.QueryEscape(state)
			}

			var result []Game

			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Filter by state: open, drawing, ended")

	return cmd
}

func newGameJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <id>",
		Short: "Pay the entry fee and receive a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			var result Membership

			if err := client.Post(fmt.Sprintf("/api/v1/games/%d/join", id), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <id>",
		Short: "Leave a game during its join window and get the entry fee back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			if err := client.Post(fmt.Sprintf("/api/v1/games/%d/leave", id), nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Left game %d", id))
			return nil
		},
	}
}

func newGameDrawCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "draw <id>",
		Short: "Draw the next number once it is due",
		Long: `Draw the next number once it is due.

With --wait, a draw that is not due yet is retried at the game's next_draw_at
until the wait runs out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			deadline := time.Now().Add(wait)
			for {
				var result DrawResult
				drawErr := client.Post(fmt.Sprintf("/api/v1/games/%d/draw", id), nil, &result)
				if drawErr == nil {
					out := NewOutput(cfg.Output)
					out.Print(result)
					return nil
				}
				if wait <= 0 || !IsCode(drawErr, codeTurnTooSoon, codeJoinWindowStillOpen) {
					return drawErr
				}

				var game Game
				if err := client.Get(fmt.Sprintf("/api/v1/games/%d", id), &game); err != nil {
					return err
				}
				delay := drawRetryDelay(game.NextDrawAt, time.Now())
				if time.Now().Add(delay).After(deadline) {
					return drawErr
				}
				time.Sleep(delay)
			}
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Keep retrying until the draw is due, for at most this long")

	return cmd
}

// drawRetryDelay is how long to sleep before retrying a draw that was not due
func drawRetryDelay(nextDrawAt *time.Time, now time.Time) time.Duration {
	if nextDrawAt == nil {
		return time.Second
	}
	// Clocks differ slightly between client and server
	return max(nextDrawAt.Sub(now), 0) + minDrawRetryDelay
}

func newGameCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <id>",
		Short: "Mark your board against the drawn numbers and claim the pot on a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			var result CheckResult

			if err := client.Post(fmt.Sprintf("/api/v1/games/%d/check", id), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameDrawsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "draws <id>",
		Short: "Show the numbers drawn so far",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			var result Draws

			if err := client.Get(fmt.Sprintf("/api/v1/games/%d/draws", id), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameBoardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board <id> [player-id]",
		Short: "Show a player's board (defaults to you)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			playerID, err := playerArg(args[1:])
			if err != nil {
				return err
			}

			var result Board

			if err := client.Get(fmt.Sprintf("/api/v1/games/%d/players/%s/board", id, url.PathEscape(playerID)), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameJoinedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "joined <id> [player-id]",
		Short: "Check whether a player has joined a game (defaults to you)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			playerID, err := playerArg(args[1:])
			if err != nil {
				return err
			}

			var result Joined

			if err := client.Get(fmt.Sprintf("/api/v1/games/%d/players/%s/joined", id, url.PathEscape(playerID)), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
