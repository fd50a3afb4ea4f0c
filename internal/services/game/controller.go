package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mcoot/bingopot/internal/dependencies/clock"
	"github.com/mcoot/bingopot/internal/dependencies/random"
	"github.com/mcoot/bingopot/internal/dependencies/token"
	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/services/board"
	"github.com/mcoot/bingopot/internal/services/ledger"
	"github.com/mcoot/bingopot/internal/services/registry"
	"github.com/mcoot/bingopot/internal/services/win"
	"github.com/mcoot/bingopot/internal/storage"
)

// MinDraws is the fewest numbers that must be drawn before any board can be checked
const MinDraws = 4

// CheckResult describes a board check
type CheckResult struct {
	Board        model.Board
	NewlyMarked  int
	Won          bool
	WinningLines []win.Line
	Payout       model.Amount
}

// Controller drives games through Open, Drawing and Ended.
// Every mutation of a game runs under that game's lock.
type Controller struct {
	storage  storage.Storage
	registry *registry.Service
	ledger   *ledger.Service
	vault    token.Vault
	clock    clock.Clock
	random   random.Random
	notifier Notifier
	logger   *slog.Logger
	locks    *gameLocks
}

// NewController creates a new GameController
func NewController(
	storage storage.Storage,
	registry *registry.Service,
	ledger *ledger.Service,
	vault token.Vault,
	clock clock.Clock,
	random random.Random,
	notifier Notifier,
	logger *slog.Logger,
) *Controller {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Controller{
		storage:  storage,
		registry: registry,
		ledger:   ledger,
		vault:    vault,
		clock:    clock,
		random:   random,
		notifier: notifier,
		logger:   logger,
		locks:    newGameLocks(),
	}
}

// StartGame opens a new game. Anyone may start one.
func (c *Controller) StartGame(ctx context.Context) (*model.Game, error) {
	game, err := c.registry.CreateGame(ctx)
	if err != nil {
		return nil, err
	}

	c.publish(ctx, model.EventGameStarted, game.ID, "", model.GameStartedPayload{
		StartTime: game.StartTime,
		EndTime:   game.EndTime,
		EntryFee:  game.Params.EntryFee,
	})
	return game, nil
}

// GetGame retrieves a game by ID
func (c *Controller) GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	return c.registry.GetGame(ctx, gameID)
}

// JoinGame pays the entry fee on the player's behalf and deals them a board
func (c *Controller) JoinGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Membership, error) {
	ctx, release, err := c.locks.acquire(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer release()

	m, game, err := c.ledger.Join(ctx, gameID, playerID)
	if err != nil {
		return nil, err
	}

	c.publish(ctx, model.EventPlayerJoined, gameID, playerID, model.PlayerJoinedPayload{
		Board: m.Board,
		Pot:   game.Pot,
	})
	return m, nil
}

// LeaveGame refunds the player's entry fee during the join window
func (c *Controller) LeaveGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error {
	ctx, release, err := c.locks.acquire(ctx, gameID)
	if err != nil {
		return err
	}
	defer release()

	game, err := c.ledger.Leave(ctx, gameID, playerID)
	if err != nil {
		return err
	}

	c.publish(ctx, model.EventPlayerLeft, gameID, playerID, model.PlayerLeftPayload{
		Pot: game.Pot,
	})
	return nil
}

// DrawNumber draws the next number once the join window has closed and the turn has elapsed
func (c *Controller) DrawNumber(ctx context.Context, gameID model.GameID) (uint8, error) {
	ctx, release, err := c.locks.acquire(ctx, gameID)
	if err != nil {
		return 0, err
	}
	defer release()

	game, err := c.registry.GetGame(ctx, gameID)
	if err != nil {
		return 0, err
	}
	if game.Ended {
		return 0, model.ErrGameEnded
	}

	now := c.clock.Now()
	if !now.After(game.EndTime) {
		return 0, model.ErrJoinWindowStillOpen
	}
	if now.Before(game.LastDrawTime.Add(game.Params.TurnDuration)) {
		return 0, model.ErrTurnTooSoon
	}

	number := board.DrawNumber(c.random.NextSeed())
	game.NumbersDrawn = append(game.NumbersDrawn, number)
	game.LastDrawTime = now

	if err := c.storage.Apply(ctx, &storage.Update{Game: game}); err != nil {
		c.logger.Error("failed to save draw",
			slog.Uint64("game_id", uint64(gameID)),
			slog.String("error", err.Error()),
		)
		return 0, err
	}

	c.logger.Info("number drawn",
		slog.Uint64("game_id", uint64(gameID)),
		slog.Int("number", int(number)),
		slog.Int("draw_count", len(game.NumbersDrawn)),
	)
	c.publish(ctx, model.EventNumberDrawn, gameID, "", model.NumberDrawnPayload{
		Number:    number,
		DrawCount: len(game.NumbersDrawn),
	})
	return number, nil
}

// CheckBoard marks the player's board against every drawn number and pays out
// the whole pot if a line is complete. The first winning check ends the game.
func (c *Controller) CheckBoard(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*CheckResult, error) {
	ctx, release, err := c.locks.acquire(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer release()

	game, err := c.registry.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Ended {
		return nil, model.ErrGameEnded
	}
	membership, err := c.storage.GetMembership(ctx, gameID, playerID)
	if err != nil {
		return nil, err
	}
	if !membership.Joined {
		return nil, model.ErrNotAJoinedPlayer
	}
	if !c.clock.Now().After(game.EndTime) {
		return nil, model.ErrJoinWindowStillOpen
	}
	if len(game.NumbersDrawn) == 0 {
		return nil, model.ErrNoNumbersDrawnYet
	}
	if len(game.NumbersDrawn) < MinDraws {
		return nil, model.ErrInsufficientDraws
	}

	previousMembership := membership.Clone()
	marked, newly := board.Mark(membership.Board, game.NumbersDrawn)
	membership.Board = marked

	result := &CheckResult{
		Board:        marked,
		NewlyMarked:  newly,
		WinningLines: win.WinningLines(marked),
	}

	if len(result.WinningLines) == 0 {
		if newly > 0 {
			if err := c.storage.Apply(ctx, &storage.Update{SaveMembership: membership}); err != nil {
				return nil, err
			}
		}
		c.logger.Info("board checked",
			slog.Uint64("game_id", uint64(gameID)),
			slog.String("player_id", string(playerID)),
			slog.Int("newly_marked", newly),
		)
		return result, nil
	}

	if err := c.settle(ctx, game, membership, previousMembership); err != nil {
		return nil, err
	}

	result.Won = true
	result.Payout = game.Pot
	return result, nil
}

// settle records the winner, then pays the pot. The game is committed as ended
// before the transfer so any call arriving during it observes the end.
func (c *Controller) settle(ctx context.Context, game *model.Game, winner, previousWinner *model.Membership) error {
	previousGame := game.Clone()
	game.Ended = true
	game.Winner = winner.PlayerID

	if err := c.storage.Apply(ctx, &storage.Update{Game: game, SaveMembership: winner}); err != nil {
		c.logger.Error("failed to record winner",
			slog.Uint64("game_id", uint64(game.ID)),
			slog.String("error", err.Error()),
		)
		return err
	}

	c.locks.setSettling(game.ID, true)
	defer c.locks.setSettling(game.ID, false)

	if err := c.vault.TransferOut(ctx, winner.PlayerID, game.Pot); err != nil {
		c.logger.Warn("payout failed, reopening game",
			slog.Uint64("game_id", uint64(game.ID)),
			slog.String("player_id", string(winner.PlayerID)),
			slog.Uint64("pot", uint64(game.Pot)),
			slog.String("error", err.Error()),
		)
		restoreErr := c.storage.Apply(ctx, &storage.Update{Game: previousGame, SaveMembership: previousWinner})
		if restoreErr != nil {
			c.logger.Error("failed to reopen game after payout failure",
				slog.Uint64("game_id", uint64(game.ID)),
				slog.String("error", restoreErr.Error()),
			)
		}
		return fmt.Errorf("pay winner: %w", err)
	}

	c.logger.Info("game won",
		slog.Uint64("game_id", uint64(game.ID)),
		slog.String("player_id", string(winner.PlayerID)),
		slog.Uint64("pot", uint64(game.Pot)),
	)
	c.publish(ctx, model.EventPlayerWon, game.ID, winner.PlayerID, model.PlayerWonPayload{
		Amount: game.Pot,
	})
	return nil
}

// DrawDue draws for every game whose next draw is due and returns how many numbers were drawn
func (c *Controller) DrawDue(ctx context.Context) (int, error) {
	games, err := c.registry.ListGames(ctx, model.GameStateDrawing)
	if err != nil {
		return 0, err
	}

	now := c.clock.Now()
	drawn := 0
	for _, g := range games {
		if now.Before(g.LastDrawTime.Add(g.Params.TurnDuration)) {
			continue
		}
		if _, err := c.DrawNumber(ctx, g.ID); err != nil {
			// Lost a race with a manual draw or a win
			if errors.Is(err, model.ErrTurnTooSoon) || errors.Is(err, model.ErrGameEnded) {
				continue
			}
			c.logger.Warn("scheduled draw failed",
				slog.Uint64("game_id", uint64(g.ID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		drawn++
	}
	return drawn, nil
}

func (c *Controller) publish(ctx context.Context, t model.EventType, gameID model.GameID, playerID model.PlayerID, payload any) {
	c.notifier.Publish(ctx, model.Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: c.clock.Now(),
		GameID:    gameID,
		PlayerID:  playerID,
		Payload:   payload,
	})
}
