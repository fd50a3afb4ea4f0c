package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/bingopot/internal/dependencies/clock"
	"github.com/mcoot/bingopot/internal/dependencies/random"
	"github.com/mcoot/bingopot/internal/dependencies/token"
	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/services/board"
	"github.com/mcoot/bingopot/internal/storage"
)

// Service tracks which players have paid into which games.
// Join and Leave are not serialised here; callers hold the game's lock.
type Service struct {
	storage storage.Storage
	vault   token.Vault
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates a new ledger Service
func New(storage storage.Storage, vault token.Vault, clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		vault:   vault,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

// Join charges the entry fee, deals the player a board and adds the fee to the pot
func (s *Service) Join(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Membership, *model.Game, error) {
	game, err := s.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	if game.Ended {
		return nil, nil, model.ErrGameEnded
	}
	if _, err := s.storage.GetMembership(ctx, gameID, playerID); err == nil {
		return nil, nil, model.ErrAlreadyJoined
	} else if !errors.Is(err, model.ErrNotAJoinedPlayer) {
		return nil, nil, err
	}

	now := s.clock.Now()
	if now.After(game.EndTime) {
		return nil, nil, model.ErrJoinWindowClosed
	}

	fee := game.Params.EntryFee
	if err := s.vault.TransferIn(ctx, playerID, fee); err != nil {
		return nil, nil, fmt.Errorf("collect entry fee: %w", err)
	}

	membership := &model.Membership{
		GameID:   gameID,
		PlayerID: playerID,
		Joined:   true,
		Board:    board.Generate(s.random.NextSeed()),
		JoinedAt: now,
	}
	game.Pot += fee
	key := membership.Key()

	err = s.storage.Apply(ctx, &storage.Update{
		Game:           game,
		SaveMembership: membership,
		IndexAdd:       &key,
	})
	if err != nil {
		s.logger.Error("failed to record join, refunding",
			slog.Uint64("game_id", uint64(gameID)),
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()),
		)
		if refundErr := s.vault.TransferOut(ctx, playerID, fee); refundErr != nil {
			s.logger.Error("refund after failed join did not complete",
				slog.Uint64("game_id", uint64(gameID)),
				slog.String("player_id", string(playerID)),
				slog.String("error", refundErr.Error()),
			)
		}
		return nil, nil, err
	}

	s.logger.Info("player joined",
		slog.Uint64("game_id", uint64(gameID)),
		slog.String("player_id", string(playerID)),
		slog.Uint64("pot", uint64(game.Pot)),
	)
	return membership, game, nil
}

// Leave refunds the entry fee and forfeits the player's board. Only allowed while the join window is open.
func (s *Service) Leave(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Game, error) {
	game, err := s.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	membership, err := s.storage.GetMembership(ctx, gameID, playerID)
	if err != nil {
		return nil, err
	}
	if !membership.Joined {
		return nil, model.ErrNotAJoinedPlayer
	}
	if !s.clock.Now().Before(game.EndTime) {
		return nil, model.ErrGameAlreadyStarted
	}

	previous := game.Clone()
	key := membership.Key()
	fee := game.Params.EntryFee
	game.Pot -= fee

	err = s.storage.Apply(ctx, &storage.Update{
		Game:             game,
		DeleteMembership: &key,
		IndexRemove:      &key,
	})
	if err != nil {
		return nil, err
	}

	if err := s.vault.TransferOut(ctx, playerID, fee); err != nil {
		s.logger.Warn("refund failed, restoring membership",
			slog.Uint64("game_id", uint64(gameID)),
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()),
		)
		restoreErr := s.storage.Apply(ctx, &storage.Update{
			Game:           previous,
			SaveMembership: membership,
			IndexAdd:       &key,
		})
		if restoreErr != nil {
			s.logger.Error("failed to restore membership after refund failure",
				slog.Uint64("game_id", uint64(gameID)),
				slog.String("player_id", string(playerID)),
				slog.String("error", restoreErr.Error()),
			)
		}
		return nil, fmt.Errorf("refund entry fee: %w", err)
	}

	s.logger.Info("player left",
		slog.Uint64("game_id", uint64(gameID)),
		slog.String("player_id", string(playerID)),
		slog.Uint64("pot", uint64(game.Pot)),
	)
	return game, nil
}

// HasJoined reports whether the player currently holds a seat in the game
func (s *Service) HasJoined(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (bool, error) {
	m, err := s.storage.GetMembership(ctx, gameID, playerID)
	if err != nil {
		if errors.Is(err, model.ErrNotAJoinedPlayer) {
			return false, nil
		}
		return false, err
	}
	return m.Joined, nil
}

// GetBoard returns the player's board for a game as last stored
func (s *Service) GetBoard(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (model.Board, error) {
	m, err := s.storage.GetMembership(ctx, gameID, playerID)
	if err != nil {
		return model.Board{}, err
	}
	return m.Board, nil
}

// PlayerGames returns the IDs of every game the player currently holds a seat in
func (s *Service) PlayerGames(ctx context.Context, playerID model.PlayerID) ([]model.GameID, error) {
	return s.storage.GetPlayerGames(ctx, playerID)
}

// ListWinnings sums the pots of every game in the player's index that the player won
func (s *Service) ListWinnings(ctx context.Context, playerID model.PlayerID) (model.Amount, error) {
	ids, err := s.storage.GetPlayerGames(ctx, playerID)
	if err != nil {
		return 0, err
	}

	var total model.Amount
	for _, id := range ids {
		game, err := s.storage.GetGame(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrGameNotFound) {
				continue
			}
			return 0, err
		}
		if game.Winner == playerID {
			total += game.Pot
		}
	}
	return total, nil
}
