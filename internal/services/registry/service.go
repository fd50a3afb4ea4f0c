package registry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/bingopot/internal/dependencies/clock"
	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/storage"
)

// Config holds registry settings fixed at deploy time
type Config struct {
	// Configurator is the only player allowed to change game parameters.
	// Empty means nobody can.
	Configurator model.PlayerID

	// Defaults apply until the configurator stores parameters
	Defaults model.GameParams
}

// DefaultConfig returns a registry config with default game parameters and no configurator
func DefaultConfig() Config {
	return Config{
		Defaults: model.DefaultGameParams(),
	}
}

// Service allocates games and owns the configurable game parameters
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	cfg     Config
	logger  *slog.Logger
}

// New creates a new registry Service
func New(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
	}
}

// Configurator returns the player allowed to change game parameters
func (s *Service) Configurator() model.PlayerID {
	return s.cfg.Configurator
}

// IsConfigurator reports whether the caller is the configurator
func (s *Service) IsConfigurator(caller model.PlayerID) bool {
	return s.cfg.Configurator != "" && caller == s.cfg.Configurator
}

// Params returns the parameters new games will be created with
func (s *Service) Params(ctx context.Context) (model.GameParams, error) {
	p, err := s.storage.GetParams(ctx)
	if err != nil {
		if errors.Is(err, model.ErrParamsNotSet) {
			return s.cfg.Defaults, nil
		}
		return model.GameParams{}, err
	}
	return *p, nil
}

// SetParams replaces the game parameters. Existing games keep the values they were created with.
func (s *Service) SetParams(ctx context.Context, caller model.PlayerID, params model.GameParams) error {
	if !s.IsConfigurator(caller) {
		return model.ErrNotConfigurator
	}
	if err := params.Validate(); err != nil {
		return err
	}
	if err := s.storage.SaveParams(ctx, &params); err != nil {
		s.logger.Error("failed to save params", slog.String("error", err.Error()))
		return err
	}

	s.logger.Info("game params updated",
		slog.Duration("join_window", params.JoinWindow),
		slog.Duration("turn_duration", params.TurnDuration),
		slog.Uint64("entry_fee", uint64(params.EntryFee)),
	)
	return nil
}

// CreateGame allocates the next game ID and opens its join window
func (s *Service) CreateGame(ctx context.Context) (*model.Game, error) {
	params, err := s.Params(ctx)
	if err != nil {
		return nil, err
	}

	id, err := s.storage.NextGameID(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	game := &model.Game{
		ID:        id,
		StartTime: now,
		EndTime:   now.Add(params.JoinWindow),
		Params:    params,
	}

	if err := s.storage.SaveGame(ctx, game); err != nil {
		s.logger.Error("failed to save game",
			slog.Uint64("game_id", uint64(id)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("game created",
		slog.Uint64("game_id", uint64(id)),
		slog.Time("end_time", game.EndTime),
		slog.Uint64("entry_fee", uint64(params.EntryFee)),
	)
	return game, nil
}

// GetGame returns a game. IDs beyond the latest allocated one are not found.
func (s *Service) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	latest, err := s.storage.LatestGameID(ctx)
	if err != nil {
		return nil, err
	}
	if id == 0 || id > latest {
		return nil, model.ErrGameNotFound
	}
	return s.storage.GetGame(ctx, id)
}

// LatestGameID returns the most recently allocated game ID, or 0 before the first game
func (s *Service) LatestGameID(ctx context.Context) (model.GameID, error) {
	return s.storage.LatestGameID(ctx)
}

// Draws returns the numbers drawn so far, in draw order
func (s *Service) Draws(ctx context.Context, id model.GameID) ([]uint8, error) {
	game, err := s.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if game.NumbersDrawn == nil {
		return []uint8{}, nil
	}
	return game.NumbersDrawn, nil
}

// ListGames returns all games, optionally only those in the given state, oldest first
func (s *Service) ListGames(ctx context.Context, state model.GameState) ([]*model.Game, error) {
	latest, err := s.storage.LatestGameID(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	games := make([]*model.Game, 0)
	for id := model.GameID(1); id <= latest; id++ {
		game, err := s.storage.GetGame(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrGameNotFound) {
				continue // ID allocated but save failed
			}
			return nil, err
		}
		if state != "" && game.State(now) != state {
			continue
		}
		games = append(games, game)
	}
	return games, nil
}
