package memory

import (
	"context"
	"sync"

	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Games and memberships are cloned on the way in and out so callers
// can never mutate stored state without going through Apply.
type Storage struct {
	mu sync.RWMutex

	players           map[model.PlayerID]*model.Player
	registeredPlayers map[model.PlayerID]*model.RegisteredPlayer
	usernameIndex     map[string]model.PlayerID
	games             map[model.GameID]*model.Game
	memberships       map[model.MembershipKey]*model.Membership
	playerGames       map[model.PlayerID][]model.GameID
	params            *model.GameParams
	lastGameID        model.GameID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:           make(map[model.PlayerID]*model.Player),
		registeredPlayers: make(map[model.PlayerID]*model.RegisteredPlayer),
		usernameIndex:     make(map[string]model.PlayerID),
		games:             make(map[model.GameID]*model.Game),
		memberships:       make(map[model.MembershipKey]*model.Membership),
		playerGames:       make(map[model.PlayerID][]model.GameID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *player
	s.players[player.ID] = &p
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	return nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *rp
	s.registeredPlayers[rp.PlayerID] = &r
	s.usernameIndex[rp.Username] = rp.PlayerID
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	r := *rp
	return &r, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	playerID, ok := s.usernameIndex[username]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return s.GetRegisteredPlayer(ctx, playerID)
}

// Game operations

func (s *Storage) NextGameID(ctx context.Context) (model.GameID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastGameID++
	return s.lastGameID, nil
}

func (s *Storage) LatestGameID(ctx context.Context) (model.GameID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastGameID, nil
}

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game.Clone()
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return game.Clone(), nil
}

// Membership operations

func (s *Storage) GetMembership(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[model.MembershipKey{GameID: gameID, PlayerID: playerID}]
	if !ok {
		return nil, model.ErrNotAJoinedPlayer
	}
	return m.Clone(), nil
}

func (s *Storage) GetPlayerGames(ctx context.Context, playerID model.PlayerID) ([]model.GameID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.playerGames[playerID]
	out := make([]model.GameID, len(ids))
	copy(out, ids)
	return out, nil
}

// Parameter operations

func (s *Storage) GetParams(ctx context.Context) (*model.GameParams, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.params == nil {
		return nil, model.ErrParamsNotSet
	}
	p := *s.params
	return &p, nil
}

func (s *Storage) SaveParams(ctx context.Context, params *model.GameParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *params
	s.params = &p
	return nil
}

// Apply writes every part of the update under a single lock

func (s *Storage) Apply(ctx context.Context, u *storage.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Game != nil {
		s.games[u.Game.ID] = u.Game.Clone()
	}
	if u.DeleteMembership != nil {
		delete(s.memberships, *u.DeleteMembership)
	}
	if u.SaveMembership != nil {
		s.memberships[u.SaveMembership.Key()] = u.SaveMembership.Clone()
	}
	if k := u.IndexAdd; k != nil && !containsGame(s.playerGames[k.PlayerID], k.GameID) {
		s.playerGames[k.PlayerID] = append(s.playerGames[k.PlayerID], k.GameID)
	}
	if k := u.IndexRemove; k != nil {
		s.playerGames[k.PlayerID] = removeGame(s.playerGames[k.PlayerID], k.GameID)
	}
	return nil
}

func containsGame(ids []model.GameID, id model.GameID) bool {
	for _, g := range ids {
		if g == id {
			return true
		}
	}
	return false
}

// removeGame drops id by swapping in the last element; order is not preserved
func removeGame(ids []model.GameID, id model.GameID) []model.GameID {
	for i, g := range ids {
		if g == id {
			last := len(ids) - 1
			ids[i] = ids[last]
			return ids[:last]
		}
	}
	return ids
}
