package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Client exposes the underlying connection so the redis bank can share it
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// Apply TTL only for guest players
	var ttl time.Duration
	if player.IsGuest {
		ttl = s.cfg.GuestPlayerTTL
	}
	return s.client.Set(ctx, playerKey(player.ID), data, ttl).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var player model.Player
	if err := s.getJSON(ctx, playerKey(id), &player, model.ErrPlayerNotFound); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	return s.client.Del(ctx, playerKey(id)).Err()
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, registeredPlayerKey(rp.PlayerID), data, 0)
	pipe.Set(ctx, usernameIndexKey(rp.Username), string(rp.PlayerID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	var rp model.RegisteredPlayer
	if err := s.getJSON(ctx, registeredPlayerKey(playerID), &rp, model.ErrPlayerNotFound); err != nil {
		return nil, err
	}
	return &rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	// Look up player ID from username index
	playerIDStr, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	return s.GetRegisteredPlayer(ctx, model.PlayerID(playerIDStr))
}

// Game operations

func (s *Storage) NextGameID(ctx context.Context) (model.GameID, error) {
	id, err := s.client.Incr(ctx, gameCounterKey()).Uint64()
	if err != nil {
		return 0, err
	}
	return model.GameID(id), nil
}

func (s *Storage) LatestGameID(ctx context.Context) (model.GameID, error) {
	id, err := s.client.Get(ctx, gameCounterKey()).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return model.GameID(id), nil
}

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, gameKey(game.ID), data, 0).Err()
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	var game model.Game
	if err := s.getJSON(ctx, gameKey(id), &game, model.ErrGameNotFound); err != nil {
		return nil, err
	}
	return &game, nil
}

// Membership operations

func (s *Storage) GetMembership(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Membership, error) {
	var m model.Membership
	if err := s.getJSON(ctx, membershipKey(gameID, playerID), &m, model.ErrNotAJoinedPlayer); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Storage) GetPlayerGames(ctx context.Context, playerID model.PlayerID) ([]model.GameID, error) {
	vals, err := s.client.LRange(ctx, playerGamesKey(playerID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]model.GameID, 0, len(vals))
	for _, v := range vals {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("player %s game index: %w", playerID, err)
		}
		ids = append(ids, model.GameID(id))
	}
	return ids, nil
}

// Parameter operations

func (s *Storage) GetParams(ctx context.Context) (*model.GameParams, error) {
	var p model.GameParams
	if err := s.getJSON(ctx, paramsKey(), &p, model.ErrParamsNotSet); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Storage) SaveParams(ctx context.Context, params *model.GameParams) error {
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, paramsKey(), data, 0).Err()
}

// Apply writes the update inside a MULTI/EXEC transaction

func (s *Storage) Apply(ctx context.Context, u *storage.Update) error {
	var writes []func(redis.Pipeliner)

	if u.Game != nil {
		data, err := json.Marshal(u.Game)
		if err != nil {
			return err
		}
		key := gameKey(u.Game.ID)
		writes = append(writes, func(p redis.Pipeliner) {
			p.Set(ctx, key, data, 0)
		})
	}
	if u.DeleteMembership != nil {
		key := membershipKey(u.DeleteMembership.GameID, u.DeleteMembership.PlayerID)
		writes = append(writes, func(p redis.Pipeliner) {
			p.Del(ctx, key)
		})
	}
	if u.SaveMembership != nil {
		data, err := json.Marshal(u.SaveMembership)
		if err != nil {
			return err
		}
		key := membershipKey(u.SaveMembership.GameID, u.SaveMembership.PlayerID)
		writes = append(writes, func(p redis.Pipeliner) {
			p.Set(ctx, key, data, 0)
		})
	}
	// The index is a list edited in place, so MULTI/EXEC keeps concurrent
	// joins by the same player from overwriting each other.
	if k := u.IndexAdd; k != nil {
		key, member := playerGamesKey(k.PlayerID), indexMember(k.GameID)
		writes = append(writes, func(p redis.Pipeliner) {
			p.LRem(ctx, key, 0, member)
			p.RPush(ctx, key, member)
		})
	}
	if k := u.IndexRemove; k != nil {
		key, member := playerGamesKey(k.PlayerID), indexMember(k.GameID)
		writes = append(writes, func(p redis.Pipeliner) {
			p.LRem(ctx, key, 0, member)
		})
	}

	if len(writes) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, w := range writes {
			w(pipe)
		}
		return nil
	})
	return err
}

func indexMember(id model.GameID) string {
	return strconv.FormatUint(uint64(id), 10)
}

// getJSON loads and decodes a key, returning notFound when it is missing
func (s *Storage) getJSON(ctx context.Context, key string, dst any, notFound error) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, dst)
}
