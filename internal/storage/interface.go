package storage

import (
	"context"

	"github.com/mcoot/bingopot/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Registered player operations
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)

	// Game operations
	NextGameID(ctx context.Context) (model.GameID, error)
	LatestGameID(ctx context.Context) (model.GameID, error)
	SaveGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)

	// Membership operations
	GetMembership(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Membership, error)
	GetPlayerGames(ctx context.Context, playerID model.PlayerID) ([]model.GameID, error)

	// Parameter operations
	GetParams(ctx context.Context) (*model.GameParams, error)
	SaveParams(ctx context.Context, params *model.GameParams) error

	// Apply commits every part of the update or none of it
	Apply(ctx context.Context, u *Update) error
}

// Update is a set of writes committed together by Storage.Apply.
// Nil fields are left untouched.
//
// Index changes are applied against the stored index at commit time, so
// concurrent updates for one player in different games never drop entries.
type Update struct {
	Game             *model.Game
	SaveMembership   *model.Membership
	DeleteMembership *model.MembershipKey

	// IndexAdd appends GameID to PlayerID's game index if it is not already there
	IndexAdd *model.MembershipKey
	// IndexRemove drops GameID from PlayerID's game index
	IndexRemove *model.MembershipKey
}
