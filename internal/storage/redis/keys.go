package redis

import (
	"fmt"

	"github.com/mcoot/bingopot/internal/model"
)

// Key prefix for all bingo data
const keyPrefix = "bingo"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// registeredPlayerKey returns the Redis key for a RegisteredPlayer
func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// gameCounterKey returns the Redis key holding the highest allocated game ID
func gameCounterKey() string {
	return fmt.Sprintf("%s:game_counter", keyPrefix)
}

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%d", keyPrefix, id)
}

// membershipKey returns the Redis key for a player's membership in a game
func membershipKey(gameID model.GameID, playerID model.PlayerID) string {
	return fmt.Sprintf("%s:membership:%d:%s", keyPrefix, gameID, playerID)
}

// playerGamesKey returns the Redis list holding a player's game index
func playerGamesKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:player_games:%s", keyPrefix, playerID)
}

// paramsKey returns the Redis key for the configurator's game parameters
func paramsKey() string {
	return fmt.Sprintf("%s:params", keyPrefix)
}
