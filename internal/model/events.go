package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventGameStarted  EventType = "game_started"
	EventNumberDrawn  EventType = "number_drawn"
	EventPlayerJoined EventType = "player_joined"
	EventPlayerLeft   EventType = "player_left"
	EventPlayerWon    EventType = "player_won"
)

// Event is a notification emitted after a committed state change
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	GameID    GameID
	PlayerID  PlayerID // Empty for game-level events
	Payload   any      // Type-specific data
}

// GameStartedPayload contains data for game started events
type GameStartedPayload struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	EntryFee  Amount    `json:"entry_fee"`
}

// NumberDrawnPayload contains data for number drawn events
type NumberDrawnPayload struct {
	Number    uint8 `json:"number"`
	DrawCount int   `json:"draw_count"`
}

// PlayerJoinedPayload contains data for player joined events
type PlayerJoinedPayload struct {
	Board Board  `json:"board"`
	Pot   Amount `json:"pot"`
}

// PlayerLeftPayload contains data for player left events
type PlayerLeftPayload struct {
	Pot Amount `json:"pot"`
}

// PlayerWonPayload contains data for player won events
type PlayerWonPayload struct {
	Amount Amount `json:"amount"`
}
