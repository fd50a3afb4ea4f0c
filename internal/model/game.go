package model

import "time"

// GameID identifies a game. IDs are allocated sequentially starting at 1.
type GameID uint64

// Amount is a quantity of the entry-fee token
type Amount uint64

// GameState is the lifecycle phase of a game, derived from its timestamps and ended flag
type GameState string

const (
	GameStateOpen    GameState = "open"    // Join window active
	GameStateDrawing GameState = "drawing" // Join window closed, numbers being drawn
	GameStateEnded   GameState = "ended"   // A winner has been paid
)

// GameParams are the configurator-controlled settings captured by a game at creation
type GameParams struct {
	JoinWindow   time.Duration
	TurnDuration time.Duration
	EntryFee     Amount
}

// DefaultGameParams returns the parameters used until the configurator changes them
func DefaultGameParams() GameParams {
	return GameParams{
		JoinWindow:   30 * time.Minute,
		TurnDuration: 10 * time.Minute,
		EntryFee:     100,
	}
}

// Validate rejects negative durations
func (p GameParams) Validate() error {
	if p.JoinWindow < 0 || p.TurnDuration < 0 {
		return ErrInvalidParams
	}
	return nil
}

// Game is a single bingo round
type Game struct {
	ID           GameID
	StartTime    time.Time
	EndTime      time.Time // Join window close
	LastDrawTime time.Time // Zero until the first draw
	Ended        bool
	Pot          Amount
	Winner       PlayerID // Empty until the game is won
	NumbersDrawn []uint8  // Append-only
	Params       GameParams
}

// State reports the lifecycle phase at the given instant
func (g *Game) State(now time.Time) GameState {
	if g.Ended {
		return GameStateEnded
	}
	if now.After(g.EndTime) {
		return GameStateDrawing
	}
	return GameStateOpen
}

// NextDrawAt returns the earliest instant the next number may be drawn.
// The first draw needs the join window to have closed, so it is due one tick after EndTime.
func (g *Game) NextDrawAt() time.Time {
	if len(g.NumbersDrawn) == 0 {
		return g.EndTime.Add(time.Nanosecond)
	}
	return g.LastDrawTime.Add(g.Params.TurnDuration)
}

// Clone returns a deep copy so callers can mutate without touching stored state
func (g *Game) Clone() *Game {
	c := *g
	if g.NumbersDrawn != nil {
		c.NumbersDrawn = make([]uint8, len(g.NumbersDrawn))
		copy(c.NumbersDrawn, g.NumbersDrawn)
	}
	return &c
}
