package response

import (
	"time"

	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/services/auth"
	"github.com/mcoot/bingopot/internal/services/game"
)

// Player represents a player in API responses
type Player struct {
	ID             string `json:"id"`
	DisplayName    string `json:"display_name"`
	IsGuest        bool   `json:"is_guest"`
	IsConfigurator bool   `json:"is_configurator,omitempty"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
	}
}

// Params represents game parameters. Durations use Go duration syntax.
type Params struct {
	JoinWindow   string `json:"join_window"`
	TurnDuration string `json:"turn_duration"`
	EntryFee     uint64 `json:"entry_fee"`
}

// ParamsFromModel converts model.GameParams
func ParamsFromModel(p model.GameParams) Params {
	return Params{
		JoinWindow:   p.JoinWindow.String(),
		TurnDuration: p.TurnDuration.String(),
		EntryFee:     uint64(p.EntryFee),
	}
}

// Game represents a game in API responses
type Game struct {
	ID           uint64     `json:"id"`
	State        string     `json:"state"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      time.Time  `json:"end_time"`
	LastDrawTime *time.Time `json:"last_draw_time,omitempty"`
	NextDrawAt   *time.Time `json:"next_draw_at,omitempty"`
	Pot          uint64     `json:"pot"`
	Winner       *string    `json:"winner"`
	NumbersDrawn []int      `json:"numbers_drawn"`
	Params       Params     `json:"params"`
}

// GameFromModel converts model.Game, deriving its state at now
func GameFromModel(g *model.Game, now time.Time) Game {
	state := g.State(now)

	var lastDraw *time.Time
	if !g.LastDrawTime.IsZero() {
		t := g.LastDrawTime
		lastDraw = &t
	}

	var nextDraw *time.Time
	if state != model.GameStateEnded {
		t := g.NextDrawAt()
		nextDraw = &t
	}

	var winner *string
	if g.Winner != "" {
		w := string(g.Winner)
		winner = &w
	}

	return Game{
		ID:           uint64(g.ID),
		State:        string(state),
		StartTime:    g.StartTime,
		EndTime:      g.EndTime,
		LastDrawTime: lastDraw,
		NextDrawAt:   nextDraw,
		Pot:          uint64(g.Pot),
		Winner:       winner,
		NumbersDrawn: Numbers(g.NumbersDrawn),
		Params:       ParamsFromModel(g.Params),
	}
}

// GamesFromModel converts a list of games
func GamesFromModel(games []*model.Game, now time.Time) []Game {
	resp := make([]Game, len(games))
	for i, g := range games {
		resp[i] = GameFromModel(g, now)
	}
	return resp
}

// Numbers converts drawn numbers to ints so they encode as a JSON array
func Numbers(ns []uint8) []int {
	out := make([]int, len(ns))
	for i, n := range ns {
		out[i] = int(n)
	}
	return out
}

// Board represents a bingo board as rows of cell values. Zero is a marked cell.
type Board struct {
	Cells  [][]int `json:"cells"`
	Marked int     `json:"marked"`
}

// BoardFromModel converts model.Board to response Board
func BoardFromModel(b model.Board) Board {
	cells := make([][]int, model.GridWidth)
	for row := 0; row < model.GridWidth; row++ {
		cells[row] = make([]int, model.GridWidth)
		for col := 0; col < model.GridWidth; col++ {
			cells[row][col] = int(b.Cell(row, col))
		}
	}
	return Board{Cells: cells, Marked: b.MarkedCount()}
}

// Membership is the response after joining a game
type Membership struct {
	GameID   uint64    `json:"game_id"`
	PlayerID string    `json:"player_id"`
	Board    Board     `json:"board"`
	JoinedAt time.Time `json:"joined_at"`
}

// MembershipFromModel converts model.Membership
func MembershipFromModel(m *model.Membership) Membership {
	return Membership{
		GameID:   uint64(m.GameID),
		PlayerID: string(m.PlayerID),
		Board:    BoardFromModel(m.Board),
		JoinedAt: m.JoinedAt,
	}
}

// Line identifies a completed row, column or diagonal
type Line struct {
	Kind  string `json:"kind"`
	Index int    `json:"index"`
}

// CheckResult is the response after checking a board
type CheckResult struct {
	Board        Board  `json:"board"`
	NewlyMarked  int    `json:"newly_marked"`
	Won          bool   `json:"won"`
	WinningLines []Line `json:"winning_lines,omitempty"`
	Payout       uint64 `json:"payout,omitempty"`
}

// CheckResultFromGame converts game.CheckResult
func CheckResultFromGame(r *game.CheckResult) CheckResult {
	lines := make([]Line, len(r.WinningLines))
	for i, l := range r.WinningLines {
		lines[i] = Line{Kind: string(l.Kind), Index: l.Index}
	}
	return CheckResult{
		Board:        BoardFromModel(r.Board),
		NewlyMarked:  r.NewlyMarked,
		Won:          r.Won,
		WinningLines: lines,
		Payout:       uint64(r.Payout),
	}
}

// Draw is the response after drawing a number
type Draw struct {
	Number    int `json:"number"`
	DrawCount int `json:"draw_count"`
}

// Draws is the draw history of a game
type Draws struct {
	GameID  uint64 `json:"game_id"`
	Numbers []int  `json:"numbers"`
}

// Joined reports whether a player holds a seat in a game
type Joined struct {
	GameID   uint64 `json:"game_id"`
	PlayerID string `json:"player_id"`
	Joined   bool   `json:"joined"`
}

// PlayerGames lists the games a player has joined
type PlayerGames struct {
	PlayerID string   `json:"player_id"`
	GameIDs  []uint64 `json:"game_ids"`
}

// PlayerGamesFromModel converts a player's game index
func PlayerGamesFromModel(playerID model.PlayerID, ids []model.GameID) PlayerGames {
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return PlayerGames{PlayerID: string(playerID), GameIDs: out}
}

// Winnings is the sum of pots a player has won
type Winnings struct {
	PlayerID string `json:"player_id"`
	Total    uint64 `json:"total"`
}

// Wallet is a player's token balance
type Wallet struct {
	PlayerID string `json:"player_id"`
	Balance  uint64 `json:"balance"`
}

// Config is the current game parameters and who may change them
type Config struct {
	Params       Params `json:"params"`
	Configurator string `json:"configurator,omitempty"`
}

// Health reports whether the server can reach its storage, and which backends it runs on
type Health struct {
	Status       string    `json:"status"`
	Storage      string    `json:"storage"`
	Bank         string    `json:"bank"`
	LatestGameID uint64    `json:"latest_game_id"`
	Time         time.Time `json:"time"`
	Error        string    `json:"error,omitempty"`
}
