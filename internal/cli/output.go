package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case Game:
		o.printGame(v)
	case []Game:
		o.printGames(v)
	case Membership:
		o.printMembership(v)
	case Board:
		o.printBoard(v)
	case DrawResult:
		fmt.Printf("Drawn: %d (draw %d)\n", v.Number, v.DrawCount)
	case Draws:
		fmt.Printf("Game %d draws: %s\n", v.GameID, joinInts(v.Numbers))
	case CheckResult:
		o.printCheckResult(v)
	case Joined:
		o.printJoined(v)
	case PlayerGames:
		fmt.Printf("Player %s games: %s\n", v.PlayerID, joinUints(v.GameIDs))
	case Winnings:
		fmt.Printf("Player %s has won %d\n", v.PlayerID, v.Total)
	case Wallet:
		fmt.Printf("Balance (%s): %d\n", v.PlayerID, v.Balance)
	case ConfigResult:
		o.printConfig(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID             string `json:"id"`
	DisplayName    string `json:"display_name"`
	IsGuest        bool   `json:"is_guest"`
	IsConfigurator bool   `json:"is_configurator,omitempty"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// Params response type
type Params struct {
	JoinWindow   string `json:"join_window"`
	TurnDuration string `json:"turn_duration"`
	EntryFee     uint64 `json:"entry_fee"`
}

// Game response type
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

// Board response type. Zero is a marked cell.
type Board struct {
	Cells  [][]int `json:"cells"`
	Marked int     `json:"marked"`
}

// Membership response type
type Membership struct {
	GameID   uint64    `json:"game_id"`
	PlayerID string    `json:"player_id"`
	Board    Board     `json:"board"`
	JoinedAt time.Time `json:"joined_at"`
}

// Line response type
type Line struct {
	Kind  string `json:"kind"`
	Index int    `json:"index"`
}

// CheckResult response type
type CheckResult struct {
	Board        Board  `json:"board"`
	NewlyMarked  int    `json:"newly_marked"`
	Won          bool   `json:"won"`
	WinningLines []Line `json:"winning_lines,omitempty"`
	Payout       uint64 `json:"payout,omitempty"`
}

// DrawResult response type
type DrawResult struct {
	Number    int `json:"number"`
	DrawCount int `json:"draw_count"`
}

// Draws response type
type Draws struct {
	GameID  uint64 `json:"game_id"`
	Numbers []int  `json:"numbers"`
}

// Joined response type
type Joined struct {
	GameID   uint64 `json:"game_id"`
	PlayerID string `json:"player_id"`
	Joined   bool   `json:"joined"`
}

// PlayerGames response type
type PlayerGames struct {
	PlayerID string   `json:"player_id"`
	GameIDs  []uint64 `json:"game_ids"`
}

// Winnings response type
type Winnings struct {
	PlayerID string `json:"player_id"`
	Total    uint64 `json:"total"`
}

// Wallet response type
type Wallet struct {
	PlayerID string `json:"player_id"`
	Balance  uint64 `json:"balance"`
}

// ConfigResult response type
type ConfigResult struct {
	Params       Params `json:"params"`
	Configurator string `json:"configurator,omitempty"`
}

// HealthResult response type
type HealthResult struct {
	Status       string    `json:"status"`
	Storage      string    `json:"storage"`
	Bank         string    `json:"bank"`
	LatestGameID uint64    `json:"latest_game_id"`
	Time         time.Time `json:"time"`
	Error        string    `json:"error,omitempty"`
}

func (o *Output) printPlayer(p Player) {
	guestStr := "no"
	if p.IsGuest {
		guestStr = "yes"
	}
	fmt.Printf("Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Printf("Guest: %s\n", guestStr)
	if p.IsConfigurator {
		fmt.Println("Configurator: yes")
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printGame(g Game) {
	fmt.Printf("Game: %d\n", g.ID)
	fmt.Printf("State: %s\n", g.State)
	fmt.Printf("Pot: %d (entry fee %d)\n", g.Pot, g.Params.EntryFee)
	fmt.Printf("Join window closes: %s\n", g.EndTime.Local().Format(time.DateTime))
	if g.NextDrawAt != nil {
		fmt.Printf("Next draw from: %s\n", g.NextDrawAt.Local().Format(time.DateTime))
	}
	if len(g.NumbersDrawn) > 0 {
		fmt.Printf("Drawn: %s\n", joinInts(g.NumbersDrawn))
	}
	if g.Winner != nil {
		fmt.Printf("Winner: %s\n", *g.Winner)
	}
}

func (o *Output) printGames(games []Game) {
	if len(games) == 0 {
		fmt.Println("No games")
		return
	}
	for _, g := range games {
		winner := ""
		if g.Winner != nil {
			winner = " winner=" + *g.Winner
		}
		fmt.Printf("%6d  %-8s pot=%d draws=%d%s\n", g.ID, g.State, g.Pot, len(g.NumbersDrawn), winner)
	}
}

func (o *Output) printMembership(m Membership) {
	fmt.Printf("Joined game %d as %s\n", m.GameID, m.PlayerID)
	o.printBoard(m.Board)
}

func (o *Output) printBoard(b Board) {
	if len(b.Cells) == 0 {
		return
	}

	size := len(b.Cells)

	// Print top border
	fmt.Print("+")
	for col := 0; col < size; col++ {
		fmt.Print("-----")
	}
	fmt.Println("+")

	// Print rows
	for row := 0; row < size; row++ {
		fmt.Print("|")
		for col := 0; col < size; col++ {
			cell := b.Cells[row][col]
			if cell == 0 {
				fmt.Print("  *  ")
			} else {
				fmt.Printf(" %3d ", cell)
			}
		}
		fmt.Println("|")
	}

	// Print bottom border
	fmt.Print("+")
	for col := 0; col < size; col++ {
		fmt.Print("-----")
	}
	fmt.Println("+")
	fmt.Printf("Marked: %d\n", b.Marked)
}

func (o *Output) printCheckResult(c CheckResult) {
	o.printBoard(c.Board)
	fmt.Printf("Newly marked: %d\n", c.NewlyMarked)
	if !c.Won {
		fmt.Println("No complete line yet")
		return
	}
	lines := make([]string, len(c.WinningLines))
	for i, l := range c.WinningLines {
		lines[i] = fmt.Sprintf("%s %d", l.Kind, l.Index)
	}
	fmt.Printf("BINGO! %s\n", strings.Join(lines, ", "))
	fmt.Printf("Payout: %d\n", c.Payout)
}

func (o *Output) printJoined(j Joined) {
	if j.Joined {
		fmt.Printf("%s has joined game %d\n", j.PlayerID, j.GameID)
	} else {
		fmt.Printf("%s has not joined game %d\n", j.PlayerID, j.GameID)
	}
}

func (o *Output) printConfig(c ConfigResult) {
	fmt.Printf("Join window: %s\n", c.Params.JoinWindow)
	fmt.Printf("Turn duration: %s\n", c.Params.TurnDuration)
	fmt.Printf("Entry fee: %d\n", c.Params.EntryFee)
	if c.Configurator != "" {
		fmt.Printf("Configurator: %s\n", c.Configurator)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Storage: %s\n", h.Storage)
	fmt.Printf("Bank: %s\n", h.Bank)
	if h.Error != "" {
		fmt.Printf("Error: %s\n", h.Error)
		return
	}
	fmt.Printf("Latest game: %d\n", h.LatestGameID)
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, " ")
}

func joinUints(ns []uint64) string {
	if len(ns) == 0 {
		return "none"
	}
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, " ")
}
