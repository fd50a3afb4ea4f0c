package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/bingopot/internal/api/middleware"
	"github.com/mcoot/bingopot/internal/api/response"
	"github.com/mcoot/bingopot/internal/dependencies/clock"
	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/services/game"
	"github.com/mcoot/bingopot/internal/services/ledger"
	"github.com/mcoot/bingopot/internal/services/registry"
	"github.com/mcoot/bingopot/internal/sse"
)

// GameHandler handles game-related endpoints
type GameHandler struct {
	gameController *game.Controller
	registry       *registry.Service
	ledger         *ledger.Service
	hubManager     *sse.HubManager
	clock          clock.Clock
}

// NewGameHandler creates a new game handler
func NewGameHandler(
	gameController *game.Controller,
	registry *registry.Service,
	ledger *ledger.Service,
	hubManager *sse.HubManager,
	clock clock.Clock,
) *GameHandler {
	return &GameHandler{
		gameController: gameController,
		registry:       registry,
		ledger:         ledger,
		hubManager:     hubManager,
		clock:          clock,
	}
}

// Start handles POST /api/v1/games
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	g, err := h.gameController.StartGame(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GameFromModel(g, h.clock.Now()))
}

// List handles GET /api/v1/games?state=open|drawing|ended
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	state := model.GameState(r.URL.Query().Get("state"))
	switch state {
	case "", model.GameStateOpen, model.GameStateDrawing, model.GameStateEnded:
	default:
		WriteError(w, NewInvalidRequestError("state must be open, drawing or ended"))
		return
	}

	games, err := h.registry.ListGames(r.Context(), state)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GamesFromModel(games, h.clock.Now()))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}

	g, err := h.gameController.GetGame(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(g, h.clock.Now()))
}

// Join handles POST /api/v1/games/{id}/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}

	m, err := h.gameController.JoinGame(r.Context(), gameID, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MembershipFromModel(m))
}

// Leave handles POST /api/v1/games/{id}/leave
func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}

	if err := h.gameController.LeaveGame(r.Context(), gameID, player.ID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Draw handles POST /api/v1/games/{id}/draw
func (h *GameHandler) Draw(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}

	number, err := h.gameController.DrawNumber(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	draws, err := h.registry.Draws(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Draw{
		Number:    int(number),
		DrawCount: len(draws),
	})
}

// Check handles POST /api/v1/games/{id}/check
func (h *GameHandler) Check(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.gameController.CheckBoard(r.Context(), gameID, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CheckResultFromGame(result))
}

// Draws handles GET /api/v1/games/{id}/draws
func (h *GameHandler) Draws(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}

	draws, err := h.registry.Draws(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Draws{
		GameID:  uint64(gameID),
		Numbers: response.Numbers(draws),
	})
}

// Board handles GET /api/v1/games/{id}/players/{player_id}/board
func (h *GameHandler) Board(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}
	playerID := model.PlayerID(mux.Vars(r)["player_id"])

	if _, err := h.registry.GetGame(r.Context(), gameID); err != nil {
		WriteError(w, err)
		return
	}

	b, err := h.ledger.GetBoard(r.Context(), gameID, playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.BoardFromModel(b))
}

// Joined handles GET /api/v1/games/{id}/players/{player_id}/joined
func (h *GameHandler) Joined(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}
	playerID := model.PlayerID(mux.Vars(r)["player_id"])

	if _, err := h.registry.GetGame(r.Context(), gameID); err != nil {
		WriteError(w, err)
		return
	}

	joined, err := h.ledger.HasJoined(r.Context(), gameID, playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Joined{
		GameID:   uint64(gameID),
		PlayerID: string(playerID),
		Joined:   joined,
	})
}

// Events handles GET /api/v1/games/{id}/events as a server-sent event stream
func (h *GameHandler) Events(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}

	if _, err := h.registry.GetGame(r.Context(), gameID); err != nil {
		WriteError(w, err)
		return
	}

	var playerID model.PlayerID
	if player := middleware.GetPlayer(r.Context()); player != nil {
		playerID = player.ID
	}

	sse.ServeSSE(w, r, h.hubManager.GetOrCreateHub(gameID), playerID)
}

// gameIDParam parses the {id} path variable, writing a 400 on failure
func gameIDParam(w http.ResponseWriter, r *http.Request) (model.GameID, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		WriteError(w, NewInvalidRequestError("game id must be a positive integer"))
		return 0, false
	}
	return model.GameID(id), true
}
