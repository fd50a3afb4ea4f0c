package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/bingopot/internal/api/middleware"
	"github.com/mcoot/bingopot/internal/api/request"
	"github.com/mcoot/bingopot/internal/api/response"
	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/services/auth"
	"github.com/mcoot/bingopot/internal/services/ledger"
	"github.com/mcoot/bingopot/internal/services/registry"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	authService *auth.Service
	ledger      *ledger.Service
	registry    *registry.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(authService *auth.Service, ledger *ledger.Service, registry *registry.Service) *PlayerHandler {
	return &PlayerHandler{
		authService: authService,
		ledger:      ledger,
		registry:    registry,
	}
}

// CreateGuest handles POST /api/v1/players/guest
func (h *PlayerHandler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.DisplayName == "" {
		WriteError(w, NewInvalidRequestError("display_name is required"))
		return
	}

	session, err := h.authService.CreateGuestPlayer(r.Context(), req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, h.authResponse(session))
}

// Register handles POST /api/v1/players/register
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}
	if req.DisplayName == "" {
		WriteError(w, NewInvalidRequestError("display_name is required"))
		return
	}

	session, err := h.authService.RegisterPlayer(r.Context(), req.Username, req.Password, req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, h.authResponse(session))
}

// Login handles POST /api/v1/players/login
func (h *PlayerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, h.authResponse(session))
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	resp := response.PlayerFromModel(player)
	resp.IsConfigurator = h.registry.IsConfigurator(player.ID)
	response.JSON(w, http.StatusOK, resp)
}

// Winnings handles GET /api/v1/players/{player_id}/winnings
func (h *PlayerHandler) Winnings(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["player_id"])

	total, err := h.ledger.ListWinnings(r.Context(), playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Winnings{
		PlayerID: string(playerID),
		Total:    uint64(total),
	})
}

// Games handles GET /api/v1/players/{player_id}/games
func (h *PlayerHandler) Games(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["player_id"])

	ids, err := h.ledger.PlayerGames(r.Context(), playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerGamesFromModel(playerID, ids))
}

func (h *PlayerHandler) authResponse(s *auth.Session) response.AuthResponse {
	resp := response.AuthResponseFromSession(s)
	resp.Player.IsConfigurator = h.registry.IsConfigurator(s.PlayerID)
	return resp
}
