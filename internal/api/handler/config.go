package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mcoot/bingopot/internal/api/middleware"
	"github.com/mcoot/bingopot/internal/api/request"
	"github.com/mcoot/bingopot/internal/api/response"
	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/services/registry"
)

// ConfigHandler reads and changes the parameters new games are created with
type ConfigHandler struct {
	registry *registry.Service
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(registry *registry.Service) *ConfigHandler {
	return &ConfigHandler{registry: registry}
}

// Get handles GET /api/v1/config
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	params, err := h.registry.Params(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Config{
		Params:       response.ParamsFromModel(params),
		Configurator: string(h.registry.Configurator()),
	})
}

// Set handles PUT /api/v1/config
func (h *ConfigHandler) Set(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.SetParamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	joinWindow, err := time.ParseDuration(req.JoinWindow)
	if err != nil {
		WriteError(w, NewInvalidRequestError("join_window must be a duration such as 30m"))
		return
	}
	turnDuration, err := time.ParseDuration(req.TurnDuration)
	if err != nil {
		WriteError(w, NewInvalidRequestError("turn_duration must be a duration such as 10m"))
		return
	}

	params := model.GameParams{
		JoinWindow:   joinWindow,
		TurnDuration: turnDuration,
		EntryFee:     model.Amount(req.EntryFee),
	}
	if err := h.registry.SetParams(r.Context(), player.ID, params); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Config{
		Params:       response.ParamsFromModel(params),
		Configurator: string(h.registry.Configurator()),
	})
}
