package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/bingopot/internal/api/middleware"
	"github.com/mcoot/bingopot/internal/api/request"
	"github.com/mcoot/bingopot/internal/api/response"
	"github.com/mcoot/bingopot/internal/dependencies/token"
	"github.com/mcoot/bingopot/internal/model"
)

// WalletHandler exposes token balances and the configurator's faucet
type WalletHandler struct {
	wallet token.Wallet
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(wallet token.Wallet) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

// Get handles GET /api/v1/wallet
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	balance, err := h.wallet.Balance(r.Context(), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Wallet{
		PlayerID: string(player.ID),
		Balance:  uint64(balance),
	})
}

// Mint handles POST /api/v1/wallet/mint. The route only admits the configurator.
func (h *WalletHandler) Mint(w http.ResponseWriter, r *http.Request) {
	var req request.MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.PlayerID == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}
	if req.Amount == 0 {
		WriteError(w, NewInvalidRequestError("amount must be positive"))
		return
	}
	if model.PlayerID(req.PlayerID) == token.CustodyAccount {
		WriteError(w, NewInvalidRequestError("cannot mint into custody"))
		return
	}

	target := model.PlayerID(req.PlayerID)
	if err := h.wallet.Mint(r.Context(), target, model.Amount(req.Amount)); err != nil {
		WriteError(w, err)
		return
	}

	balance, err := h.wallet.Balance(r.Context(), target)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Wallet{
		PlayerID: req.PlayerID,
		Balance:  uint64(balance),
	})
}
