package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/bingopot/internal/api/handler"
	"github.com/mcoot/bingopot/internal/api/middleware"
	"github.com/mcoot/bingopot/internal/dependencies/clock"
	"github.com/mcoot/bingopot/internal/dependencies/token"
	"github.com/mcoot/bingopot/internal/services/auth"
	"github.com/mcoot/bingopot/internal/services/game"
	"github.com/mcoot/bingopot/internal/services/ledger"
	"github.com/mcoot/bingopot/internal/services/registry"
	"github.com/mcoot/bingopot/internal/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Clock          clock.Clock
	AuthService    *auth.Service
	Registry       *registry.Service
	Ledger         *ledger.Service
	GameController *game.Controller
	Wallet         token.Wallet
	HubManager     *sse.HubManager

	// Backend names reported by /health
	StorageType string
	BankType    string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService, cfg.Ledger, cfg.Registry)
	gameHandler := handler.NewGameHandler(cfg.GameController, cfg.Registry, cfg.Ledger, cfg.HubManager, cfg.Clock)
	walletHandler := handler.NewWalletHandler(cfg.Wallet)
	configHandler := handler.NewConfigHandler(cfg.Registry)
	healthHandler := handler.NewHealthHandler(cfg.Registry, cfg.Clock, cfg.Logger, cfg.StorageType, cfg.BankType)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService)
	configuratorMiddleware := middleware.RequireConfigurator(cfg.Registry)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)

	// Player routes (no auth required for creating players/logging in)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/players/{player_id}/winnings", playerHandler.Winnings).Methods(http.MethodGet)
	api.HandleFunc("/players/{player_id}/games", playerHandler.Games).Methods(http.MethodGet)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)

	// Wallet routes
	wallet := api.PathPrefix("/wallet").Subrouter()
	wallet.Use(authMiddleware)
	wallet.HandleFunc("", walletHandler.Get).Methods(http.MethodGet)
	wallet.Handle("/mint", configuratorMiddleware(http.HandlerFunc(walletHandler.Mint))).Methods(http.MethodPost)

	// Game parameters: anyone reads, only the configurator writes
	api.HandleFunc("/config", configHandler.Get).Methods(http.MethodGet)
	api.Handle("/config", authMiddleware(configuratorMiddleware(http.HandlerFunc(configHandler.Set)))).Methods(http.MethodPut)

	// Read-only game routes (no auth)
	api.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/games/{id:[0-9]+}", gameHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/games/{id:[0-9]+}/draws", gameHandler.Draws).Methods(http.MethodGet)
	api.HandleFunc("/games/{id:[0-9]+}/players/{player_id}/board", gameHandler.Board).Methods(http.MethodGet)
	api.HandleFunc("/games/{id:[0-9]+}/players/{player_id}/joined", gameHandler.Joined).Methods(http.MethodGet)
	api.Handle("/games/{id:[0-9]+}/events", optionalAuthMiddleware(http.HandlerFunc(gameHandler.Events))).Methods(http.MethodGet)

	// Game actions (all require auth)
	games := api.PathPrefix("/games").Subrouter()
	games.Use(authMiddleware)
	games.HandleFunc("", gameHandler.Start).Methods(http.MethodPost)
	games.HandleFunc("/{id:[0-9]+}/join", gameHandler.Join).Methods(http.MethodPost)
	games.HandleFunc("/{id:[0-9]+}/leave", gameHandler.Leave).Methods(http.MethodPost)
	games.HandleFunc("/{id:[0-9]+}/draw", gameHandler.Draw).Methods(http.MethodPost)
	games.HandleFunc("/{id:[0-9]+}/check", gameHandler.Check).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	return r
}
