package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mcoot/bingopot/internal/dependencies/clock"
	"github.com/mcoot/bingopot/internal/dependencies/random"
	"github.com/mcoot/bingopot/internal/dependencies/token"
	"github.com/mcoot/bingopot/internal/dependencies/token/redisbank"
	"github.com/mcoot/bingopot/internal/dependencies/token/sqlbank"
	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/services/auth"
	"github.com/mcoot/bingopot/internal/services/drawer"
	"github.com/mcoot/bingopot/internal/services/game"
	"github.com/mcoot/bingopot/internal/services/ledger"
	"github.com/mcoot/bingopot/internal/services/registry"
	"github.com/mcoot/bingopot/internal/sse"
	"github.com/mcoot/bingopot/internal/storage"
	"github.com/mcoot/bingopot/internal/storage/memory"
	redisstorage "github.com/mcoot/bingopot/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Bank type constants
const (
	BankTypeMemory   = "memory"
	BankTypeRedis    = "redis"
	BankTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Bank   token.Bank

	// Services
	AuthService    *auth.Service
	Registry       *registry.Service
	Ledger         *ledger.Service
	GameController *game.Controller
	HubManager     *sse.HubManager
	Moderator      *drawer.Moderator

	// Backend names, reported by the health endpoint
	StorageType string
	BankType    string

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// RegistryConfig names the configurator and the default game parameters
	// If Defaults is zero, model.DefaultGameParams() is used
	RegistryConfig registry.Config
	// DrawerConfig controls the auto-draw moderator
	DrawerConfig drawer.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType or BankType is "redis")
	RedisConfig *redisstorage.Config
	// BankType selects the token backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	BankType string
	// DatabaseURL is the Postgres DSN (required if BankType is "postgres")
	DatabaseURL string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var closers []io.Closer

	// Create storage based on type
	var store storage.Storage
	var redisClient *goredis.Client
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		redisClient = redisStore.Client()
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create token bank based on type
	var bank token.Bank
	bankType := cfg.BankType
	if bankType == "" {
		bankType = BankTypeMemory
	}

	switch bankType {
	case BankTypeMemory:
		bank = token.NewMemoryBank()
	case BankTypeRedis:
		if redisClient == nil {
			if cfg.RedisConfig == nil {
				_ = closeAll(closers)
				return nil, errors.New("RedisConfig required when BankType is redis")
			}
			opts, err := goredis.ParseURL(cfg.RedisConfig.URL)
			if err != nil {
				_ = closeAll(closers)
				return nil, fmt.Errorf("parse redis url: %w", err)
			}
			redisClient = goredis.NewClient(opts)
			closers = append(closers, redisClient)
		}
		bank = redisbank.New(redisClient)
	case BankTypePostgres:
		if cfg.DatabaseURL == "" {
			_ = closeAll(closers)
			return nil, errors.New("DatabaseURL required when BankType is postgres")
		}
		sqlBank, err := sqlbank.Open(cfg.DatabaseURL)
		if err != nil {
			_ = closeAll(closers)
			return nil, err
		}
		bank = sqlBank
		closers = append(closers, sqlBank)
	default:
		_ = closeAll(closers)
		return nil, errors.New("invalid BankType: must be 'memory', 'redis' or 'postgres'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	app := newWithDependencies(store, bank, clk, rnd, cfg, logger)
	app.StorageType = storageType
	app.BankType = bankType
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, bank token.Bank, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	// Use default configs where not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}
	registryCfg := cfg.RegistryConfig
	if registryCfg.Defaults == (model.GameParams{}) {
		registryCfg.Defaults = registry.DefaultConfig().Defaults
	}

	// Create services
	hubManager := sse.NewHubManager(logger)
	authService := auth.New(store, clk, rnd, authCfg, logger)
	registryService := registry.New(store, clk, registryCfg, logger)
	ledgerService := ledger.New(store, bank, clk, rnd, logger)
	gameController := game.NewController(store, registryService, ledgerService, bank, clk, rnd, hubManager, logger)
	moderator := drawer.New(gameController, cfg.DrawerConfig, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Bank:           bank,
		AuthService:    authService,
		Registry:       registryService,
		Ledger:         ledgerService,
		GameController: gameController,
		HubManager:     hubManager,
		Moderator:      moderator,
	}
}

// Close stops the moderator, disconnects SSE clients and releases backend connections
func (a *App) Close() error {
	var errs []error
	if err := a.Moderator.Stop(); err != nil {
		errs = append(errs, err)
	}
	a.HubManager.Close()
	if err := closeAll(a.closers); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
