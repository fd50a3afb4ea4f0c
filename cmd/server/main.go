package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcoot/bingopot/internal/api"
	"github.com/mcoot/bingopot/internal/factory"
	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/services/drawer"
	redisstorage "github.com/mcoot/bingopot/internal/storage/redis"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// A .env file is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("could not load .env file", slog.String("error", err.Error()))
	}

	// Build factory config from environment
	cfg := factory.Config{
		Logger:      logger,
		StorageType: os.Getenv("STORAGE_TYPE"),
		BankType:    os.Getenv("BANK_TYPE"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
	cfg.RegistryConfig.Configurator = model.PlayerID(os.Getenv("BINGO_CONFIGURATOR"))
	if cfg.RegistryConfig.Configurator == "" {
		logger.Warn("BINGO_CONFIGURATOR not set, game parameters and minting are locked")
	}

	// Configure Redis if storage or bank uses it
	if cfg.StorageType == factory.StorageTypeRedis || cfg.BankType == factory.BankTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis or BANK_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	cfg.DrawerConfig = drawer.DefaultConfig()
	if v := os.Getenv("AUTO_DRAW_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			logger.Error("invalid AUTO_DRAW_INTERVAL", slog.String("value", v), slog.String("error", err.Error()))
			os.Exit(1)
		}
		cfg.DrawerConfig.Interval = interval
	}

	serverConfig := api.DefaultServerConfig()
	if v := os.Getenv("BINGO_ADDR"); v != "" {
		serverConfig.Addr = v
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Clock:          app.Clock,
		AuthService:    app.AuthService,
		Registry:       app.Registry,
		Ledger:         app.Ledger,
		GameController: app.GameController,
		Wallet:         app.Bank,
		HubManager:     app.HubManager,
		StorageType:    app.StorageType,
		BankType:       app.BankType,
	})

	// The server starts the moderator with itself and stops it after draining requests
	server := api.NewServer(router, serverConfig, logger, app.HubManager, app.Moderator)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		exitCode = 1
	}

	if err := app.Close(); err != nil {
		logger.Error("failed to release resources", slog.String("error", err.Error()))
		exitCode = 1
	}

	stop()
	os.Exit(exitCode)
}
