package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"

	"github.com/vendora/vendora-golang/internal/auth"
	"github.com/vendora/vendora-golang/internal/config"
	"github.com/vendora/vendora-golang/internal/database"
	"github.com/vendora/vendora-golang/internal/handlers"
	"github.com/vendora/vendora-golang/internal/logger"
	"github.com/vendora/vendora-golang/internal/routes"
	"github.com/vendora/vendora-golang/internal/settings"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Env)

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	db, err := database.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	log.Info().Msg("database connected")

	h := &handlers.Handlers{
		DB:       db,
		Auth:     auth.NewManager(cfg.JWTSecret, cfg.JWTExpiry),
		Settings: settings.NewStore(db, settings.DefaultTTL),
		Cfg:      cfg,
		Log:      log,
	}

	// Background reaper: cancel unpaid orders past their TTL and put
	// the stock back.
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			h.ProcessStaleOrders(ctx, cfg.StaleOrderTTL)
			cancel()
		}
	}()

	router := routes.SetupRouter(h)
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting API server")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
