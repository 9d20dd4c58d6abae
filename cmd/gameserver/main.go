// Package main provides the game server binary: the HTTP/WebSocket frontend,
// the match orchestration layer, and PostgreSQL persistence.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kimchunsik17/yacht-online/internal/advisor"
	"github.com/kimchunsik17/yacht-online/internal/config"
	"github.com/kimchunsik17/yacht-online/internal/frontend/ws"
	"github.com/kimchunsik17/yacht-online/internal/game/bot"
	"github.com/kimchunsik17/yacht-online/internal/game/dice"
	"github.com/kimchunsik17/yacht-online/internal/gameserver"
	"github.com/kimchunsik17/yacht-online/internal/observability"
	"github.com/kimchunsik17/yacht-online/internal/server"
	"github.com/kimchunsik17/yacht-online/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting game server", zap.String("addr", cfg.Server.Addr()))

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()

	profile := loadProfile(cfg.Game, logger)

	var decider bot.Decider
	if cfg.Advisor.Enabled {
		if adv := advisor.New(cfg.Advisor.APIKey, cfg.Advisor.Model, cfg.Advisor.RequestTimeout, logger); adv != nil {
			decider = adv
			logger.Info("advisory decider enabled", zap.String("model", cfg.Advisor.Model))
		} else {
			logger.Warn("advisor enabled but no API key configured; using heuristic")
		}
	}

	roller := dice.NewRoller(dice.NewCryptoSource(), logger)
	store := gameserver.NewMatchStore(postgres.NewMatchRepository(pool.DB()))

	hub := ws.NewHub(logger)
	handler := gameserver.NewMatchHandler(store, roller, profile, decider, hub.Broadcast, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      ws.NewServer(handler, hub, logger).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("http", &server.FuncService{
		StartFn: func() error {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
		StopFn: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		},
	})
	lifecycle.Add("matches", &server.FuncService{
		StartFn: func() error { return nil },
		StopFn:  handler.Shutdown,
	})

	logger.Info("game server ready", zap.Duration("startup", time.Since(start)))
	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("lifecycle error", zap.Error(err))
	}
}

// loadProfile resolves the automated player's profile: the first file in the
// configured directory, or the built-in default, with config delay overrides
// applied.
func loadProfile(cfg config.GameConfig, logger *zap.Logger) *bot.Profile {
	profile := bot.DefaultProfile()
	if cfg.BotProfileDir != "" {
		profiles, err := bot.LoadProfilesFromDir(cfg.BotProfileDir)
		if err != nil {
			logger.Fatal("loading bot profiles",
				zap.String("dir", cfg.BotProfileDir), zap.Error(err))
		}
		profile = profiles[0]
		logger.Info("bot profile loaded",
			zap.String("id", profile.ID), zap.String("name", profile.Name))
	}
	if cfg.BotThinkDelayMs > 0 {
		profile.ThinkDelay = time.Duration(cfg.BotThinkDelayMs) * time.Millisecond
	}
	if cfg.BotStepDelayMs > 0 {
		profile.StepDelay = time.Duration(cfg.BotStepDelayMs) * time.Millisecond
	}
	return profile
}
