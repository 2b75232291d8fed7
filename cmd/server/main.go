package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/SlpAus/ballpark-ranking-backend/api"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/config"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/database"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/health"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/logging"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/shutdown"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/startup"
	"github.com/SlpAus/ballpark-ranking-backend/internal/rank"
	"github.com/SlpAus/ballpark-ranking-backend/pkg/lifecycle"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx := context.Background()

	db, err := database.OpenDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	rdb, err := database.OpenRedis(ctx, cfg.Database.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	app := api.NewApp(cfg, db, rdb, health.RedisRunID(rdb))

	// 1. remember the Redis run id before the first rebuild
	if err := app.Health.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to read redis run id")
	}

	// 2. schema, team seed and the initial cache projection
	if err := startup.InitializeApplication(ctx, db, app.Sync); err != nil {
		log.Fatal().Err(err).Msg("application initialization failed")
	}

	// 3. one blocking check so a restart during step 2 is caught before serving
	app.Health.Check(ctx)

	gracefulMgr := lifecycle.NewManager()
	forcefulMgr := lifecycle.NewManager()

	startPaired(gracefulMgr, forcefulMgr, "health-checker", func(g, f *lifecycle.Handle) {
		app.Health.Run(g, f, cfg.Ranking.HealthCheckInterval)
	})
	if cfg.Ranking.RebuildInterval > 0 {
		startPaired(gracefulMgr, forcefulMgr, "rank-rebuilder", func(g, f *lifecycle.Handle) {
			rank.RunRebuildScheduler(g, f, app.Sync, cfg.Ranking.RebuildInterval, app.Health.Healthy)
		})
	}

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("address", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	shutdown.NewCoordinator(gracefulMgr, forcefulMgr).ListenForSignalsAndShutdown(server)

	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close redis client")
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}
	log.Info().Msg("server exited")
}

// startPaired runs fn under a graceful handle and a forceful handle of the same name.
// The service stops taking new work when the graceful handle is cancelled and aborts
// in-flight work when the forceful one is.
func startPaired(gracefulMgr, forcefulMgr *lifecycle.Manager, name string, fn func(g, f *lifecycle.Handle)) {
	forcefulHandle, err := forcefulMgr.NewServiceHandle(name)
	if err != nil {
		log.Fatal().Err(err).Str("service", name).Msg("failed to register service")
	}
	err = gracefulMgr.Go(name, func(h *lifecycle.Handle) {
		defer forcefulHandle.Close()
		fn(h, forcefulHandle)
	})
	if err != nil {
		log.Fatal().Err(err).Str("service", name).Msg("failed to start service")
	}
}
