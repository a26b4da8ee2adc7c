package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AsyncXeNo/zenrenne-backend/app/cache"
	"github.com/AsyncXeNo/zenrenne-backend/app/database"
	"github.com/AsyncXeNo/zenrenne-backend/app/middleware"
	"github.com/AsyncXeNo/zenrenne-backend/app/server"
	"github.com/AsyncXeNo/zenrenne-backend/app/storage"
	"github.com/AsyncXeNo/zenrenne-backend/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbOpts := database.Options{
		Driver: cfg.DBDriver,
		DSN:    cfg.DatabaseURL,
		Debug:  cfg.LogLevel == "debug",
	}
	db, err := database.New(dbOpts)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db, dbOpts); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
	}

	var responses cache.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		responses = rdb
	} else {
		log.Warn().Msg("REDIS_URL not set, response cache disabled")
	}

	files, err := storage.NewLocal(cfg.MediaRoot, cfg.MediaURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare media storage")
	}
	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET not set, every write will be rejected")
	}

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: server.New(server.Options{
			DB:       db,
			Cache:    responses,
			CacheTTL: cfg.CacheTTL,
			Files:    files,
			Auth:     middleware.NewAuth(cfg.JWTSecret),
			MediaURL: cfg.MediaURL,
			MaxDepth: cfg.MaxHierarchyDepth,
		}),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("ZenRenne backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	// Pending file removals finish before exit.
	files.Wait()
	log.Info().Msg("server exited")
}

// setupLogger: dev gets pretty console output, prod gets JSON.
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
