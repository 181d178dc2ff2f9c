package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/omnisight/backend/internal/adapters/http"
	"github.com/omnisight/backend/internal/adapters/live"
	"github.com/omnisight/backend/internal/adapters/relay"
	"github.com/omnisight/backend/internal/app"
	"github.com/omnisight/backend/internal/config"
	"github.com/omnisight/backend/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session log store")
	}
	defer store.Close()

	// The registry is the single source of truth for room state; both the
	// relay and the REST snapshot view share this one instance.
	rooms := app.NewRegistry()
	factory := live.NewFactory(live.Config{
		APIKey:            cfg.GeminiAPIKey,
		Model:             cfg.Model,
		SystemInstruction: cfg.SystemPrompt,
	})
	ctrl := app.NewController(rooms, factory)

	ws := relay.NewWSController(ctrl)
	api := router.NewAPIController(rooms, store)

	r := router.SetupRouter(ctx, cfg, ws, api)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("OmniSight backend started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
