package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"clobrub/internal/config"
	"clobrub/internal/db"
	"clobrub/internal/engine"
	"clobrub/internal/httpapi"
	"clobrub/internal/instruments"
	"clobrub/internal/ledger"
	"clobrub/internal/users"
)

func main() {
	// Load environment variables if present (non-fatal).
	if err := godotenv.Load(); err != nil {
		zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().
			Info().Msg(".env not loaded, continuing with process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		zerolog.New(os.Stderr).With().Timestamp().Logger().Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.NewConsoleWriter()).Level(level).With().Timestamp().Logger()

	log.Info().Msg("starting trading service")

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		log.Info().Msg("closing database connection")
		database.Close()
	}()
	log.Info().Msg("database connection established")

	if err := db.Migrate(database); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}
	log.Info().Msg("schema migrated")

	services := &httpapi.Services{
		DB:          database,
		Engine:      engine.New(database, log),
		Ledger:      ledger.New(),
		Instruments: instruments.New(database),
		Users:       users.New(database),
		Log:         log,
	}

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.NewRouter(services),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-stop
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	} else {
		log.Info().Msg("server gracefully stopped")
	}
}
