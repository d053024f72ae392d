package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/relay/internal/api"
	"github.com/eldtechnologies/relay/internal/config"
	"github.com/eldtechnologies/relay/internal/relay"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger().
			Level(zerolog.InfoLevel)
	}

	rl := relay.New(relay.Options{
		LongPoll:    cfg.LongPoll,
		WaitTimeout: cfg.WaitTimeout,
		Aliases:     cfg.Aliases,
		CheckSize:   cfg.CheckSize,
		MaxSize:     cfg.MaxSize,
	}, logger)

	// Create router
	router := api.NewRouter(logger, rl, api.Options{MaxBodySize: cfg.MaxBodySize})

	// Cancelled on shutdown so blocked long polls return at once.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	// Create server. Writes must outlast the longest long poll.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WaitTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Bool("long_poll", cfg.LongPoll).
			Dur("wait_timeout", cfg.WaitTimeout).
			Int("aliases", len(cfg.Aliases)).
			Bool("check_size", cfg.CheckSize).
			Int64("max_size", cfg.MaxSize).
			Msg("starting relay server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")
	cancelBase()

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
