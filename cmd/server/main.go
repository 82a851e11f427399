package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-match/internal/broker"
	"event-match/internal/config"
	"event-match/internal/db"
	"event-match/internal/logging"
	"event-match/internal/server"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Str("path", os.Getenv("CONFIG_FILE")).Msg("invalid config file")
	}
	if cfg.InsecureSecret() {
		log.Warn().Msg("JWT_SECRET not set; tokens are signed with the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var conn *gorm.DB
	if os.Getenv("DATABASE_URL") != "" {
		conn, err = db.Open(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		if err := db.Migrate(conn); err != nil {
			log.Fatal().Err(err).Msg("database migration failed")
		}
	} else {
		log.Warn().Msg("DATABASE_URL not set; events are kept in memory only")
	}

	opts := []server.Option{}
	bus, err := openBus(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("broker", cfg.Broker).Msg("broker connection failed")
	}
	if bus != nil {
		opts = append(opts, server.WithBus(bus))
	}
	if cfg.RedisAddr != "" {
		presence, err := broker.NewRedisPresence(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis connection failed")
		}
		defer presence.Close()
		opts = append(opts, server.WithPresence(presence))
	}

	srv := server.New(conn, cfg, opts...)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("broker", cfg.Broker).Msg("event-match server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := srv.Close(); err != nil {
		log.Error().Err(err).Msg("server close failed")
	}
}

// openBus returns nil when no broker is configured.
func openBus(cfg config.Config) (broker.Bus, error) {
	switch cfg.Broker {
	case "nats":
		return broker.NewNATS(cfg.NATSURL, "event-match")
	case "stomp":
		return broker.NewStomp(cfg.StompAddr, cfg.StompUser, cfg.StompPass)
	case "", "none":
		return nil, nil
	default:
		return nil, errors.New("unknown broker " + cfg.Broker)
	}
}
