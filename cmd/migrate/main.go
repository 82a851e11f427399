package main

import (
	"errors"
	"flag"
	"os"

	"event-match/internal/config"
	"event-match/internal/logging"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration")
	source := flag.String("source", "file://db/migrations", "migration source url")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Str("path", os.Getenv("CONFIG_FILE")).Msg("invalid config file")
	}

	m, err := migrate.New(*source, mustDatabaseURL())
	if err != nil {
		log.Fatal().Err(err).Msg("migration setup failed")
	}
	defer m.Close()

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Bool("down", *down).Msg("database migration failed")
	}
	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		log.Warn().Err(verr).Msg("could not read migration version")
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("database migrations applied")
}

func mustDatabaseURL() string {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}
	return dsn
}
