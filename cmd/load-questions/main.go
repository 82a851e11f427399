package main

import (
	"flag"
	"os"

	"event-match/internal/config"
	"event-match/internal/db"
	"event-match/internal/logging"

	"github.com/rs/zerolog/log"
)

func main() {
	filePath := flag.String("file", "questions.csv", "path to questions csv (text,option|option|...)")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Str("path", os.Getenv("CONFIG_FILE")).Msg("invalid config file")
	}

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	loaded, err := db.LoadQuestionLibrary(conn, *filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Int("loaded", loaded).Msg("failed to load questions")
	}
	log.Info().Int("loaded", loaded).Str("file", *filePath).Msg("question library updated")
}
