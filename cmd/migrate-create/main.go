package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"event-match/internal/logging"

	"github.com/rs/zerolog/log"
)

var validName = regexp.MustCompile(`^[a-z0-9_]+$`)

func main() {
	name := flag.String("name", "", "migration name (lowercase, digits and underscores)")
	dir := flag.String("dir", filepath.Join("db", "migrations"), "migrations directory")
	flag.Parse()
	logging.Setup("info", "console")

	if *name == "" {
		log.Fatal().Msg("migration name is required")
	}
	if !validName.MatchString(*name) {
		log.Fatal().Str("name", *name).Msg("migration name must be lowercase letters, digits and underscores")
	}

	version := time.Now().UTC().Format("20060102150405")
	base := fmt.Sprintf("%s_%s", version, *name)
	upPath := filepath.Join(*dir, base+".up.sql")
	downPath := filepath.Join(*dir, base+".down.sql")

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create migrations dir")
	}
	if err := writeFile(upPath, "BEGIN;\n\n-- up migration\n\nCOMMIT;\n"); err != nil {
		log.Fatal().Err(err).Msg("create up migration")
	}
	if err := writeFile(downPath, "BEGIN;\n\n-- down migration\n\nCOMMIT;\n"); err != nil {
		log.Fatal().Err(err).Msg("create down migration")
	}

	log.Info().Str("up", upPath).Str("down", downPath).Msg("migration files created")
}

func writeFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
