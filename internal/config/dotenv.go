package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

const DevJWTSecret = "dev-secret-change-me"

type Config struct {
	Port                     string   `yaml:"port"`
	JWTSecret                string   `yaml:"jwt_secret"`
	TokenTTLHours            int      `yaml:"token_ttl_hours"`
	CountdownDefaultSeconds  int      `yaml:"countdown_default_seconds"`
	CountdownMinSeconds      int      `yaml:"countdown_min_seconds"`
	CountdownMaxSeconds      int      `yaml:"countdown_max_seconds"`
	CountdownTickSeconds     int      `yaml:"countdown_tick_seconds"`
	ChatHistoryLimit         int      `yaml:"chat_history_limit"`
	MaxParticipants          int      `yaml:"max_participants"`
	DBMaxOpenConns           int      `yaml:"db_max_open_conns"`
	DBMaxIdleConns           int      `yaml:"db_max_idle_conns"`
	DBConnMaxLifetimeSeconds int      `yaml:"db_conn_max_lifetime_seconds"`
	DBConnMaxIdleTimeSeconds int      `yaml:"db_conn_max_idle_seconds"`
	RedisAddr                string   `yaml:"redis_addr"`
	RedisPassword            string   `yaml:"redis_password"`
	Broker                   string   `yaml:"broker"`
	NATSURL                  string   `yaml:"nats_url"`
	StompAddr                string   `yaml:"stomp_addr"`
	StompUser                string   `yaml:"stomp_user"`
	StompPass                string   `yaml:"stomp_pass"`
	AllowedOrigins           []string `yaml:"allowed_origins"`
	PublicBaseURL            string   `yaml:"public_base_url"`
	QRSize                   int      `yaml:"qr_size"`
	LogLevel                 string   `yaml:"log_level"`
	LogFormat                string   `yaml:"log_format"`
}

func Default() Config {
	return Config{
		Port:                     "8080",
		JWTSecret:                DevJWTSecret,
		TokenTTLHours:            168,
		CountdownDefaultSeconds:  300,
		CountdownMinSeconds:      60,
		CountdownMaxSeconds:      3600,
		CountdownTickSeconds:     5,
		ChatHistoryLimit:         100,
		MaxParticipants:          0,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		Broker:                   "none",
		NATSURL:                  "nats://localhost:4222",
		StompAddr:                "localhost:61613",
		AllowedOrigins:           []string{"*"},
		QRSize:                   256,
		LogLevel:                 "info",
		LogFormat:                "console",
	}
}

// LoadFile overlays values from a YAML file onto cfg. A missing file is ignored.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Load builds the config from defaults, the optional CONFIG_FILE overlay and
// the environment. A broken config file is reported; env values still apply.
func Load() (Config, error) {
	cfg := Default()
	var err error
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		err = LoadFile(path, &cfg)
	}
	applyEnv(&cfg)
	return cfg, err
}

// InsecureSecret reports whether tokens are signed with the built-in development secret.
func (c Config) InsecureSecret() bool {
	return c.JWTSecret == "" || c.JWTSecret == DevJWTSecret
}

func applyEnv(cfg *Config) {
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("JWT_SECRET"); raw != "" {
		cfg.JWTSecret = raw
	}
	if raw := os.Getenv("TOKEN_TTL_HOURS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.TokenTTLHours = value
		}
	}
	if raw := os.Getenv("COUNTDOWN_DEFAULT_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.CountdownDefaultSeconds = value
		}
	}
	if raw := os.Getenv("COUNTDOWN_MIN_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.CountdownMinSeconds = value
		}
	}
	if raw := os.Getenv("COUNTDOWN_MAX_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.CountdownMaxSeconds = value
		}
	}
	if raw := os.Getenv("COUNTDOWN_TICK_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.CountdownTickSeconds = value
		}
	}
	if raw := os.Getenv("CHAT_HISTORY_LIMIT"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.ChatHistoryLimit = value
		}
	}
	if raw := os.Getenv("MAX_PARTICIPANTS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.MaxParticipants = value
		}
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	if raw := os.Getenv("REDIS_ADDR"); raw != "" {
		cfg.RedisAddr = raw
	}
	if raw := os.Getenv("REDIS_PASSWORD"); raw != "" {
		cfg.RedisPassword = raw
	}
	if raw := os.Getenv("BROKER"); raw != "" {
		cfg.Broker = strings.ToLower(raw)
	}
	if raw := os.Getenv("NATS_URL"); raw != "" {
		cfg.NATSURL = raw
	}
	if raw := os.Getenv("STOMP_ADDR"); raw != "" {
		cfg.StompAddr = raw
	}
	if raw := os.Getenv("STOMP_USER"); raw != "" {
		cfg.StompUser = raw
	}
	if raw := os.Getenv("STOMP_PASS"); raw != "" {
		cfg.StompPass = raw
	}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	}
	if raw := os.Getenv("PUBLIC_BASE_URL"); raw != "" {
		cfg.PublicBaseURL = strings.TrimRight(raw, "/")
	}
	if raw := os.Getenv("QR_SIZE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.QRSize = value
		}
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := os.Getenv("LOG_FORMAT"); raw != "" {
		cfg.LogFormat = raw
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
