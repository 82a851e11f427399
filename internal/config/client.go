package config

import (
	"os"
	"strconv"
	"time"
)

type ClientConfig struct {
	ServerURL            string
	AckTimeout           time.Duration
	ReconnectInitial     time.Duration
	ReconnectMax         time.Duration
	MaxReconnectAttempts int
	PollInterval         time.Duration
	StoragePath          string
}

func DefaultClient() ClientConfig {
	return ClientConfig{
		ServerURL:        "http://localhost:8080",
		AckTimeout:       5 * time.Second,
		ReconnectInitial: 500 * time.Millisecond,
		ReconnectMax:     10 * time.Second,
		PollInterval:     15 * time.Second,
		StoragePath:      ".event-match.json",
	}
}

func LoadClient() ClientConfig {
	cfg := DefaultClient()
	if raw := os.Getenv("SERVER_URL"); raw != "" {
		cfg.ServerURL = raw
	}
	if raw := os.Getenv("ACK_TIMEOUT_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.AckTimeout = time.Duration(value) * time.Millisecond
		}
	}
	if raw := os.Getenv("RECONNECT_INITIAL_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.ReconnectInitial = time.Duration(value) * time.Millisecond
		}
	}
	if raw := os.Getenv("RECONNECT_MAX_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.ReconnectMax = time.Duration(value) * time.Millisecond
		}
	}
	if raw := os.Getenv("RECONNECT_MAX_ATTEMPTS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.MaxReconnectAttempts = value
		}
	}
	if raw := os.Getenv("POLL_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.PollInterval = time.Duration(value) * time.Second
		}
	}
	if raw := os.Getenv("STORAGE_PATH"); raw != "" {
		cfg.StoragePath = raw
	}
	return cfg
}
