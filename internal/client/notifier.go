package client

import "github.com/rs/zerolog/log"

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier surfaces short user-facing messages.
type Notifier interface {
	Notify(level Level, message string)
}

type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) {
	f(level, message)
}

// LogNotifier writes notifications to the global logger.
type LogNotifier struct{}

func (LogNotifier) Notify(level Level, message string) {
	event := log.Info()
	if level == LevelError {
		event = log.Error()
	}
	event.Str("level_hint", string(level)).Msg(message)
}
