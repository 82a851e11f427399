// Package broker fans domain notifications out to other server instances and
// tracks how many sockets are connected per event.
package broker

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/encoding/json"
)

const (
	TypeEventCreated      = "event_created"
	TypeParticipantJoined = "participant_joined"
	TypeCountdownStarted  = "countdown_started"
	TypeCountdownComplete = "countdown_complete"
	TypeMatchesRevealed   = "matches_revealed"
	TypeMessageSent       = "message_sent"
	TypeCountdownTick     = "countdown_tick"
	TypeLeaderboard       = "leaderboard_updated"
)

// Types lists every message type a subscriber listens for.
var Types = []string{
	TypeEventCreated,
	TypeParticipantJoined,
	TypeCountdownStarted,
	TypeCountdownComplete,
	TypeMatchesRevealed,
	TypeMessageSent,
	TypeCountdownTick,
	TypeLeaderboard,
}

// Message is the envelope published for every domain notification. Event and
// Room name the socket notification a receiving instance replays locally.
type Message struct {
	Origin    string          `json:"origin"`
	Type      string          `json:"type"`
	EventCode string          `json:"eventCode"`
	Room      string          `json:"room,omitempty"`
	Event     string          `json:"event,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	At        time.Time       `json:"at"`
}

func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func Decode(data []byte) (Message, error) {
	var msg Message
	err := json.Unmarshal(data, &msg)
	return msg, err
}

type Handler func(Message)

// Bus publishes messages and delivers messages from every instance to handlers.
type Bus interface {
	Publish(ctx context.Context, msg Message) error
	Subscribe(handler Handler) error
	Close() error
}

// Noop drops every message.
type Noop struct{}

func (Noop) Publish(context.Context, Message) error { return nil }
func (Noop) Subscribe(Handler) error                { return nil }
func (Noop) Close() error                           { return nil }

// Memory delivers messages synchronously to in-process subscribers.
type Memory struct {
	mu        sync.Mutex
	handlers  []Handler
	published []Message
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Publish(_ context.Context, msg Message) error {
	m.mu.Lock()
	m.published = append(m.published, msg)
	handlers := append([]Handler(nil), m.handlers...)
	m.mu.Unlock()
	for _, handler := range handlers {
		handler(msg)
	}
	return nil
}

func (m *Memory) Subscribe(handler Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = nil
	return nil
}

// Published returns a copy of every message seen so far.
func (m *Memory) Published() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.published...)
}
