package client

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/encoding/json"
)

// Inbound notification names.
const (
	EventParticipantUpdate     = "participant-update"
	EventCountdownUpdate       = "countdown-update"
	EventCountdownComplete     = "countdown-complete"
	EventMatchReveal           = "match-reveal"
	EventChatHistory           = "chat-history"
	EventNewMessage            = "new-message"
	EventChatParticipantJoined = "chat-participant-joined"
	EventChatParticipantLeft   = "chat-participant-left"
	EventLeaderboardUpdate     = "leaderboard-update"
	EventError                 = "error"
)

var eventAliases = map[string]string{
	"participants":      EventParticipantUpdate,
	"countdown:start":   EventCountdownUpdate,
	"event:timerUpdate": EventCountdownUpdate,
	"event:matchReveal": EventMatchReveal,
}

// Normalize maps legacy notification names onto their current name.
func Normalize(name string) string {
	if canonical, ok := eventAliases[name]; ok {
		return canonical
	}
	return name
}

type Handler func(data json.RawMessage)

type subscription struct {
	id      uint64
	handler Handler
}

// Registry routes inbound notifications to handlers. It outlives any single
// connection, so subscriptions survive reconnects.
type Registry struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string][]subscription
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string][]subscription)}
}

// On subscribes handler to event and returns a func that removes it.
func (r *Registry) On(event string, handler Handler) func() {
	event = Normalize(event)
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.handlers[event] = append(r.handlers[event], subscription{id: id, handler: handler})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(event, id) })
	}
}

func (r *Registry) remove(event string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.handlers[event]
	for i, sub := range subs {
		if sub.id == id {
			r.handlers[event] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(r.handlers[event]) == 0 {
		delete(r.handlers, event)
	}
}

// Dispatch calls every handler of event in subscription order and reports
// how many ran.
func (r *Registry) Dispatch(event string, data json.RawMessage) int {
	event = Normalize(event)
	r.mu.RLock()
	subs := append([]subscription(nil), r.handlers[event]...)
	r.mu.RUnlock()
	if len(subs) == 0 {
		log.Debug().Str("event", event).Msg("no handler for notification")
	}
	for _, sub := range subs {
		sub.handler(data)
	}
	return len(subs)
}
