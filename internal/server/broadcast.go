package server

import (
	"context"

	"event-match/internal/broker"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/encoding/json"
)

// notify delivers a socket notification to the local room and, when msgType
// is set, publishes it for other instances.
func (s *Server) notify(eventCode, room, name string, data any, msgType string) {
	s.ws.Broadcast(room, name, data)
	if msgType == "" {
		return
	}
	s.publish(msgType, eventCode, room, name, data)
}

// publish sends a domain message to the broker. Messages without a room are
// not replayed to sockets on other instances.
func (s *Server) publish(msgType, eventCode, room, name string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("broker encode failed")
		return
	}
	msg := broker.Message{
		Origin:    s.instanceID,
		Type:      msgType,
		EventCode: eventCode,
		Room:      room,
		Event:     name,
		Data:      raw,
		At:        s.clock.Now().UTC(),
	}
	if err := s.bus.Publish(context.Background(), msg); err != nil {
		log.Warn().Err(err).Str("event_code", eventCode).Str("type", msgType).Msg("broker publish failed")
	}
}

func (s *Server) handleBusMessage(msg broker.Message) {
	if msg.Origin == s.instanceID || msg.Room == "" || msg.Event == "" {
		return
	}
	s.ws.BroadcastRaw(msg.Room, msg.Event, msg.Data)
}

func (s *Server) broadcastParticipants(event Event) {
	connected, err := s.presence.Count(context.Background(), event.Code)
	if err != nil {
		log.Warn().Err(err).Str("event_code", event.Code).Msg("presence count failed")
	}
	s.notify(event.Code, eventRoom(event.Code), "participant-update", participantUpdatePayload(event, connected), broker.TypeParticipantJoined)
}

func (s *Server) broadcastLeaderboard(code string) ([]leaderboardEntry, error) {
	event, err := s.lookupEvent(code)
	if err != nil {
		return nil, err
	}
	board := buildLeaderboard(event)
	s.notify(event.Code, eventRoom(event.Code), "leaderboard-update", map[string]any{
		"eventCode":   event.Code,
		"leaderboard": board,
	}, broker.TypeLeaderboard)
	return board, nil
}
