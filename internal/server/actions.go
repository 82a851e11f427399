package server

import (
	"errors"

	"event-match/internal/broker"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// updateEvent restores the event from the database if needed before applying update.
func (s *Server) updateEvent(code string, update func(event *Event) error) (Event, error) {
	if _, err := s.lookupEvent(code); err != nil {
		return Event{}, err
	}
	return s.store.UpdateEvent(code, update)
}

func (s *Server) joinEvent(code, displayName string) (Event, Participant, error) {
	var joined Participant
	event, err := s.updateEvent(code, func(e *Event) error {
		if e.Phase == phaseRevealed {
			return errEventRevealed
		}
		if s.cfg.MaxParticipants > 0 && len(e.Participants) >= s.cfg.MaxParticipants {
			return errEventFull
		}
		joined = Participant{
			ID:          newID(),
			DisplayName: displayName,
			Responses:   make(map[string]string),
			JoinedAt:    s.clock.Now().UTC(),
		}
		e.Participants = append(e.Participants, joined)
		return nil
	})
	if err != nil {
		return Event{}, Participant{}, err
	}
	return event, joined, nil
}

func (s *Server) revealMatches(code, userID string, force bool) (Event, error) {
	now := s.clock.Now().UTC()
	event, err := s.updateEvent(code, func(e *Event) error {
		if e.HostUserID != userID {
			return errNotHost
		}
		if len(e.Participants) < 2 {
			return errNotEnoughParticipants
		}
		if len(e.Matches) > 0 && !force {
			return errMatchesExist
		}
		if len(e.Matches) > 0 {
			e.Followups = nil
			e.Chats = make(map[string][]ChatMessage)
		}
		e.Matches = pairParticipants(e.Participants, leaderID(*e), newID, now)
		e.Phase = phaseRevealed
		return nil
	})
	if err != nil {
		return Event{}, err
	}
	s.timers.Cancel(event.Code)
	if err := s.persistMatches(event); err != nil {
		log.Error().Err(err).Str("event_code", event.Code).Msg("persist matches failed")
	}
	log.Info().Str("event_code", event.Code).Int("matches", len(event.Matches)).Bool("force", force).Msg("matches revealed")
	s.notify(event.Code, eventRoom(event.Code), "match-reveal", gin.H{
		"eventCode":  event.Code,
		"matchCount": len(event.Matches),
	}, broker.TypeMatchesRevealed)
	return event, nil
}

func requireMatchMember(event Event, matchID, participantID string) error {
	found := false
	for _, m := range event.Matches {
		if m.ID != matchID {
			continue
		}
		found = true
		if m.includes(participantID) {
			return nil
		}
	}
	if !found {
		return errMatchNotFound
	}
	return errNotMatchMember
}

func trimHistory(messages []ChatMessage, limit int) []ChatMessage {
	if limit <= 0 || len(messages) <= limit {
		return messages
	}
	return append([]ChatMessage(nil), messages[len(messages)-limit:]...)
}

// postChatMessage stores a message in the match history and relays it to the chat room.
func (s *Server) postChatMessage(code, matchID, senderID, senderName, content string) (ChatMessage, error) {
	text, err := validateMessage(content)
	if err != nil {
		return ChatMessage{}, err
	}
	if code == "" || matchID == "" || senderID == "" {
		return ChatMessage{}, errors.New("eventCode, matchId and senderId are required")
	}
	var message ChatMessage
	event, err := s.updateEvent(code, func(e *Event) error {
		if err := requireMatchMember(*e, matchID, senderID); err != nil {
			return err
		}
		name := senderName
		if name == "" {
			if p := e.participant(senderID); p != nil {
				name = p.DisplayName
			}
		}
		message = ChatMessage{
			ID:         newID(),
			MatchID:    matchID,
			SenderID:   senderID,
			SenderName: name,
			Content:    text,
			Timestamp:  s.clock.Now().UTC(),
		}
		e.Chats[matchID] = trimHistory(append(e.Chats[matchID], message), s.cfg.ChatHistoryLimit)
		return nil
	})
	if err != nil {
		return ChatMessage{}, err
	}
	if err := s.persistChatMessage(event, message); err != nil {
		log.Error().Err(err).Str("event_code", event.Code).Msg("persist chat message failed")
	}
	s.notify(event.Code, chatRoom(matchID), "new-message", message, broker.TypeMessageSent)
	return message, nil
}
