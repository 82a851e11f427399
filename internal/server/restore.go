package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"event-match/internal/countdown"
	"event-match/internal/db"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func (s *Server) loadUserFromDB(query string, arg any) (User, error) {
	if s.db == nil {
		return User{}, errDatabaseUnavailable
	}
	var record db.User
	if err := s.db.Where(query, arg).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, errUserNotFound
		}
		return User{}, err
	}
	user := User{
		ID:           record.ID,
		Name:         record.Name,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		IsHost:       record.IsHost,
		CreatedAt:    record.CreatedAt,
	}
	if stored, err := s.store.AddUser(user); err == nil {
		return stored, nil
	}
	return user, nil
}

// lookupEvent returns the live event, restoring it from the database on a miss.
func (s *Server) lookupEvent(code string) (Event, error) {
	if event, ok := s.store.GetEvent(code); ok {
		return event, nil
	}
	if s.db == nil {
		return Event{}, errEventNotFound
	}
	event, err := s.restoreEventFromDB(normalizeCode(code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Event{}, errEventNotFound
		}
		log.Error().Err(err).Str("event_code", code).Msg("event restore failed")
		return Event{}, errEventNotFound
	}
	return event, nil
}

func (s *Server) restoreEventFromDB(code string) (Event, error) {
	var record db.Event
	if err := s.db.Where("code = ?", code).First(&record).Error; err != nil {
		return Event{}, err
	}
	event := Event{
		ID:                record.ID,
		Code:              record.Code,
		Title:             record.Title,
		HostName:          record.HostName,
		HostUserID:        record.HostUserID,
		CountdownDuration: record.CountdownDuration,
		StartTime:         record.StartTime,
		TargetTime:        record.TargetTime,
		Phase:             record.Phase,
		CreatedAt:         record.CreatedAt,
		Chats:             make(map[string][]ChatMessage),
	}
	if err := json.Unmarshal(record.Questions, &event.Questions); err != nil {
		return Event{}, fmt.Errorf("decode questions: %w", err)
	}

	var participants []db.Participant
	if err := s.db.Where("event_id = ?", record.ID).Order("joined_at asc").Find(&participants).Error; err != nil {
		return Event{}, err
	}
	for _, p := range participants {
		responses := make(map[string]string)
		if len(p.Responses) > 0 {
			if err := json.Unmarshal(p.Responses, &responses); err != nil {
				return Event{}, fmt.Errorf("decode responses: %w", err)
			}
		}
		event.Participants = append(event.Participants, Participant{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Outfit:      p.Outfit,
			Responses:   responses,
			JoinedAt:    p.JoinedAt,
		})
	}

	var votes []db.Vote
	if err := s.db.Where("event_id = ?", record.ID).Order("id asc").Find(&votes).Error; err != nil {
		return Event{}, err
	}
	for _, v := range votes {
		event.Votes = append(event.Votes, Vote{VoterID: v.VoterID, OwnerID: v.OwnerID, Score: v.Score, At: v.UpdatedAt})
	}

	var matches []db.Match
	if err := s.db.Where("event_id = ?", record.ID).Order("created_at asc").Find(&matches).Error; err != nil {
		return Event{}, err
	}
	for _, m := range matches {
		event.Matches = append(event.Matches, Match{
			ID:                 m.ID,
			ParticipantID:      m.ParticipantID,
			PartnerID:          m.PartnerID,
			CompatibilityScore: m.CompatibilityScore,
			IsWildCard:         m.IsWildCard,
			CreatedAt:          m.CreatedAt,
		})
	}

	var followups []db.Followup
	if err := s.db.Where("event_id = ?", record.ID).Find(&followups).Error; err != nil {
		return Event{}, err
	}
	for _, f := range followups {
		event.Followups = append(event.Followups, Followup{
			ParticipantID: f.ParticipantID,
			MatchID:       f.MatchID,
			Reconnect:     f.Reconnect,
			ContactInfo:   f.ContactInfo,
			UpdatedAt:     f.UpdatedAt,
		})
	}

	var messages []db.ChatMessage
	if err := s.db.Where("event_id = ?", record.ID).Order("created_at asc").Find(&messages).Error; err != nil {
		return Event{}, err
	}
	for _, m := range messages {
		event.Chats[m.MatchID] = append(event.Chats[m.MatchID], ChatMessage{
			ID:         m.ID,
			MatchID:    m.MatchID,
			SenderID:   m.SenderID,
			SenderName: m.SenderName,
			Content:    m.Content,
			Timestamp:  m.CreatedAt,
		})
	}
	for matchID := range event.Chats {
		event.Chats[matchID] = trimHistory(event.Chats[matchID], s.cfg.ChatHistoryLimit)
	}

	restored, err := s.store.RestoreEvent(event)
	if err != nil {
		return Event{}, err
	}
	log.Info().Str("event_code", restored.Code).Int("participants", len(restored.Participants)).Msg("event restored")
	s.resumeCountdown(restored)
	return restored, nil
}

// resumeCountdown restarts the timer of a restored event still counting down.
func (s *Server) resumeCountdown(event Event) {
	if event.Phase != phaseCountdown || event.TargetTime == nil {
		return
	}
	if countdown.Remaining(*event.TargetTime, s.clock.Now()) == 0 {
		s.completeCountdown(event.Code)
		return
	}
	s.scheduleCountdown(event)
}

type hostEventSummary struct {
	EventCode        string `json:"eventCode"`
	Title            string `json:"title"`
	Phase            string `json:"phase"`
	ParticipantCount int    `json:"participantCount"`
	CreatedAt        string `json:"createdAt"`
}

// listHostEvents pages through the host's events, newest first.
func (s *Server) listHostEvents(userID string, page pageRequest) ([]hostEventSummary, int64, error) {
	if s.db != nil {
		var total int64
		if err := s.db.Model(&db.Event{}).Where("host_user_id = ?", userID).Count(&total).Error; err != nil {
			return nil, 0, err
		}
		var records []db.Event
		if err := s.db.Where("host_user_id = ?", userID).
			Order("created_at desc").
			Offset(page.offset()).
			Limit(page.PerPage).
			Find(&records).Error; err != nil {
			return nil, 0, err
		}
		out := make([]hostEventSummary, 0, len(records))
		for _, record := range records {
			var count int64
			if err := s.db.Model(&db.Participant{}).Where("event_id = ?", record.ID).Count(&count).Error; err != nil {
				return nil, 0, err
			}
			out = append(out, hostEventSummary{
				EventCode:        record.Code,
				Title:            record.Title,
				Phase:            record.Phase,
				ParticipantCount: int(count),
				CreatedAt:        record.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		return out, total, nil
	}

	events := s.store.ListEventsByHost(userID)
	total := int64(len(events))
	start, end := page.window(len(events))
	out := make([]hostEventSummary, 0, end-start)
	for _, event := range events[start:end] {
		out = append(out, hostEventSummary{
			EventCode:        event.Code,
			Title:            event.Title,
			Phase:            event.Phase,
			ParticipantCount: len(event.Participants),
			CreatedAt:        event.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, total, nil
}

type activityEntry struct {
	ID            uint            `json:"id"`
	Type          string          `json:"type"`
	ParticipantID string          `json:"participantId,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     string          `json:"createdAt"`
}

func (s *Server) listActivity(event Event, page pageRequest) ([]activityEntry, int64, error) {
	if s.db == nil {
		return nil, 0, errDatabaseUnavailable
	}
	var total int64
	if err := s.db.Model(&db.Activity{}).Where("event_id = ?", event.ID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []db.Activity
	if err := s.db.Where("event_id = ?", event.ID).
		Order("id asc").
		Offset(page.offset()).
		Limit(page.PerPage).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]activityEntry, 0, len(rows))
	for _, row := range rows {
		entry := activityEntry{
			ID:        row.ID,
			Type:      row.Type,
			Payload:   json.RawMessage(row.Payload),
			CreatedAt: row.CreatedAt.UTC().Format(time.RFC3339),
		}
		if row.ParticipantID != nil {
			entry.ParticipantID = *row.ParticipantID
		}
		out = append(out, entry)
	}
	return out, total, nil
}
