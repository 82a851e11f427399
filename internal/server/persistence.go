package server

import (
	"encoding/json"
	"time"

	"event-match/internal/db"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Server) persistUser(user User) error {
	if s.db == nil {
		return nil
	}
	record := db.User{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		IsHost:       user.IsHost,
		CreatedAt:    user.CreatedAt,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "is_host", "updated_at"}),
	}).Create(&record).Error
}

// persistEvent upserts the event row and appends an activity entry.
func (s *Server) persistEvent(event Event, activityType string, payload ActivityPayload) error {
	if s.db == nil {
		return nil
	}
	questions, err := json.Marshal(event.Questions)
	if err != nil {
		return err
	}
	record := db.Event{
		ID:                event.ID,
		Code:              event.Code,
		Title:             event.Title,
		HostName:          event.HostName,
		HostUserID:        event.HostUserID,
		Questions:         datatypes.JSON(questions),
		CountdownDuration: event.CountdownDuration,
		StartTime:         event.StartTime,
		TargetTime:        event.TargetTime,
		Phase:             event.Phase,
		CreatedAt:         event.CreatedAt,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"countdown_duration", "start_time", "target_time", "phase", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return err
	}
	return s.persistActivity(event.ID, "", activityType, payload)
}

func (s *Server) persistParticipant(event Event, participant Participant, activityType string) error {
	if s.db == nil {
		return nil
	}
	responses, err := json.Marshal(participant.Responses)
	if err != nil {
		return err
	}
	record := db.Participant{
		ID:          participant.ID,
		EventID:     event.ID,
		DisplayName: participant.DisplayName,
		Outfit:      participant.Outfit,
		Responses:   datatypes.JSON(responses),
		JoinedAt:    participant.JoinedAt,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"outfit", "responses", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return err
	}
	return s.persistActivity(event.ID, participant.ID, activityType, ActivityPayload{
		EventCode:     event.Code,
		ParticipantID: participant.ID,
		DisplayName:   participant.DisplayName,
	})
}

func (s *Server) persistVote(event Event, vote Vote) error {
	if s.db == nil {
		return nil
	}
	record := db.Vote{
		EventID: event.ID,
		VoterID: vote.VoterID,
		OwnerID: vote.OwnerID,
		Score:   vote.Score,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "voter_id"}, {Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return err
	}
	return s.persistActivity(event.ID, vote.VoterID, "vote_cast", ActivityPayload{
		EventCode: event.Code,
		OwnerID:   vote.OwnerID,
		Score:     vote.Score,
	})
}

// persistMatches replaces the stored matches for the event.
func (s *Server) persistMatches(event Event) error {
	if s.db == nil {
		return nil
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", event.ID).Delete(&db.Match{}).Error; err != nil {
			return err
		}
		if len(event.Matches) == 0 {
			return nil
		}
		records := make([]db.Match, 0, len(event.Matches))
		for _, m := range event.Matches {
			records = append(records, db.Match{
				ID:                 m.ID,
				EventID:            event.ID,
				ParticipantID:      m.ParticipantID,
				PartnerID:          m.PartnerID,
				CompatibilityScore: m.CompatibilityScore,
				IsWildCard:         m.IsWildCard,
				CreatedAt:          m.CreatedAt,
			})
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return err
	}
	return s.persistEvent(event, "matches_revealed", ActivityPayload{
		EventCode: event.Code,
		Phase:     event.Phase,
		Count:     len(event.Matches),
	})
}

func (s *Server) persistFollowup(event Event, followup Followup) error {
	if s.db == nil {
		return nil
	}
	record := db.Followup{
		EventID:       event.ID,
		ParticipantID: followup.ParticipantID,
		MatchID:       followup.MatchID,
		Reconnect:     followup.Reconnect,
		ContactInfo:   followup.ContactInfo,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "participant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"match_id", "reconnect", "contact_info", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return err
	}
	return s.persistActivity(event.ID, followup.ParticipantID, "followup_submitted", ActivityPayload{
		EventCode: event.Code,
		MatchID:   followup.MatchID,
		Reconnect: followup.Reconnect,
	})
}

func (s *Server) persistChatMessage(event Event, message ChatMessage) error {
	if s.db == nil {
		return nil
	}
	record := db.ChatMessage{
		ID:         message.ID,
		EventID:    event.ID,
		MatchID:    message.MatchID,
		SenderID:   message.SenderID,
		SenderName: message.SenderName,
		Content:    message.Content,
		CreatedAt:  message.Timestamp,
	}
	return s.db.Create(&record).Error
}

func (s *Server) persistActivity(eventID, participantID, activityType string, payload ActivityPayload) error {
	if s.db == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	record := db.Activity{
		EventID:   eventID,
		Type:      activityType,
		Payload:   datatypes.JSON(data),
		CreatedAt: time.Now().UTC(),
	}
	if participantID != "" {
		record.ParticipantID = &participantID
	}
	return s.db.Create(&record).Error
}
