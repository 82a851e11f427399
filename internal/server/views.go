package server

import (
	"time"

	"github.com/gin-gonic/gin"
)

type participantView struct {
	AnonymousID string `json:"anonymousId"`
	DisplayName string `json:"displayName"`
	HasOutfit   bool   `json:"hasOutfit"`
}

type eventView struct {
	EventID           string            `json:"eventId"`
	EventCode         string            `json:"eventCode"`
	Title             string            `json:"title"`
	HostName          string            `json:"hostName"`
	Questions         []Question        `json:"questions"`
	CountdownDuration int               `json:"countdownDuration"`
	ParticipantCount  int               `json:"participantCount"`
	Participants      []participantView `json:"participants"`
	StartTime         *time.Time        `json:"startTime,omitempty"`
	TargetTime        *time.Time        `json:"targetTime,omitempty"`
	Phase             string            `json:"phase"`
	IsActive          bool              `json:"isActive"`
	CreatedAt         time.Time         `json:"createdAt"`
}

func newEventView(event Event) eventView {
	participants := make([]participantView, 0, len(event.Participants))
	for _, p := range event.Participants {
		participants = append(participants, participantView{
			AnonymousID: p.ID,
			DisplayName: p.DisplayName,
			HasOutfit:   p.Outfit != "",
		})
	}
	return eventView{
		EventID:           event.ID,
		EventCode:         event.Code,
		Title:             event.Title,
		HostName:          event.HostName,
		Questions:         event.Questions,
		CountdownDuration: event.CountdownDuration,
		ParticipantCount:  len(event.Participants),
		Participants:      participants,
		StartTime:         event.StartTime,
		TargetTime:        event.TargetTime,
		Phase:             event.Phase,
		IsActive:          event.Phase != phaseRevealed,
		CreatedAt:         event.CreatedAt,
	}
}

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsHost    bool      `json:"isHost"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserView(user User) userView {
	return userView{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		IsHost:    user.IsHost,
		CreatedAt: user.CreatedAt,
	}
}

type matchView struct {
	MatchID            string `json:"matchId"`
	MatchParticipantID string `json:"matchParticipantId"`
	DisplayName        string `json:"displayName"`
	CompatibilityScore int    `json:"compatibilityScore"`
	IsWildCard         bool   `json:"isWildCard"`
	Outfit             string `json:"outfit"`
}

func newMatchView(event Event, match Match, participantID string) matchView {
	partnerID := match.partnerOf(participantID)
	view := matchView{
		MatchID:            match.ID,
		MatchParticipantID: partnerID,
		CompatibilityScore: match.CompatibilityScore,
		IsWildCard:         match.IsWildCard,
	}
	if partner := event.participant(partnerID); partner != nil {
		view.DisplayName = partner.DisplayName
		view.Outfit = partner.Outfit
	}
	return view
}

func participantUpdatePayload(event Event, connected int64) gin.H {
	view := newEventView(event)
	return gin.H{
		"eventCode":        event.Code,
		"participantCount": view.ParticipantCount,
		"participants":     view.Participants,
		"phase":            event.Phase,
		"connected":        connected,
	}
}
