package server

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsHost       bool
	CreatedAt    time.Time
}

type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type Participant struct {
	ID          string
	DisplayName string
	Outfit      string
	Responses   map[string]string
	JoinedAt    time.Time
}

type Vote struct {
	VoterID string
	OwnerID string
	Score   int
	At      time.Time
}

// Match pairs two participants. Both sides share the match id, which is also
// the chat room id.
type Match struct {
	ID                 string
	ParticipantID      string
	PartnerID          string
	CompatibilityScore int
	IsWildCard         bool
	CreatedAt          time.Time
}

type Followup struct {
	ParticipantID string
	MatchID       string
	Reconnect     bool
	ContactInfo   string
	UpdatedAt     time.Time
}

type ChatMessage struct {
	ID         string    `json:"id"`
	MatchID    string    `json:"matchId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

type Event struct {
	ID                string
	Code              string
	Title             string
	HostName          string
	HostUserID        string
	Questions         []Question
	CountdownDuration int
	StartTime         *time.Time
	TargetTime        *time.Time
	Phase             string
	CreatedAt         time.Time
	Participants      []Participant
	Votes             []Vote
	Matches           []Match
	Followups         []Followup
	Chats             map[string][]ChatMessage
}

func (e *Event) participant(id string) *Participant {
	for i := range e.Participants {
		if e.Participants[i].ID == id {
			return &e.Participants[i]
		}
	}
	return nil
}

func (e *Event) question(id string) *Question {
	for i := range e.Questions {
		if e.Questions[i].ID == id {
			return &e.Questions[i]
		}
	}
	return nil
}

func (e *Event) matchByID(id string) *Match {
	for i := range e.Matches {
		if e.Matches[i].ID == id {
			return &e.Matches[i]
		}
	}
	return nil
}

// matchFor prefers a participant's primary match over a wild card.
func (e *Event) matchFor(participantID string) *Match {
	var wildCard *Match
	for i := range e.Matches {
		m := &e.Matches[i]
		if m.ParticipantID != participantID && m.PartnerID != participantID {
			continue
		}
		if !m.IsWildCard {
			return m
		}
		if wildCard == nil {
			wildCard = m
		}
	}
	return wildCard
}

func (e *Event) followup(participantID string) *Followup {
	for i := range e.Followups {
		if e.Followups[i].ParticipantID == participantID {
			return &e.Followups[i]
		}
	}
	return nil
}

func (m Match) partnerOf(participantID string) string {
	if m.ParticipantID == participantID {
		return m.PartnerID
	}
	return m.ParticipantID
}

func (m Match) includes(participantID string) bool {
	return m.ParticipantID == participantID || m.PartnerID == participantID
}

func (e Event) clone() Event {
	out := e
	out.Questions = make([]Question, len(e.Questions))
	for i, q := range e.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	out.Participants = make([]Participant, len(e.Participants))
	for i, p := range e.Participants {
		responses := make(map[string]string, len(p.Responses))
		for k, v := range p.Responses {
			responses[k] = v
		}
		p.Responses = responses
		out.Participants[i] = p
	}
	out.Votes = append([]Vote(nil), e.Votes...)
	out.Matches = append([]Match(nil), e.Matches...)
	out.Followups = append([]Followup(nil), e.Followups...)
	out.Chats = make(map[string][]ChatMessage, len(e.Chats))
	for k, v := range e.Chats {
		out.Chats[k] = append([]ChatMessage(nil), v...)
	}
	if e.StartTime != nil {
		start := *e.StartTime
		out.StartTime = &start
	}
	if e.TargetTime != nil {
		target := *e.TargetTime
		out.TargetTime = &target
	}
	return out
}
