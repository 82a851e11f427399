package client

import "time"

type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type ParticipantSummary struct {
	AnonymousID string `json:"anonymousId"`
	DisplayName string `json:"displayName"`
	HasOutfit   bool   `json:"hasOutfit"`
}

// Event is the client's read-only copy of an event. It is replaced whole on
// every fetch.
type Event struct {
	EventID           string               `json:"eventId"`
	EventCode         string               `json:"eventCode"`
	Title             string               `json:"title"`
	HostName          string               `json:"hostName"`
	Questions         []Question           `json:"questions"`
	CountdownDuration int                  `json:"countdownDuration"`
	ParticipantCount  int                  `json:"participantCount"`
	Participants      []ParticipantSummary `json:"participants"`
	StartTime         *time.Time           `json:"startTime,omitempty"`
	TargetTime        *time.Time           `json:"targetTime,omitempty"`
	Phase             string               `json:"phase"`
	IsActive          bool                 `json:"isActive"`
	CreatedAt         time.Time            `json:"createdAt"`
}

type JoinResult struct {
	AnonymousID string `json:"anonymousId"`
	DisplayName string `json:"displayName"`
	EventCode   string `json:"eventCode"`
}

type QuestionInput struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type CreateEventRequest struct {
	HostName          string          `json:"hostName"`
	Title             string          `json:"title,omitempty"`
	Questions         []QuestionInput `json:"questions,omitempty"`
	CountdownDuration int             `json:"countdownDuration,omitempty"`
}

type CreateEventResult struct {
	EventCode string `json:"eventCode"`
	Message   string `json:"message"`
	Event     Event  `json:"event"`
}

type Answer struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type Match struct {
	MatchID            string `json:"matchId"`
	MatchParticipantID string `json:"matchParticipantId"`
	DisplayName        string `json:"displayName"`
	CompatibilityScore int    `json:"compatibilityScore"`
	IsWildCard         bool   `json:"isWildCard"`
	Outfit             string `json:"outfit"`
}

type LeaderboardEntry struct {
	AnonymousID  string  `json:"anonymousId"`
	DisplayName  string  `json:"displayName"`
	Outfit       string  `json:"outfit"`
	AverageScore float64 `json:"averageScore"`
	VoteCount    int     `json:"voteCount"`
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsHost    bool      `json:"isHost"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type RecentEvent struct {
	EventCode string `json:"eventCode"`
	Title     string `json:"title"`
}

type Profile struct {
	User
	EventCount   int           `json:"eventCount"`
	RecentEvents []RecentEvent `json:"recentEvents"`
}

type FollowupStats struct {
	EventCode         string `json:"eventCode"`
	TotalParticipants int    `json:"totalParticipants"`
	TotalMatches      int    `json:"totalMatches"`
	Responses         int    `json:"responses"`
	WantReconnect     int    `json:"wantReconnect"`
	MutualMatches     int    `json:"mutualMatches"`
}

type MatchInterest struct {
	MatchID               string `json:"matchId"`
	PartnerID             string `json:"partnerId"`
	PartnerName           string `json:"partnerName"`
	YouWantReconnect      bool   `json:"youWantReconnect"`
	PartnerWantsReconnect bool   `json:"partnerWantsReconnect"`
	Mutual                bool   `json:"mutual"`
	ContactInfo           string `json:"contactInfo,omitempty"`
}

type QRCode struct {
	Success    bool   `json:"success"`
	EventCode  string `json:"eventCode"`
	EventTitle string `json:"eventTitle"`
	QRCode     string `json:"qrCode"`
}

type Countdown struct {
	EventCode         string     `json:"eventCode"`
	Phase             string     `json:"phase"`
	CountdownDuration int        `json:"countdownDuration"`
	StartTime         *time.Time `json:"startTime,omitempty"`
	TargetTime        *time.Time `json:"targetTime,omitempty"`
	RemainingSeconds  int        `json:"remainingSeconds"`
}

type ChatMessage struct {
	ID         string    `json:"id"`
	MatchID    string    `json:"matchId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}
