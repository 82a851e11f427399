package server

type ActivityPayload struct {
	EventCode     string `json:"event_code,omitempty"`
	Title         string `json:"title,omitempty"`
	ParticipantID string `json:"participant_id,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	Phase         string `json:"phase,omitempty"`
	Reason        string `json:"reason,omitempty"`
	OwnerID       string `json:"owner_id,omitempty"`
	Score         int    `json:"score,omitempty"`
	MatchID       string `json:"match_id,omitempty"`
	Count         int    `json:"count,omitempty"`
	Duration      int    `json:"duration,omitempty"`
	Reconnect     bool   `json:"reconnect,omitempty"`
}
