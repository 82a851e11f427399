package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type revealRequest struct {
	Force bool `json:"force"`
}

func (s *Server) handleRevealMatches(c *gin.Context) {
	var req revealRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req, nil, "invalid reveal request") {
			return
		}
	}
	event, err := s.revealMatches(c.Param("code"), currentUserID(c), req.Force)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Matches revealed",
		"matchCount": len(event.Matches),
	})
}

type matchQuery struct {
	AnonymousID string `form:"anonymousId" binding:"required"`
}

func (s *Server) handleGetMatch(c *gin.Context) {
	var req matchQuery
	if !bindQuery(c, &req, bindMessages{"AnonymousID": {"required": "anonymousId is required"}}, "") {
		return
	}
	event, err := s.lookupEvent(c.Param("code"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if event.participant(req.AnonymousID) == nil {
		writeDomainError(c, errParticipantNotFound)
		return
	}
	match := event.matchFor(req.AnonymousID)
	if match == nil {
		writeDomainError(c, errMatchNotFound)
		return
	}
	c.JSON(http.StatusOK, newMatchView(event, *match, req.AnonymousID))
}

type followupRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
	Reconnect     bool   `json:"reconnect"`
	ContactInfo   string `json:"contactInfo"`
}

var followupMessages = bindMessages{
	"ParticipantID": {"required": "participantId is required"},
}

func (s *Server) handleSubmitFollowup(c *gin.Context) {
	var req followupRequest
	if !bindJSON(c, &req, followupMessages, "invalid follow-up") {
		return
	}
	contact := strings.TrimSpace(req.ContactInfo)
	if len(contact) > maxContactLength {
		writeError(c, http.StatusBadRequest, "contact info is too long")
		return
	}
	var saved Followup
	event, err := s.updateEvent(c.Param("code"), func(e *Event) error {
		if e.participant(req.ParticipantID) == nil {
			return errParticipantNotFound
		}
		match := e.matchFor(req.ParticipantID)
		if match == nil {
			return errNoMatch
		}
		saved = Followup{
			ParticipantID: req.ParticipantID,
			MatchID:       match.ID,
			Reconnect:     req.Reconnect,
			ContactInfo:   contact,
			UpdatedAt:     s.clock.Now().UTC(),
		}
		if existing := e.followup(req.ParticipantID); existing != nil {
			*existing = saved
			return nil
		}
		e.Followups = append(e.Followups, saved)
		return nil
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if err := s.persistFollowup(event, saved); err != nil {
		log.Error().Err(err).Str("event_code", event.Code).Msg("persist follow-up failed")
		writeError(c, http.StatusInternalServerError, "failed to save follow-up")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Follow-up saved"})
}

type followupStats struct {
	EventCode         string `json:"eventCode"`
	TotalParticipants int    `json:"totalParticipants"`
	TotalMatches      int    `json:"totalMatches"`
	Responses         int    `json:"responses"`
	WantReconnect     int    `json:"wantReconnect"`
	MutualMatches     int    `json:"mutualMatches"`
}

func buildFollowupStats(event Event) followupStats {
	stats := followupStats{
		EventCode:         event.Code,
		TotalParticipants: len(event.Participants),
		TotalMatches:      len(event.Matches),
		Responses:         len(event.Followups),
	}
	for _, f := range event.Followups {
		if f.Reconnect {
			stats.WantReconnect++
		}
	}
	for _, m := range event.Matches {
		a := followupFor(event, m.ParticipantID, m.ID)
		b := followupFor(event, m.PartnerID, m.ID)
		if a != nil && b != nil && a.Reconnect && b.Reconnect {
			stats.MutualMatches++
		}
	}
	return stats
}

// followupFor returns the participant's follow-up only when it refers to matchID.
func followupFor(event Event, participantID, matchID string) *Followup {
	f := event.followup(participantID)
	if f == nil || f.MatchID != matchID {
		return nil
	}
	return f
}

func (s *Server) handleFollowupStats(c *gin.Context) {
	event, err := s.lookupEvent(c.Param("code"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if event.HostUserID != currentUserID(c) {
		writeDomainError(c, errNotHost)
		return
	}
	c.JSON(http.StatusOK, buildFollowupStats(event))
}

type matchInterest struct {
	MatchID               string `json:"matchId"`
	PartnerID             string `json:"partnerId"`
	PartnerName           string `json:"partnerName"`
	YouWantReconnect      bool   `json:"youWantReconnect"`
	PartnerWantsReconnect bool   `json:"partnerWantsReconnect"`
	Mutual                bool   `json:"mutual"`
	ContactInfo           string `json:"contactInfo,omitempty"`
}

func buildMatchInterest(event Event, match Match, participantID string) matchInterest {
	partnerID := match.partnerOf(participantID)
	interest := matchInterest{
		MatchID:   match.ID,
		PartnerID: partnerID,
	}
	if partner := event.participant(partnerID); partner != nil {
		interest.PartnerName = partner.DisplayName
	}
	mine := followupFor(event, participantID, match.ID)
	theirs := followupFor(event, partnerID, match.ID)
	interest.YouWantReconnect = mine != nil && mine.Reconnect
	interest.PartnerWantsReconnect = theirs != nil && theirs.Reconnect
	interest.Mutual = interest.YouWantReconnect && interest.PartnerWantsReconnect
	if interest.Mutual {
		interest.ContactInfo = theirs.ContactInfo
	}
	return interest
}

type followupMatchQuery struct {
	ParticipantID string `form:"participantId" binding:"required"`
}

func (s *Server) handleFollowupMatch(c *gin.Context) {
	var req followupMatchQuery
	if !bindQuery(c, &req, bindMessages{"ParticipantID": {"required": "participantId is required"}}, "") {
		return
	}
	event, err := s.lookupEvent(c.Param("code"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if event.participant(req.ParticipantID) == nil {
		writeDomainError(c, errParticipantNotFound)
		return
	}
	match := event.matchFor(req.ParticipantID)
	if match == nil {
		writeDomainError(c, errMatchNotFound)
		return
	}
	c.JSON(http.StatusOK, buildMatchInterest(event, *match, req.ParticipantID))
}
