package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type answerInput struct {
	QuestionID string `json:"questionId" binding:"required"`
	Answer     string `json:"answer" binding:"required,answer"`
}

type responsesRequest struct {
	AnonymousID string        `json:"anonymousId" binding:"required"`
	Responses   []answerInput `json:"responses" binding:"required,min=1,dive"`
}

var responsesMessages = bindMessages{
	"AnonymousID": {"required": "anonymousId is required"},
	"Responses": {
		"required": "responses are required",
		"min":      "responses are required",
	},
	"QuestionID": {"required": "questionId is required"},
	"Answer": {
		"required": "answer is required",
		"answer":   "answer must be one of the question's options",
	},
}

func (s *Server) handleSubmitResponses(c *gin.Context) {
	var req responsesRequest
	if !bindJSON(c, &req, responsesMessages, "invalid responses") {
		return
	}
	var updated Participant
	event, err := s.updateEvent(c.Param("code"), func(e *Event) error {
		p := e.participant(req.AnonymousID)
		if p == nil {
			return errParticipantNotFound
		}
		answers := make(map[string]string, len(req.Responses))
		for _, input := range req.Responses {
			q := e.question(input.QuestionID)
			if q == nil {
				return errUnknownQuestion
			}
			if !containsOption(q.Options, input.Answer) {
				return errInvalidAnswer
			}
			answers[q.ID] = input.Answer
		}
		for questionID, answer := range answers {
			p.Responses[questionID] = answer
		}
		updated = *p
		return nil
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if err := s.persistParticipant(event, updated, "responses_submitted"); err != nil {
		log.Error().Err(err).Str("event_code", event.Code).Msg("persist responses failed")
		writeError(c, http.StatusInternalServerError, "failed to save responses")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Responses saved",
		"answered": len(updated.Responses),
	})
}

func containsOption(options []string, answer string) bool {
	for _, option := range options {
		if option == answer {
			return true
		}
	}
	return false
}

type outfitRequest struct {
	AnonymousID string `json:"anonymousId" binding:"required"`
	Outfit      string `json:"outfit" binding:"required,outfit"`
}

var outfitMessages = bindMessages{
	"AnonymousID": {"required": "anonymousId is required"},
	"Outfit": {
		"required": "outfit description is required",
		"outfit":   "outfit description is invalid",
	},
}

func (s *Server) handleSubmitOutfit(c *gin.Context) {
	var req outfitRequest
	if !bindJSON(c, &req, outfitMessages, "invalid outfit") {
		return
	}
	outfit, _ := validateOutfit(req.Outfit)
	var updated Participant
	event, err := s.updateEvent(c.Param("code"), func(e *Event) error {
		p := e.participant(req.AnonymousID)
		if p == nil {
			return errParticipantNotFound
		}
		p.Outfit = outfit
		updated = *p
		return nil
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if err := s.persistParticipant(event, updated, "outfit_submitted"); err != nil {
		log.Error().Err(err).Str("event_code", event.Code).Msg("persist outfit failed")
		writeError(c, http.StatusInternalServerError, "failed to save outfit")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Outfit saved",
		"outfit":  outfit,
	})
}

type voteRequest struct {
	VoterID       string `json:"voterId" binding:"required"`
	OutfitOwnerID string `json:"outfitOwnerId" binding:"required"`
	Score         int    `json:"score" binding:"required,min=1,max=5"`
}

var voteMessages = bindMessages{
	"VoterID":       {"required": "voterId is required"},
	"OutfitOwnerID": {"required": "outfitOwnerId is required"},
	"Score": {
		"required": "score must be between 1 and 5",
		"min":      "score must be between 1 and 5",
		"max":      "score must be between 1 and 5",
	},
}

func (s *Server) handleVote(c *gin.Context) {
	var req voteRequest
	if !bindJSON(c, &req, voteMessages, "invalid vote") {
		return
	}
	if req.VoterID == req.OutfitOwnerID {
		writeDomainError(c, errSelfVote)
		return
	}
	vote := Vote{
		VoterID: req.VoterID,
		OwnerID: req.OutfitOwnerID,
		Score:   req.Score,
		At:      s.clock.Now().UTC(),
	}
	event, err := s.updateEvent(c.Param("code"), func(e *Event) error {
		if e.Phase == phaseRevealed {
			return errEventRevealed
		}
		if !isVotingOpen(e.Phase) {
			return errVotingNotOpen
		}
		if e.participant(req.VoterID) == nil {
			return errParticipantNotFound
		}
		owner := e.participant(req.OutfitOwnerID)
		if owner == nil {
			return errParticipantNotFound
		}
		if owner.Outfit == "" {
			return errOutfitNotFound
		}
		for i := range e.Votes {
			if e.Votes[i].VoterID == vote.VoterID && e.Votes[i].OwnerID == vote.OwnerID {
				e.Votes[i] = vote
				return nil
			}
		}
		e.Votes = append(e.Votes, vote)
		return nil
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if err := s.persistVote(event, vote); err != nil {
		log.Error().Err(err).Str("event_code", event.Code).Msg("persist vote failed")
		writeError(c, http.StatusInternalServerError, "failed to save vote")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vote recorded"})
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	event, err := s.lookupEvent(c.Param("code"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildLeaderboard(event))
}
