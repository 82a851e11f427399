package server

import (
	"net/http"
	"strings"

	"event-match/internal/broker"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type questionInput struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type createEventRequest struct {
	HostName          string          `json:"hostName" binding:"required,displayname"`
	Title             string          `json:"title"`
	Questions         []questionInput `json:"questions"`
	CountdownDuration *int            `json:"countdownDuration"`
}

var createEventMessages = bindMessages{
	"HostName": {
		"required":    "host name is required",
		"displayname": "host name must be 40 printable characters or fewer",
	},
}

func (s *Server) handleCreateEvent(c *gin.Context) {
	var req createEventRequest
	if !bindJSON(c, &req, createEventMessages, "invalid event") {
		return
	}
	userID := currentUserID(c)
	if _, err := s.lookupUser(userID); err != nil {
		writeDomainError(c, errUnauthorized)
		return
	}
	hostName, _ := validateName(req.HostName)

	title := hostName + "'s Event"
	if strings.TrimSpace(req.Title) != "" {
		validated, err := validateTitle(req.Title)
		if err != nil {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		title = validated
	}

	duration := s.cfg.CountdownDefaultSeconds
	if req.CountdownDuration != nil {
		duration = *req.CountdownDuration
	}
	if err := validateDuration(duration, s.cfg.CountdownMinSeconds, s.cfg.CountdownMaxSeconds); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	questions := s.defaultQuestions()
	if len(req.Questions) > 0 {
		validated, err := validateQuestions(req.Questions)
		if err != nil {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		questions = validated
	}

	event := s.store.CreateEvent(Event{
		ID:                newID(),
		Title:             title,
		HostName:          hostName,
		HostUserID:        userID,
		Questions:         questions,
		CountdownDuration: duration,
		Phase:             phaseLobby,
		CreatedAt:         s.clock.Now().UTC(),
	})
	user, err := s.store.UpdateUser(userID, func(u *User) error {
		u.IsHost = true
		return nil
	})
	if err == nil {
		if err := s.persistUser(user); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("persist host flag failed")
		}
	}
	if err := s.persistEvent(event, "event_created", ActivityPayload{
		EventCode: event.Code,
		Title:     event.Title,
		Duration:  event.CountdownDuration,
	}); err != nil {
		log.Error().Err(err).Str("event_code", event.Code).Msg("persist event failed")
		writeError(c, http.StatusInternalServerError, "failed to save event")
		return
	}
	log.Info().Str("event_code", event.Code).Str("event_id", event.ID).Str("user_id", userID).Msg("event created")
	s.publish(broker.TypeEventCreated, event.Code, "", "", gin.H{"eventCode": event.Code, "title": event.Title})
	c.JSON(http.StatusCreated, gin.H{
		"eventCode": event.Code,
		"message":   "Event created successfully",
		"event":     newEventView(event),
	})
}

func (s *Server) handleMyEvents(c *gin.Context) {
	page := readPage(c, 10, 50)
	events, total, err := s.listHostEvents(currentUserID(c), page)
	if err != nil {
		log.Error().Err(err).Msg("list host events failed")
		writeError(c, http.StatusInternalServerError, "failed to load events")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events":     events,
		"pagination": page.view(total),
	})
}

func (s *Server) handleGetEvent(c *gin.Context) {
	event, err := s.lookupEvent(c.Param("code"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, newEventView(event))
}

type joinRequest struct {
	DisplayName string `json:"displayName" binding:"required,displayname"`
}

var joinMessages = bindMessages{
	"DisplayName": {
		"required":    "display name is required",
		"displayname": "display name must be 40 printable characters or fewer",
	},
}

func (s *Server) handleJoinEvent(c *gin.Context) {
	var req joinRequest
	if !bindJSON(c, &req, joinMessages, "invalid join request") {
		return
	}
	name, _ := validateName(req.DisplayName)
	event, participant, err := s.joinEvent(c.Param("code"), name)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if err := s.persistParticipant(event, participant, "participant_joined"); err != nil {
		log.Error().Err(err).Str("event_code", event.Code).Msg("persist participant failed")
		writeError(c, http.StatusInternalServerError, "failed to save participant")
		return
	}
	log.Info().Str("event_code", event.Code).Str("participant_id", participant.ID).Msg("participant joined")
	s.broadcastParticipants(event)
	c.JSON(http.StatusOK, gin.H{
		"anonymousId": participant.ID,
		"displayName": participant.DisplayName,
		"eventCode":   event.Code,
	})
}

type startRequest struct {
	Duration int `json:"duration"`
}

func (s *Server) handleStartCountdown(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req, nil, "invalid countdown request") {
			return
		}
	}
	event, err := s.startCountdown(c.Param("code"), currentUserID(c), req.Duration)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Countdown started",
		"event":   newEventView(event),
	})
}
