package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required,displayname"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

var registerMessages = bindMessages{
	"Name": {
		"required":    "name is required",
		"displayname": "name must be 40 printable characters or fewer",
	},
	"Email": {
		"required": "email is required",
		"email":    "email is invalid",
	},
	"Password": {
		"required": "password is required",
		"min":      "password must be at least 6 characters",
	},
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

var loginMessages = bindMessages{
	"Email":    {"required": "email is required"},
	"Password": {"required": "password is required"},
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req, registerMessages, "invalid registration") {
		return
	}
	name, _ := validateName(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.lookupUserByEmail(email); err == nil {
		writeDomainError(c, errEmailTaken)
		return
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "failed to create account")
		return
	}
	user, err := s.store.AddUser(User{
		ID:           newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now().UTC(),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if err := s.persistUser(user); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("persist user failed")
		writeError(c, http.StatusInternalServerError, "failed to create account")
		return
	}
	token, err := s.issueToken(user)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "failed to issue token")
		return
	}
	log.Info().Str("user_id", user.ID).Msg("user registered")
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  newUserView(user),
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, loginMessages, "email and password are required") {
		return
	}
	user, err := s.lookupUserByEmail(req.Email)
	if err != nil {
		if !errors.Is(err, errInvalidCredentials) {
			log.Error().Err(err).Msg("user lookup failed")
		}
		writeDomainError(c, errInvalidCredentials)
		return
	}
	if !checkPassword(user.PasswordHash, req.Password) {
		writeDomainError(c, errInvalidCredentials)
		return
	}
	token, err := s.issueToken(user)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "failed to issue token")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  newUserView(user),
	})
}

type recentEvent struct {
	EventCode string `json:"eventCode"`
	Title     string `json:"title"`
}

func (s *Server) handleMe(c *gin.Context) {
	user, err := s.lookupUser(currentUserID(c))
	if err != nil {
		writeDomainError(c, errUnauthorized)
		return
	}
	summaries, total, err := s.listHostEvents(user.ID, pageRequest{Page: 1, PerPage: 5})
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("list host events failed")
		writeError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}
	recent := make([]recentEvent, 0, len(summaries))
	for _, summary := range summaries {
		recent = append(recent, recentEvent{EventCode: summary.EventCode, Title: summary.Title})
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"name":         user.Name,
		"email":        user.Email,
		"isHost":       user.IsHost,
		"eventCount":   total,
		"recentEvents": recent,
		"createdAt":    user.CreatedAt,
	})
}
