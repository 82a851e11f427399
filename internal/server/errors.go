package server

import (
	"errors"
	"net/http"
)

var (
	errEventNotFound         = errors.New("event not found")
	errParticipantNotFound   = errors.New("participant not found")
	errMatchNotFound         = errors.New("match not found")
	errOutfitNotFound        = errors.New("outfit not found")
	errNotHost               = errors.New("only the host can do that")
	errNotMatchMember        = errors.New("participant is not part of this match")
	errCountdownStarted      = errors.New("countdown already started")
	errEventRevealed         = errors.New("matches have already been revealed")
	errEventFull             = errors.New("event is full")
	errVotingNotOpen         = errors.New("voting has not started")
	errNotEnoughParticipants = errors.New("at least two participants are required")
	errMatchesExist          = errors.New("matches already exist; use force to regenerate")
	errSelfVote              = errors.New("you cannot vote for your own outfit")
	errUnknownQuestion       = errors.New("unknown question")
	errInvalidAnswer         = errors.New("answer must be one of the question options")
	errNoMatch               = errors.New("no match found for participant")
	errEmailTaken            = errors.New("email already registered")
	errInvalidCredentials    = errors.New("invalid email or password")
	errUnauthorized          = errors.New("authentication required")
	errDatabaseUnavailable   = errors.New("database not configured")
	errUserNotFound          = errors.New("user not found")
)

func statusForError(err error) int {
	switch {
	case errors.Is(err, errEventNotFound),
		errors.Is(err, errParticipantNotFound),
		errors.Is(err, errMatchNotFound),
		errors.Is(err, errOutfitNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNotHost), errors.Is(err, errNotMatchMember):
		return http.StatusForbidden
	case errors.Is(err, errInvalidCredentials), errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errNotEnoughParticipants),
		errors.Is(err, errMatchesExist),
		errors.Is(err, errSelfVote),
		errors.Is(err, errUnknownQuestion),
		errors.Is(err, errInvalidAnswer),
		errors.Is(err, errNoMatch),
		errors.Is(err, errInvalidDuration):
		return http.StatusBadRequest
	case errors.Is(err, errDatabaseUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusConflict
	}
}
