package client

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Session is the client's view of who it is inside an event. Nothing here is
// authoritative; the server may disagree.
type Session struct {
	EventCode          string
	HostName           string
	ParticipantID      string
	DisplayName        string
	MatchID            string
	MatchParticipantID string
}

// SessionPatch names the fields to change. Nil fields are left alone and an
// empty string clears a field.
type SessionPatch struct {
	EventCode          *string
	HostName           *string
	ParticipantID      *string
	DisplayName        *string
	MatchID            *string
	MatchParticipantID *string
}

// String returns a pointer to s for building patches.
func String(s string) *string {
	return &s
}

type SessionStore struct {
	mu      sync.Mutex
	session Session
	mirror  Storage
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Mirror copies the current session into storage and keeps it updated.
func (s *SessionStore) Mirror(storage Storage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirror = storage
	current := s.session
	return s.writeMirror(SessionPatch{
		EventCode:     &current.EventCode,
		HostName:      &current.HostName,
		ParticipantID: &current.ParticipantID,
		DisplayName:   &current.DisplayName,
	})
}

// Update merges patch into the session and returns the result.
func (s *SessionStore) Update(patch SessionPatch) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	apply(&s.session.EventCode, patch.EventCode)
	apply(&s.session.HostName, patch.HostName)
	apply(&s.session.ParticipantID, patch.ParticipantID)
	apply(&s.session.DisplayName, patch.DisplayName)
	apply(&s.session.MatchID, patch.MatchID)
	apply(&s.session.MatchParticipantID, patch.MatchParticipantID)
	if err := s.writeMirror(patch); err != nil {
		log.Warn().Err(err).Msg("session mirror write failed")
	}
	return s.session
}

func (s *SessionStore) Read() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func apply(field *string, value *string) {
	if value != nil {
		*field = *value
	}
}

func (s *SessionStore) writeMirror(patch SessionPatch) error {
	if s.mirror == nil {
		return nil
	}
	fields := []struct {
		key   string
		value *string
	}{
		{KeyEventCode, patch.EventCode},
		{KeyHostName, patch.HostName},
		{KeyAnonymousID, patch.ParticipantID},
		{KeyDisplayName, patch.DisplayName},
	}
	for _, field := range fields {
		if field.value == nil {
			continue
		}
		var err error
		if *field.value == "" {
			err = s.mirror.Remove(field.key)
		} else {
			err = s.mirror.Set(field.key, *field.value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SessionFromStorage rebuilds a patch from previously persisted values.
func SessionFromStorage(storage Storage) SessionPatch {
	var patch SessionPatch
	if value, ok := storage.Get(KeyEventCode); ok {
		patch.EventCode = String(value)
	}
	if value, ok := storage.Get(KeyHostName); ok {
		patch.HostName = String(value)
	}
	if value, ok := storage.Get(KeyAnonymousID); ok {
		patch.ParticipantID = String(value)
	}
	if value, ok := storage.Get(KeyDisplayName); ok {
		patch.DisplayName = String(value)
	}
	return patch
}
