package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Flows ties the REST client, session and storage together for the
// participant and host journeys.
type Flows struct {
	API     *API
	Session *SessionStore
	Storage Storage
	Socket  *Manager
}

// JoinEvent joins code as displayName and records the identity locally.
func (f *Flows) JoinEvent(ctx context.Context, code, displayName string) (JoinResult, error) {
	result, err := f.API.JoinEvent(ctx, code, displayName)
	if err != nil {
		return JoinResult{}, err
	}
	patch := f.switchEvent(result.EventCode)
	patch.ParticipantID = String(result.AnonymousID)
	patch.DisplayName = String(result.DisplayName)
	f.Session.Update(patch)
	if err := f.write(map[string]string{
		KeyEventCode:   result.EventCode,
		KeyAnonymousID: result.AnonymousID,
		KeyDisplayName: result.DisplayName,
		KeyIsHost:      strconv.FormatBool(false),
	}); err != nil {
		return result, err
	}
	return result, nil
}

// CreateEvent creates an event as the logged-in host.
func (f *Flows) CreateEvent(ctx context.Context, req CreateEventRequest) (CreateEventResult, error) {
	result, err := f.API.CreateEvent(ctx, req)
	if err != nil {
		return CreateEventResult{}, err
	}
	patch := f.switchEvent(result.EventCode)
	patch.HostName = String(result.Event.HostName)
	f.Session.Update(patch)
	if err := f.write(map[string]string{
		KeyEventCode: result.EventCode,
		KeyIsHost:    strconv.FormatBool(true),
		KeyHostName:  result.Event.HostName,
	}); err != nil {
		return result, err
	}
	return result, nil
}

// LoadMatch fetches the participant's match and records it in the session so
// the socket joins its chat on the next connect.
func (f *Flows) LoadMatch(ctx context.Context) (Match, error) {
	session := f.Session.Read()
	if session.EventCode == "" || session.ParticipantID == "" {
		return Match{}, ErrSessionIncomplete
	}
	match, err := f.API.GetMatch(ctx, session.EventCode, session.ParticipantID)
	if err != nil {
		return Match{}, err
	}
	f.Session.Update(SessionPatch{
		MatchID:            String(match.MatchID),
		MatchParticipantID: String(match.MatchParticipantID),
	})
	return match, nil
}

// Leave disconnects and forgets the current event.
func (f *Flows) Leave() error {
	if f.Socket != nil {
		f.Socket.Disconnect()
	}
	empty := String("")
	f.Session.Update(SessionPatch{
		EventCode:          empty,
		HostName:           empty,
		ParticipantID:      empty,
		DisplayName:        empty,
		MatchID:            empty,
		MatchParticipantID: empty,
	})
	if err := f.Storage.Remove(KeyEventCode, KeyAnonymousID, KeyDisplayName); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	return nil
}

// switchEvent starts a patch for code. Moving to a different event drops the
// match and host fields that belonged to the previous one.
func (f *Flows) switchEvent(code string) SessionPatch {
	patch := SessionPatch{EventCode: String(code)}
	if strings.EqualFold(f.Session.Read().EventCode, code) {
		return patch
	}
	empty := String("")
	patch.HostName = empty
	patch.ParticipantID = empty
	patch.DisplayName = empty
	patch.MatchID = empty
	patch.MatchParticipantID = empty
	return patch
}

func (f *Flows) write(values map[string]string) error {
	for key, value := range values {
		if err := f.Storage.Set(key, value); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	return nil
}
