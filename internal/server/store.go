package server

import (
	"sort"
	"strings"
	"sync"
)

// Store holds every live event and known user. Reads return copies so callers
// never share state with the store.
type Store struct {
	mu      sync.Mutex
	events  map[string]*Event
	users   map[string]*User
	byEmail map[string]string
}

func NewStore() *Store {
	return &Store{
		events:  make(map[string]*Event),
		users:   make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateEvent stores event under a fresh join code.
func (s *Store) CreateEvent(event Event) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		code := newEventCode()
		if _, taken := s.events[code]; taken {
			continue
		}
		event.Code = code
		break
	}
	if event.Chats == nil {
		event.Chats = make(map[string][]ChatMessage)
	}
	stored := event.clone()
	s.events[event.Code] = &stored
	return stored.clone()
}

func (s *Store) GetEvent(code string) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[normalizeCode(code)]
	if !ok {
		return Event{}, false
	}
	return event.clone(), true
}

func (s *Store) UpdateEvent(code string, update func(event *Event) error) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[normalizeCode(code)]
	if !ok {
		return Event{}, errEventNotFound
	}
	working := event.clone()
	if err := update(&working); err != nil {
		return Event{}, err
	}
	*event = working
	return working.clone(), nil
}

func (s *Store) RestoreEvent(event Event) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := normalizeCode(event.Code)
	if existing, ok := s.events[code]; ok {
		return existing.clone(), nil
	}
	if event.Chats == nil {
		event.Chats = make(map[string][]ChatMessage)
	}
	stored := event.clone()
	s.events[code] = &stored
	return stored.clone(), nil
}

// ListEventsByHost returns the host's events, newest first.
func (s *Store) ListEventsByHost(userID string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0)
	for _, event := range s.events {
		if event.HostUserID == userID {
			out = append(out, event.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code < out[j].Code
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Store) AddUser(user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(user.Email)
	if _, taken := s.byEmail[email]; taken {
		return User{}, errEmailTaken
	}
	user.Email = email
	s.users[user.ID] = &user
	s.byEmail[email] = user.ID
	return user, nil
}

func (s *Store) GetUser(id string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, false
	}
	return *user, true
}

func (s *Store) FindUserByEmail(email string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return User{}, false
	}
	return *s.users[id], true
}

func (s *Store) UpdateUser(id string, update func(user *User) error) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, errUserNotFound
	}
	if err := update(user); err != nil {
		return User{}, err
	}
	return *user, nil
}
