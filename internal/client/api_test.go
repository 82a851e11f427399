package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"event-match/internal/config"
	"event-match/internal/server"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var emailCounter atomic.Int64

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := server.New(nil, config.Default())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})
	return ts
}

func hostFlows(t *testing.T, ts *httptest.Server) *Flows {
	t.Helper()
	storage := NewMemoryStorage()
	api := NewAPI(ts.URL, storage, ts.Client())
	email := fmt.Sprintf("host%d@example.com", emailCounter.Add(1))
	_, err := api.Register(context.Background(), "Ada", email, "secret123")
	require.NoError(t, err)
	return &Flows{API: api, Session: NewSessionStore(), Storage: storage}
}

func guestFlows(ts *httptest.Server) *Flows {
	storage := NewMemoryStorage()
	return &Flows{API: NewAPI(ts.URL, storage, ts.Client()), Session: NewSessionStore(), Storage: storage}
}

func clientConfigFor(ts *httptest.Server) config.ClientConfig {
	cfg := config.DefaultClient()
	cfg.ServerURL = ts.URL
	cfg.AckTimeout = 2 * time.Second
	cfg.ReconnectInitial = 10 * time.Millisecond
	return cfg
}

func TestCreateAndJoinFlowsWriteStorage(t *testing.T) {
	ts := newBackend(t)
	ctx := context.Background()

	host := hostFlows(t, ts)
	userName, _ := host.Storage.Get(KeyUserName)
	assert.Equal(t, "Ada", userName)

	created, err := host.CreateEvent(ctx, CreateEventRequest{HostName: "Ada", Title: "Friday Fits"})
	require.NoError(t, err)
	assert.Equal(t, "Event created successfully", created.Message)
	assertStored(t, host.Storage, map[string]string{
		KeyEventCode: created.EventCode,
		KeyIsHost:    "true",
		KeyHostName:  "Ada",
	})
	assert.Equal(t, created.EventCode, host.Session.Read().EventCode)

	guest := guestFlows(ts)
	joined, err := guest.JoinEvent(ctx, strings.ToLower(created.EventCode), "Grace")
	require.NoError(t, err)
	assert.Equal(t, created.EventCode, joined.EventCode)
	assertStored(t, guest.Storage, map[string]string{
		KeyEventCode:   joined.EventCode,
		KeyAnonymousID: joined.AnonymousID,
		KeyDisplayName: "Grace",
		KeyIsHost:      "false",
	})
	session := guest.Session.Read()
	assert.Equal(t, joined.AnonymousID, session.ParticipantID)

	event, err := guest.API.GetEvent(ctx, joined.EventCode)
	require.NoError(t, err)
	assert.Equal(t, 1, event.ParticipantCount)
	assert.Equal(t, "Friday Fits", event.Title)

	require.NoError(t, guest.Leave())
	for _, key := range []string{KeyEventCode, KeyAnonymousID, KeyDisplayName} {
		_, ok := guest.Storage.Get(key)
		assert.False(t, ok, key)
	}
	assert.Equal(t, Session{}, guest.Session.Read())
}

func TestJoiningAnotherEventDropsPreviousMatch(t *testing.T) {
	ts := newBackend(t)
	ctx := context.Background()

	host := hostFlows(t, ts)
	first, err := host.CreateEvent(ctx, CreateEventRequest{HostName: "Ada", Title: "Friday Fits"})
	require.NoError(t, err)
	second, err := host.CreateEvent(ctx, CreateEventRequest{HostName: "Ada", Title: "Saturday Fits"})
	require.NoError(t, err)
	assert.Equal(t, second.EventCode, host.Session.Read().EventCode)
	assert.Equal(t, "Ada", host.Session.Read().HostName)

	guest := guestFlows(ts)
	_, err = guest.JoinEvent(ctx, first.EventCode, "José")
	require.NoError(t, err)
	guest.Session.Update(SessionPatch{MatchID: String("old-match"), MatchParticipantID: String("old-partner")})

	again, err := guest.JoinEvent(ctx, strings.ToLower(first.EventCode), "José")
	require.NoError(t, err)
	assert.Equal(t, "old-match", guest.Session.Read().MatchID)

	joined, err := guest.JoinEvent(ctx, second.EventCode, "Zoë")
	require.NoError(t, err)
	assert.NotEqual(t, again.AnonymousID, joined.AnonymousID)
	assert.Equal(t, Session{
		EventCode:     second.EventCode,
		ParticipantID: joined.AnonymousID,
		DisplayName:   "Zoë",
	}, guest.Session.Read())
}

func assertStored(t *testing.T, storage Storage, want map[string]string) {
	t.Helper()
	for key, value := range want {
		got, ok := storage.Get(key)
		assert.True(t, ok, key)
		assert.Equal(t, value, got, key)
	}
}

func TestUnauthorizedClearsToken(t *testing.T) {
	ts := newBackend(t)
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(KeyAuthToken, "expired"))
	api := NewAPI(ts.URL, storage, ts.Client())

	_, err := api.Me(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.True(t, IsUnauthorized(err))
	assert.Empty(t, api.Token())
}

func TestAPIErrorsCarryServerMessage(t *testing.T) {
	ts := newBackend(t)
	api := NewAPI(ts.URL, nil, ts.Client())

	_, err := api.JoinEvent(context.Background(), "ZZZZZZ", "Grace")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "event not found", apiErr.Message)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))
}

func TestEventWatcherIgnoresStaleResponses(t *testing.T) {
	var seen []string
	w := NewEventWatcher(nil, "ABC123", 0, nil, func(e Event) { seen = append(seen, e.Title) })

	older := w.next()
	newer := w.next()
	assert.True(t, w.apply(newer, Event{Title: "new"}))
	assert.False(t, w.apply(older, Event{Title: "old"}))

	latest, ok := w.Latest()
	require.True(t, ok)
	assert.Equal(t, "new", latest.Title)
	assert.Equal(t, []string{"new"}, seen)
}

func TestEventWatcherRefresh(t *testing.T) {
	ts := newBackend(t)
	host := hostFlows(t, ts)
	created, err := host.CreateEvent(context.Background(), CreateEventRequest{HostName: "Ada"})
	require.NoError(t, err)

	w := NewEventWatcher(host.API, created.EventCode, 0, nil, nil)
	w.Run(context.Background())
	latest, ok := w.Latest()
	require.True(t, ok)
	assert.Equal(t, created.EventCode, latest.EventCode)
}

func TestManagerEndToEnd(t *testing.T) {
	ts := newBackend(t)
	ctx := context.Background()

	host := hostFlows(t, ts)
	created, err := host.CreateEvent(ctx, CreateEventRequest{HostName: "Ada"})
	require.NoError(t, err)
	code := created.EventCode

	hostSocket := NewManager(clientConfigFor(ts), host.Session, WithToken(host.API.Token()))
	t.Cleanup(hostSocket.Disconnect)
	updates := make(chan json.RawMessage, 16)
	hostSocket.On(EventParticipantUpdate, func(data json.RawMessage) { updates <- data })
	require.NoError(t, hostSocket.Connect(ctx, ConnectOptions{EventCode: code}))
	waitFor(t, updates, `"participantCount":0`)

	ada := guestFlows(ts)
	bob := guestFlows(ts)
	_, err = ada.JoinEvent(ctx, code, "Ada")
	require.NoError(t, err)
	_, err = bob.JoinEvent(ctx, code, "Bob")
	require.NoError(t, err)
	waitFor(t, updates, `"participantCount":2`)

	countdown, err := hostSocket.StartCountdown(ctx, code, 120)
	require.NoError(t, err)
	assert.Equal(t, "countdown", countdown.Phase)
	require.NotNil(t, countdown.TargetTime)
	assert.True(t, countdown.TargetTime.Equal(countdown.StartTime.Add(120*time.Second)))

	count, err := hostSocket.TriggerMatchReveal(ctx, code, false)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	adaMatch, err := ada.LoadMatch(ctx)
	require.NoError(t, err)
	_, err = bob.LoadMatch(ctx)
	require.NoError(t, err)

	adaSocket := NewManager(clientConfigFor(ts), ada.Session)
	t.Cleanup(adaSocket.Disconnect)
	bobSocket := NewManager(clientConfigFor(ts), bob.Session)
	t.Cleanup(bobSocket.Disconnect)
	history := make(chan json.RawMessage, 4)
	bobSocket.On(EventChatHistory, func(data json.RawMessage) { history <- data })
	messages := make(chan json.RawMessage, 4)
	bobSocket.On(EventNewMessage, func(data json.RawMessage) { messages <- data })

	require.NoError(t, adaSocket.Connect(ctx, ConnectOptions{}))
	require.NoError(t, bobSocket.Connect(ctx, ConnectOptions{}))
	waitFor(t, history, adaMatch.MatchID)
	require.Eventually(t, func() bool { return adaSocket.State() == StateConnected }, time.Second, 5*time.Millisecond)

	var sent ChatMessage
	require.Eventually(t, func() bool {
		sent, err = adaSocket.SendChatMessage(ctx, "love the boots")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "Ada", sent.SenderName)
	waitFor(t, messages, "love the boots")

	_, err = adaSocket.TriggerMatchReveal(ctx, code, true)
	var ackErr *AckError
	require.ErrorAs(t, err, &ackErr)
}

func waitFor(t *testing.T, ch <-chan json.RawMessage, fragment string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case data := <-ch:
			if strings.Contains(string(data), fragment) {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", fragment)
		}
	}
}
