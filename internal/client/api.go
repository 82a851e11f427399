package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/encoding/json"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// API is a typed client for the event server's REST endpoints. The auth
// token is read from storage on every call.
type API struct {
	baseURL string
	http    *http.Client
	storage Storage
}

func NewAPI(baseURL string, storage Storage, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		storage: storage,
	}
}

func (a *API) Token() string {
	token, _ := a.storage.Get(KeyAuthToken)
	return token
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := a.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		if err := a.storage.Remove(KeyAuthToken); err != nil {
			log.Warn().Err(err).Msg("clear auth token failed")
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &payload)
		if payload.Error == "" {
			payload.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func eventPath(code string, parts ...string) string {
	path := "/api/events/" + url.PathEscape(strings.TrimSpace(code))
	for _, part := range parts {
		path += "/" + part
	}
	return path
}

func (a *API) storeAuth(result AuthResult) error {
	if err := a.storage.Set(KeyAuthToken, result.Token); err != nil {
		return err
	}
	return a.storage.Set(KeyUserName, result.User.Name)
}

func (a *API) Register(ctx context.Context, name, email, password string) (AuthResult, error) {
	var out AuthResult
	err := a.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return AuthResult{}, err
	}
	return out, a.storeAuth(out)
}

func (a *API) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	err := a.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return AuthResult{}, err
	}
	return out, a.storeAuth(out)
}

func (a *API) Logout() error {
	return a.storage.Remove(KeyAuthToken, KeyUserName, KeyIsHost)
}

func (a *API) Me(ctx context.Context) (Profile, error) {
	var out Profile
	err := a.do(ctx, http.MethodGet, "/api/auth/me", nil, &out)
	return out, err
}

func (a *API) CreateEvent(ctx context.Context, req CreateEventRequest) (CreateEventResult, error) {
	var out CreateEventResult
	err := a.do(ctx, http.MethodPost, "/api/events", req, &out)
	return out, err
}

func (a *API) GetEvent(ctx context.Context, code string) (Event, error) {
	var out Event
	err := a.do(ctx, http.MethodGet, eventPath(code), nil, &out)
	return out, err
}

func (a *API) JoinEvent(ctx context.Context, code, displayName string) (JoinResult, error) {
	var out JoinResult
	err := a.do(ctx, http.MethodPost, eventPath(code, "join"), map[string]string{"displayName": displayName}, &out)
	return out, err
}

func (a *API) StartCountdown(ctx context.Context, code string, duration int) (Event, error) {
	var body any
	if duration > 0 {
		body = map[string]int{"duration": duration}
	}
	var out struct {
		Event Event `json:"event"`
	}
	err := a.do(ctx, http.MethodPost, eventPath(code, "start"), body, &out)
	return out.Event, err
}

func (a *API) RevealMatches(ctx context.Context, code string, force bool) (int, error) {
	var out struct {
		MatchCount int `json:"matchCount"`
	}
	err := a.do(ctx, http.MethodPost, eventPath(code, "reveal"), map[string]bool{"force": force}, &out)
	return out.MatchCount, err
}

func (a *API) SubmitResponses(ctx context.Context, code, participantID string, answers []Answer) error {
	return a.do(ctx, http.MethodPost, eventPath(code, "responses"), map[string]any{
		"anonymousId": participantID,
		"responses":   answers,
	}, nil)
}

func (a *API) SubmitOutfit(ctx context.Context, code, participantID, outfit string) error {
	return a.do(ctx, http.MethodPost, eventPath(code, "outfit"), map[string]string{
		"anonymousId": participantID,
		"outfit":      outfit,
	}, nil)
}

func (a *API) Vote(ctx context.Context, code, voterID, ownerID string, score int) error {
	return a.do(ctx, http.MethodPost, eventPath(code, "vote"), map[string]any{
		"voterId":       voterID,
		"outfitOwnerId": ownerID,
		"score":         score,
	}, nil)
}

func (a *API) Leaderboard(ctx context.Context, code string) ([]LeaderboardEntry, error) {
	var out []LeaderboardEntry
	err := a.do(ctx, http.MethodGet, eventPath(code, "leaderboard"), nil, &out)
	return out, err
}

func (a *API) GetMatch(ctx context.Context, code, participantID string) (Match, error) {
	var out Match
	path := eventPath(code, "matches") + "?anonymousId=" + url.QueryEscape(participantID)
	err := a.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (a *API) SubmitFollowup(ctx context.Context, code, participantID string, reconnect bool, contactInfo string) error {
	return a.do(ctx, http.MethodPost, eventPath(code, "followup"), map[string]any{
		"participantId": participantID,
		"reconnect":     reconnect,
		"contactInfo":   contactInfo,
	}, nil)
}

func (a *API) FollowupStats(ctx context.Context, code string) (FollowupStats, error) {
	var out FollowupStats
	err := a.do(ctx, http.MethodGet, eventPath(code, "followup", "stats"), nil, &out)
	return out, err
}

func (a *API) FollowupMatch(ctx context.Context, code, participantID string) (MatchInterest, error) {
	var out MatchInterest
	path := eventPath(code, "followup", "match") + "?participantId=" + url.QueryEscape(participantID)
	err := a.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (a *API) EventQRCode(ctx context.Context, code string) (QRCode, error) {
	var out QRCode
	err := a.do(ctx, http.MethodGet, "/api/event-qrcode?code="+url.QueryEscape(code), nil, &out)
	return out, err
}

// EventWatcher keeps the latest copy of an event. Each fetch is numbered and
// a response is only applied if no later fetch has been applied already.
type EventWatcher struct {
	api      *API
	code     string
	clock    clockwork.Clock
	interval time.Duration
	onChange func(Event)

	mu      sync.Mutex
	seq     uint64
	applied uint64
	latest  *Event
}

func NewEventWatcher(api *API, code string, interval time.Duration, clock clockwork.Clock, onChange func(Event)) *EventWatcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &EventWatcher{
		api:      api,
		code:     code,
		clock:    clock,
		interval: interval,
		onChange: onChange,
	}
}

func (w *EventWatcher) next() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq++
	return w.seq
}

// apply stores event fetched as request seq and reports whether it was used.
func (w *EventWatcher) apply(seq uint64, event Event) bool {
	w.mu.Lock()
	if seq <= w.applied {
		w.mu.Unlock()
		return false
	}
	w.applied = seq
	w.latest = &event
	onChange := w.onChange
	w.mu.Unlock()
	if onChange != nil {
		onChange(event)
	}
	return true
}

func (w *EventWatcher) Latest() (Event, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.latest == nil {
		return Event{}, false
	}
	return *w.latest, true
}

// Refresh fetches the event once. It is safe to call concurrently.
func (w *EventWatcher) Refresh(ctx context.Context) error {
	seq := w.next()
	event, err := w.api.GetEvent(ctx, w.code)
	if err != nil {
		return err
	}
	w.apply(seq, event)
	return nil
}

// Run refreshes immediately and then on every interval until ctx is done.
func (w *EventWatcher) Run(ctx context.Context) {
	if err := w.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("event_code", w.code).Msg("event refresh failed")
	}
	if w.interval <= 0 {
		return
	}
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := w.Refresh(ctx); err != nil {
				log.Warn().Err(err).Str("event_code", w.code).Msg("event refresh failed")
			}
		}
	}
}
