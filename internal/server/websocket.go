package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/encoding/json"
)

type wsInbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	ID    *int64          `json:"id,omitempty"`
}

type wsOutbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type wsAck struct {
	Event string `json:"event"`
	ID    int64  `json:"id"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type chatMember struct {
	EventCode     string
	ParticipantID string
	DisplayName   string
}

type wsClient struct {
	conn    *websocket.Conn
	userID  string
	writeMu sync.Mutex

	mu     sync.Mutex
	events map[string]struct{}
	chats  map[string]chatMember
}

func newWSClient(conn *websocket.Conn, userID string) *wsClient {
	return &wsClient{
		conn:   conn,
		userID: userID,
		events: make(map[string]struct{}),
		chats:  make(map[string]chatMember),
	}
}

func (c *wsClient) writeRaw(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsClient) send(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("ws encode failed")
		return
	}
	_ = c.writeRaw(data)
}

type wsHub struct {
	mu    sync.Mutex
	rooms map[string]map[*wsClient]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		rooms: make(map[string]map[*wsClient]struct{}),
	}
}

func eventRoom(code string) string {
	return "event:" + normalizeCode(code)
}

func chatRoom(matchID string) string {
	return "chat:" + matchID
}

func (h *wsHub) Join(room string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.rooms[room]
	if group == nil {
		group = make(map[*wsClient]struct{})
		h.rooms[room] = group
	}
	group[client] = struct{}{}
}

func (h *wsHub) Leave(room string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.rooms[room]
	if group == nil {
		return
	}
	delete(group, client)
	if len(group) == 0 {
		delete(h.rooms, room)
	}
}

func (h *wsHub) members(room string, except *wsClient) []*wsClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.rooms[room]
	clients := make([]*wsClient, 0, len(group))
	for client := range group {
		if client != except {
			clients = append(clients, client)
		}
	}
	return clients
}

func (h *wsHub) Broadcast(room, event string, data any) {
	h.BroadcastExcept(room, nil, event, data)
}

func (h *wsHub) BroadcastExcept(room string, except *wsClient, event string, data any) {
	payload, err := json.Marshal(wsOutbound{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("ws encode failed")
		return
	}
	h.broadcastBytes(room, except, payload)
}

// BroadcastRaw relays a notification whose data is already encoded.
func (h *wsHub) BroadcastRaw(room, event string, data json.RawMessage) {
	payload, err := json.Marshal(wsOutbound{Event: event, Data: data})
	if err != nil {
		return
	}
	h.broadcastBytes(room, nil, payload)
}

func (h *wsHub) broadcastBytes(room string, except *wsClient, payload []byte) {
	for _, client := range h.members(room, except) {
		if err := client.writeRaw(payload); err != nil {
			log.Debug().Err(err).Str("room", room).Msg("ws write failed")
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleWebsocket(c *gin.Context) {
	userID := ""
	if raw := strings.TrimSpace(c.Query("token")); raw != "" {
		id, err := s.parseToken(raw)
		if err != nil {
			writeError(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		userID = id
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := newWSClient(conn, userID)
	log.Info().Str("remote", c.Request.RemoteAddr).Bool("authenticated", userID != "").Msg("ws connected")
	s.readWS(client)
}

func (s *Server) readWS(client *wsClient) {
	defer s.disconnectWS(client)
	for {
		_, payload, err := client.conn.ReadMessage()
		if err != nil {
			log.Info().Err(err).Msg("ws disconnected")
			return
		}
		var frame wsInbound
		if err := json.Unmarshal(payload, &frame); err != nil {
			client.send(wsOutbound{Event: "error", Data: gin.H{"message": "invalid frame"}})
			continue
		}
		result, err := s.dispatchWS(client, frame)
		if frame.ID != nil {
			ack := wsAck{Event: "ack", ID: *frame.ID, Data: result}
			if err != nil {
				ack.Data = nil
				ack.Error = err.Error()
			}
			client.send(ack)
			continue
		}
		if err != nil {
			client.send(wsOutbound{Event: "error", Data: gin.H{"message": err.Error(), "event": frame.Event}})
		}
	}
}

func (s *Server) dispatchWS(client *wsClient, frame wsInbound) (any, error) {
	switch frame.Event {
	case "join-event":
		return s.wsJoinEvent(client, frame.Data)
	case "join-chat":
		return s.wsJoinChat(client, frame.Data)
	case "send-message":
		return s.wsSendMessage(client, frame.Data)
	case "trigger-match-reveal":
		return s.wsTriggerReveal(client, frame.Data)
	case "start-countdown":
		return s.wsStartCountdown(client, frame.Data)
	case "update-leaderboard":
		return s.wsUpdateLeaderboard(frame.Data)
	default:
		return nil, fmt.Errorf("unknown event %q", frame.Event)
	}
}

type wsCodeRequest struct {
	EventCode string `json:"eventCode"`
	Force     bool   `json:"force"`
	Duration  int    `json:"duration"`
}

// decodeCodeRequest accepts either a bare event code string or an object.
func decodeCodeRequest(raw json.RawMessage) (wsCodeRequest, error) {
	var req wsCodeRequest
	var code string
	if err := json.Unmarshal(raw, &code); err == nil {
		req.EventCode = code
	} else if err := json.Unmarshal(raw, &req); err != nil {
		return req, errors.New("invalid payload")
	}
	req.EventCode = normalizeCode(req.EventCode)
	if req.EventCode == "" {
		return req, errors.New("event code is required")
	}
	return req, nil
}

func (s *Server) wsJoinEvent(client *wsClient, raw json.RawMessage) (any, error) {
	req, err := decodeCodeRequest(raw)
	if err != nil {
		return nil, err
	}
	event, err := s.lookupEvent(req.EventCode)
	if err != nil {
		return nil, err
	}
	client.mu.Lock()
	_, already := client.events[event.Code]
	client.events[event.Code] = struct{}{}
	client.mu.Unlock()

	s.ws.Join(eventRoom(event.Code), client)
	if !already {
		if _, err := s.presence.Join(context.Background(), event.Code); err != nil {
			log.Warn().Err(err).Str("event_code", event.Code).Msg("presence join failed")
		}
	}
	s.broadcastParticipants(event)
	return newEventView(event), nil
}

type wsJoinChatRequest struct {
	EventCode     string `json:"eventCode"`
	MatchID       string `json:"matchId"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
}

func (s *Server) wsJoinChat(client *wsClient, raw json.RawMessage) (any, error) {
	var req wsJoinChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errors.New("invalid payload")
	}
	if req.EventCode == "" || req.MatchID == "" || req.ParticipantID == "" {
		return nil, errors.New("eventCode, matchId and participantId are required")
	}
	event, err := s.lookupEvent(req.EventCode)
	if err != nil {
		return nil, err
	}
	if err := requireMatchMember(event, req.MatchID, req.ParticipantID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		if p := event.participant(req.ParticipantID); p != nil {
			name = p.DisplayName
		} else {
			name = req.ParticipantID
		}
	}
	member := chatMember{EventCode: event.Code, ParticipantID: req.ParticipantID, DisplayName: name}
	client.mu.Lock()
	client.chats[req.MatchID] = member
	client.mu.Unlock()

	room := chatRoom(req.MatchID)
	s.ws.Join(room, client)
	messages := event.Chats[req.MatchID]
	if messages == nil {
		messages = []ChatMessage{}
	}
	client.send(wsOutbound{Event: "chat-history", Data: gin.H{
		"matchId":  req.MatchID,
		"messages": messages,
	}})
	s.ws.BroadcastExcept(room, client, "chat-participant-joined", gin.H{
		"matchId":       req.MatchID,
		"participantId": req.ParticipantID,
		"displayName":   name,
	})
	return gin.H{"matchId": req.MatchID, "messageCount": len(messages)}, nil
}

type wsSendMessageRequest struct {
	EventCode string `json:"eventCode"`
	MatchID   string `json:"matchId"`
	SenderID  string `json:"senderId"`
	Content   string `json:"content"`
}

func (s *Server) wsSendMessage(client *wsClient, raw json.RawMessage) (any, error) {
	var req wsSendMessageRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errors.New("invalid payload")
	}
	client.mu.Lock()
	member, joined := client.chats[req.MatchID]
	client.mu.Unlock()
	senderName := ""
	if joined && member.ParticipantID == req.SenderID {
		senderName = member.DisplayName
	}
	return s.postChatMessage(req.EventCode, req.MatchID, req.SenderID, senderName, req.Content)
}

func (s *Server) wsTriggerReveal(client *wsClient, raw json.RawMessage) (any, error) {
	req, err := decodeCodeRequest(raw)
	if err != nil {
		return nil, err
	}
	if client.userID == "" {
		return nil, errNotHost
	}
	event, err := s.revealMatches(req.EventCode, client.userID, req.Force)
	if err != nil {
		return nil, err
	}
	return gin.H{"message": "Matches revealed", "matchCount": len(event.Matches)}, nil
}

func (s *Server) wsStartCountdown(client *wsClient, raw json.RawMessage) (any, error) {
	req, err := decodeCodeRequest(raw)
	if err != nil {
		return nil, err
	}
	if client.userID == "" {
		return nil, errNotHost
	}
	event, err := s.startCountdown(req.EventCode, client.userID, req.Duration)
	if err != nil {
		return nil, err
	}
	return countdownPayload(event, s.clock.Now()), nil
}

func (s *Server) wsUpdateLeaderboard(raw json.RawMessage) (any, error) {
	req, err := decodeCodeRequest(raw)
	if err != nil {
		return nil, err
	}
	board, err := s.broadcastLeaderboard(req.EventCode)
	if err != nil {
		return nil, err
	}
	return gin.H{"eventCode": req.EventCode, "leaderboard": board}, nil
}

func (s *Server) disconnectWS(client *wsClient) {
	client.mu.Lock()
	chats := make(map[string]chatMember, len(client.chats))
	for matchID, member := range client.chats {
		chats[matchID] = member
	}
	events := make([]string, 0, len(client.events))
	for code := range client.events {
		events = append(events, code)
	}
	client.mu.Unlock()

	for matchID, member := range chats {
		room := chatRoom(matchID)
		s.ws.Leave(room, client)
		s.ws.Broadcast(room, "chat-participant-left", gin.H{
			"matchId":       matchID,
			"participantId": member.ParticipantID,
			"displayName":   member.DisplayName,
		})
	}
	for _, code := range events {
		s.ws.Leave(eventRoom(code), client)
		if _, err := s.presence.Leave(context.Background(), code); err != nil {
			log.Warn().Err(err).Str("event_code", code).Msg("presence leave failed")
		}
		if event, ok := s.store.GetEvent(code); ok {
			s.broadcastParticipants(event)
		}
	}
	_ = client.conn.Close()
}
