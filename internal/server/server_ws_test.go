package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"event-match/internal/broker"
	"event-match/internal/config"

	"github.com/gorilla/websocket"
)

type testFrame struct {
	Event string          `json:"event"`
	ID    int64           `json:"id"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialWS(t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	target := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	if token != "" {
		target += "?token=" + url.QueryEscape(token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(target, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, event string, data any, id int64) {
	t.Helper()
	frame := map[string]any{"event": event, "data": data}
	if id > 0 {
		frame["id"] = id
	}
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

// readUntil skips frames until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(testFrame) bool) testFrame {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var frame testFrame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if match(frame) {
			return frame
		}
	}
}

func readAck(t *testing.T, conn *websocket.Conn, id int64) testFrame {
	t.Helper()
	return readUntil(t, conn, func(f testFrame) bool { return f.Event == "ack" && f.ID == id })
}

func readEvent(t *testing.T, conn *websocket.Conn, event string) map[string]any {
	t.Helper()
	frame := readUntil(t, conn, func(f testFrame) bool { return f.Event == event })
	var data map[string]any
	if err := json.Unmarshal(frame.Data, &data); err != nil {
		t.Fatalf("decode %s data: %v", event, err)
	}
	return data
}

func decodeFrameData(t *testing.T, frame testFrame) map[string]any {
	t.Helper()
	var data map[string]any
	if err := json.Unmarshal(frame.Data, &data); err != nil {
		t.Fatalf("decode frame data: %v", err)
	}
	return data
}

func TestWSJoinEventAcksWithEvent(t *testing.T) {
	srv := New(nil, config.Default())
	t.Cleanup(func() { _ = srv.Close() })
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	token := registerHost(t, ts)
	code := createEventCode(t, ts, token)
	joinParticipant(t, ts, code, "Grace")

	conn := dialWS(t, ts, "")
	sendFrame(t, conn, "join-event", strings.ToLower(code), 1)
	ack := readAck(t, conn, 1)
	if ack.Error != "" {
		t.Fatalf("unexpected ack error %q", ack.Error)
	}
	data := decodeFrameData(t, ack)
	if data["eventCode"] != code || data["participantCount"].(float64) != 1 {
		t.Fatalf("unexpected event view %#v", data)
	}

	sendFrame(t, conn, "join-event", map[string]string{"eventCode": "ZZZZZZ"}, 2)
	if ack := readAck(t, conn, 2); ack.Error != errEventNotFound.Error() {
		t.Fatalf("expected not found ack, got %q", ack.Error)
	}

	sendFrame(t, conn, "dance", nil, 0)
	frame := readUntil(t, conn, func(f testFrame) bool { return f.Event == "error" })
	if !strings.Contains(string(frame.Data), "unknown event") {
		t.Fatalf("unexpected error frame %s", frame.Data)
	}
}

func TestWSParticipantUpdatesReachEventRoom(t *testing.T) {
	srv := New(nil, config.Default())
	t.Cleanup(func() { _ = srv.Close() })
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	token := registerHost(t, ts)
	code := createEventCode(t, ts, token)

	conn := dialWS(t, ts, "")
	sendFrame(t, conn, "join-event", code, 1)
	readAck(t, conn, 1)

	joinParticipant(t, ts, code, "Grace")
	update := readUntil(t, conn, func(f testFrame) bool {
		if f.Event != "participant-update" {
			return false
		}
		return strings.Contains(string(f.Data), `"participantCount":1`)
	})
	data := decodeFrameData(t, update)
	if data["connected"].(float64) != 1 {
		t.Fatalf("expected 1 connected socket, got %v", data["connected"])
	}
}

func TestWSHostOnlyActions(t *testing.T) {
	srv := New(nil, config.Default())
	t.Cleanup(func() { _ = srv.Close() })
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	token := registerHost(t, ts)
	code := createEventCode(t, ts, token)
	joinParticipant(t, ts, code, "Ada")
	joinParticipant(t, ts, code, "Bob")

	anonymous := dialWS(t, ts, "")
	sendFrame(t, anonymous, "trigger-match-reveal", code, 1)
	if ack := readAck(t, anonymous, 1); ack.Error != errNotHost.Error() {
		t.Fatalf("expected host error, got %q", ack.Error)
	}

	host := dialWS(t, ts, token)
	sendFrame(t, host, "join-event", code, 1)
	readAck(t, host, 1)
	sendFrame(t, host, "start-countdown", map[string]any{"eventCode": code, "duration": 120}, 2)
	ack := readAck(t, host, 2)
	if ack.Error != "" {
		t.Fatalf("unexpected start error %q", ack.Error)
	}
	if data := decodeFrameData(t, ack); data["phase"] != phaseCountdown || data["remainingSeconds"].(float64) != 120 {
		t.Fatalf("unexpected countdown payload %#v", data)
	}

	sendFrame(t, host, "trigger-match-reveal", map[string]any{"eventCode": code}, 3)
	reveal := readEvent(t, host, "match-reveal")
	if reveal["matchCount"].(float64) != 1 {
		t.Fatalf("expected 1 match, got %v", reveal["matchCount"])
	}
	if ack := readAck(t, host, 3); ack.Error != "" {
		t.Fatalf("unexpected reveal error %q", ack.Error)
	}

	resp := doRequest(t, ts, http.MethodGet, "/ws?token=garbage", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
}

func TestWSChatFlow(t *testing.T) {
	srv := New(nil, config.Default())
	t.Cleanup(func() { _ = srv.Close() })
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	token := registerHost(t, ts)
	code := createEventCode(t, ts, token)
	ada := joinParticipant(t, ts, code, "Ada")
	bob := joinParticipant(t, ts, code, "Bob")
	resp := doAuthRequest(t, ts, http.MethodPost, "/api/events/"+code+"/reveal", token, nil)
	expectStatus(t, resp, http.StatusOK)

	resp = doRequest(t, ts, http.MethodGet, "/api/events/"+code+"/matches?anonymousId="+ada, nil)
	expectStatus(t, resp, http.StatusOK)
	matchID := assertString(t, decodeBody(t, resp)["matchId"])

	adaConn := dialWS(t, ts, "")
	sendFrame(t, adaConn, "join-chat", map[string]string{"eventCode": code, "matchId": matchID, "participantId": ada}, 1)
	history := readEvent(t, adaConn, "chat-history")
	if msgs := history["messages"].([]any); len(msgs) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(msgs))
	}
	readAck(t, adaConn, 1)

	bobConn := dialWS(t, ts, "")
	sendFrame(t, bobConn, "join-chat", map[string]string{"eventCode": code, "matchId": matchID, "participantId": bob}, 1)
	readAck(t, bobConn, 1)
	joined := readEvent(t, adaConn, "chat-participant-joined")
	if joined["participantId"] != bob || joined["displayName"] != "Bob" {
		t.Fatalf("unexpected join notice %#v", joined)
	}

	sendFrame(t, adaConn, "send-message", map[string]string{
		"eventCode": code,
		"matchId":   matchID,
		"senderId":  ada,
		"content":   "  nice jacket  ",
	}, 2)
	for _, conn := range []*websocket.Conn{adaConn, bobConn} {
		msg := readEvent(t, conn, "new-message")
		if msg["content"] != "nice jacket" || msg["senderName"] != "Ada" || msg["matchId"] != matchID {
			t.Fatalf("unexpected message %#v", msg)
		}
	}
	if ack := readAck(t, adaConn, 2); ack.Error != "" {
		t.Fatalf("unexpected send error %q", ack.Error)
	}

	sendFrame(t, adaConn, "send-message", map[string]string{
		"eventCode": code,
		"matchId":   matchID,
		"senderId":  "intruder",
		"content":   "hello",
	}, 3)
	if ack := readAck(t, adaConn, 3); ack.Error == "" {
		t.Fatalf("expected non-member message to be rejected")
	}

	late := dialWS(t, ts, "")
	sendFrame(t, late, "join-chat", map[string]string{"eventCode": code, "matchId": matchID, "participantId": bob}, 1)
	history = readEvent(t, late, "chat-history")
	if msgs := history["messages"].([]any); len(msgs) != 1 {
		t.Fatalf("expected 1 message in history, got %d", len(msgs))
	}

	_ = bobConn.Close()
	left := readEvent(t, adaConn, "chat-participant-left")
	if left["participantId"] != bob {
		t.Fatalf("unexpected leave notice %#v", left)
	}
}

func TestWSNotificationsRelayAcrossInstances(t *testing.T) {
	bus := broker.NewMemory()
	srvA := New(nil, config.Default(), WithBus(bus))
	srvB := New(nil, config.Default(), WithBus(bus))
	t.Cleanup(func() { _ = srvA.Close() })
	tsA := newTestServer(t, srvA.Handler())
	t.Cleanup(tsA.Close)
	tsB := newTestServer(t, srvB.Handler())
	t.Cleanup(tsB.Close)

	token := registerHost(t, tsA)
	code := createEventCode(t, tsA, token)
	event, ok := srvA.store.GetEvent(code)
	if !ok {
		t.Fatalf("event %s missing from store", code)
	}
	if _, err := srvB.store.RestoreEvent(event); err != nil {
		t.Fatalf("restore event: %v", err)
	}

	conn := dialWS(t, tsB, "")
	sendFrame(t, conn, "join-event", code, 1)
	readAck(t, conn, 1)

	joinParticipant(t, tsA, code, "Grace")
	readUntil(t, conn, func(f testFrame) bool {
		return f.Event == "participant-update" && strings.Contains(string(f.Data), `"participantCount":1`)
	})

	var created bool
	for _, msg := range bus.Published() {
		if msg.Type == broker.TypeEventCreated && msg.EventCode == code {
			created = true
		}
	}
	if !created {
		t.Fatalf("expected event_created to be published")
	}
}
