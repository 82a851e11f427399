package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

var hostCounter atomic.Int64

// newTestServer serves handler on an IPv4 loopback port and closes it with the test.
func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback listener unavailable: %v", err)
	}
	ts := httptest.NewUnstartedServer(handler)
	_ = ts.Listener.Close()
	ts.Listener = listener
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	return doAuthRequest(t, ts, method, path, "", payload)
}

func doAuthRequest(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func decodeList(t *testing.T, resp *http.Response) []map[string]any {
	t.Helper()
	var body []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func expectStatus(t *testing.T, resp *http.Response, status int) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d", status, resp.StatusCode)
	}
}

func assertString(t *testing.T, value any) string {
	t.Helper()
	s, ok := value.(string)
	if !ok {
		t.Fatalf("expected string, got %T", value)
	}
	return s
}

func registerHost(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	n := hostCounter.Add(1)
	resp := doRequest(t, ts, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Host",
		"email":    fmt.Sprintf("host%d@example.com", n),
		"password": "secret123",
	})
	expectStatus(t, resp, http.StatusOK)
	return assertString(t, decodeBody(t, resp)["token"])
}

func createEvent(t *testing.T, ts *httptest.Server, token string, payload map[string]any) map[string]any {
	t.Helper()
	if payload == nil {
		payload = map[string]any{}
	}
	if _, ok := payload["hostName"]; !ok {
		payload["hostName"] = "Ada"
	}
	resp := doAuthRequest(t, ts, http.MethodPost, "/api/events", token, payload)
	expectStatus(t, resp, http.StatusCreated)
	return decodeBody(t, resp)
}

func createEventCode(t *testing.T, ts *httptest.Server, token string) string {
	t.Helper()
	return assertString(t, createEvent(t, ts, token, nil)["eventCode"])
}

func joinParticipant(t *testing.T, ts *httptest.Server, code, name string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+code+"/join", map[string]string{
		"displayName": name,
	})
	expectStatus(t, resp, http.StatusOK)
	return assertString(t, decodeBody(t, resp)["anonymousId"])
}

func submitOutfit(t *testing.T, ts *httptest.Server, code, participantID, outfit string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+code+"/outfit", map[string]string{
		"anonymousId": participantID,
		"outfit":      outfit,
	})
	expectStatus(t, resp, http.StatusOK)
}

func submitAnswers(t *testing.T, ts *httptest.Server, code, participantID string, answers map[string]string) {
	t.Helper()
	responses := make([]map[string]string, 0, len(answers))
	for questionID, answer := range answers {
		responses = append(responses, map[string]string{"questionId": questionID, "answer": answer})
	}
	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+code+"/responses", map[string]any{
		"anonymousId": participantID,
		"responses":   responses,
	})
	expectStatus(t, resp, http.StatusOK)
}

func fetchEvent(t *testing.T, ts *httptest.Server, code string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, "/api/events/"+code, nil)
	expectStatus(t, resp, http.StatusOK)
	return decodeBody(t, resp)
}
