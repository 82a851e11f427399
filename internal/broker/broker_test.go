package broker

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/encoding/json"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	source := Message{
		Origin:    "instance-a",
		Type:      TypeParticipantJoined,
		EventCode: "K7Q2ZD",
		Room:      "event:K7Q2ZD",
		Event:     "participant-update",
		Data:      json.RawMessage(`{"participantCount":2}`),
		At:        time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC),
	}
	data, err := Encode(source)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Origin != source.Origin || decoded.Type != source.Type || decoded.Room != source.Room {
		t.Fatalf("unexpected envelope %#v", decoded)
	}
	if string(decoded.Data) != `{"participantCount":2}` {
		t.Fatalf("unexpected data %s", decoded.Data)
	}
	if !decoded.At.Equal(source.At) {
		t.Fatalf("expected %s, got %s", source.At, decoded.At)
	}
}

func TestSubjectAndDestination(t *testing.T) {
	if got := Subject("K7Q2ZD", TypeMessageSent); got != "eventmatch.K7Q2ZD.message_sent" {
		t.Fatalf("unexpected subject %s", got)
	}
	if got := Destination(TypeMatchesRevealed); got != "/topic/eventmatch.matches_revealed" {
		t.Fatalf("unexpected destination %s", got)
	}
}

func TestMemoryBusDeliversToSubscribers(t *testing.T) {
	bus := NewMemory()
	received := make([]Message, 0)
	if err := bus.Subscribe(func(msg Message) { received = append(received, msg) }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := bus.Publish(context.Background(), Message{Type: TypeEventCreated, EventCode: "ABC123"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(received) != 1 || received[0].EventCode != "ABC123" {
		t.Fatalf("unexpected deliveries %#v", received)
	}
	if len(bus.Published()) != 1 {
		t.Fatalf("expected 1 published message")
	}
}

func TestMemoryPresenceNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	presence := NewMemoryPresence()

	if count, _ := presence.Join(ctx, "abc123"); count != 1 {
		t.Fatalf("expected 1, got %d", count)
	}
	if count, _ := presence.Join(ctx, "ABC123"); count != 2 {
		t.Fatalf("expected codes to be case-insensitive, got %d", count)
	}
	presence.Leave(ctx, "ABC123")
	presence.Leave(ctx, "ABC123")
	if count, _ := presence.Leave(ctx, "ABC123"); count != 0 {
		t.Fatalf("expected 0, got %d", count)
	}
	if count, _ := presence.Count(ctx, "ABC123"); count != 0 {
		t.Fatalf("expected 0, got %d", count)
	}
}
