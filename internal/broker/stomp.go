package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-stomp/stomp"
	"github.com/rs/zerolog/log"
)

const stompTopicPrefix = "/topic/eventmatch."

type StompBus struct {
	conn *stomp.Conn
	mu   sync.Mutex
	subs []*stomp.Subscription
}

func NewStomp(addr, user, pass string) (*StompBus, error) {
	options := []func(conn *stomp.Conn) error{
		stomp.ConnOpt.Login(user, pass),
		stomp.ConnOpt.Host("/"),
	}
	conn, err := stomp.Dial("tcp", addr, options...)
	if err != nil {
		return nil, fmt.Errorf("connect to stomp broker: %w", err)
	}
	return &StompBus{conn: conn}, nil
}

// Destination is /topic/eventmatch.<type>.
func Destination(msgType string) string {
	return stompTopicPrefix + msgType
}

func (b *StompBus) Publish(_ context.Context, msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	return b.conn.Send(Destination(msg.Type), "application/json", data)
}

func (b *StompBus) Subscribe(handler Handler) error {
	for _, msgType := range Types {
		sub, err := b.conn.Subscribe(Destination(msgType), stomp.AckAuto)
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", Destination(msgType), err)
		}
		b.mu.Lock()
		b.subs = append(b.subs, sub)
		b.mu.Unlock()
		go b.receive(sub, handler)
	}
	return nil
}

func (b *StompBus) receive(sub *stomp.Subscription, handler Handler) {
	for message := range sub.C {
		if message.Err != nil {
			log.Warn().Err(message.Err).Str("destination", sub.Destination()).Msg("stomp receive failed")
			continue
		}
		msg, err := Decode(message.Body)
		if err != nil {
			log.Warn().Err(err).Str("destination", sub.Destination()).Msg("stomp message decode failed")
			continue
		}
		handler(msg)
	}
}

func (b *StompBus) Close() error {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()
	for _, sub := range subs {
		_ = sub.Unsubscribe()
	}
	return b.conn.Disconnect()
}
