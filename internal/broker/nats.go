package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const natsSubjectPrefix = "eventmatch"

type NATSBus struct {
	nc   *nats.Conn
	subs []*nats.Subscription
}

func NewNATS(url, name string) (*NATSBus, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATSBus{nc: nc}, nil
}

// Subject is eventmatch.<code>.<type>.
func Subject(eventCode, msgType string) string {
	return natsSubjectPrefix + "." + eventCode + "." + msgType
}

func (b *NATSBus) Publish(_ context.Context, msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	return b.nc.Publish(Subject(msg.EventCode, msg.Type), data)
}

func (b *NATSBus) Subscribe(handler Handler) error {
	sub, err := b.nc.Subscribe(natsSubjectPrefix+".>", func(m *nats.Msg) {
		msg, err := Decode(m.Data)
		if err != nil {
			log.Warn().Err(err).Str("subject", m.Subject).Msg("nats message decode failed")
			return
		}
		handler(msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe to nats: %w", err)
	}
	b.subs = append(b.subs, sub)
	return nil
}

func (b *NATSBus) Close() error {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	if err := b.nc.Drain(); err != nil {
		b.nc.Close()
		return err
	}
	return nil
}
