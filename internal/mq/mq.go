package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wicart/storefront/config"
)

// Channels carrying storefront domain events.
const (
	ChannelUserSignedUp   = "user.signed_up"
	ChannelProductCreated = "product.created"
	ChannelOrderPlaced    = "order.placed"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with JSON event publishing.
type MQ struct {
	backend Backend
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// Open builds the backend selected by cfg.Backend. An empty backend yields a
// publisher that drops events.
func Open(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	switch cfg.Backend {
	case "":
		return New(nopBackend{}), nil
	case "rabbitmq":
		backend, err := NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	case "pubsub":
		backend, err := NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}

// PublishEvent encodes payload as JSON and sends it to channel. The event name
// and emission time travel as attributes.
func (m *MQ) PublishEvent(ctx context.Context, channel string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s event: %w", channel, err)
	}
	attrs := map[string]string{
		"event":       channel,
		"emitted_at":  time.Now().UTC().Format(time.RFC3339),
		"contentType": "application/json",
	}
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe consumes messages from the named channel.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}

type nopBackend struct{}

func (nopBackend) Publish(context.Context, string, []byte, map[string]string) (string, error) {
	return "", nil
}

func (nopBackend) Subscribe(ctx context.Context, _ string, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (nopBackend) Close() error { return nil }
