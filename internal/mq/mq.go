package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ShameelMohamed/FASHN8/config"
	"github.com/ShameelMohamed/FASHN8/types"
)

// GarmentChannel carries a GarmentEvent for every garment saved to a wardrobe.
const GarmentChannel = "wardrobe.garment-saved"

// OrderingKeyAttr is the attribute whose value keeps one user's events in order.
const OrderingKeyAttr = "username"

// ErrDrop marks a message that must be discarded instead of redelivered.
var ErrDrop = errors.New("drop message")

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry, or one
// wrapping ErrDrop to discard the message.
type Handler func(ctx context.Context, msg Message) error

type disposition int

const (
	ack disposition = iota
	retry
	drop
)

func settle(err error) disposition {
	switch {
	case err == nil:
		return ack
	case errors.Is(err, ErrDrop):
		return drop
	default:
		return retry
	}
}

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// Publish sends a message to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
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

// PublishGarment publishes event as JSON on GarmentChannel.
func (m *MQ) PublishGarment(ctx context.Context, event types.GarmentEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("encode garment event: %w", err)
	}
	attrs := map[string]string{
		OrderingKeyAttr: event.Username,
		"category": string(event.Category),
	}
	return m.backend.Publish(ctx, GarmentChannel, data, attrs)
}

// DecodeGarmentEvent parses a message published by PublishGarment.
func DecodeGarmentEvent(msg Message) (types.GarmentEvent, error) {
	var event types.GarmentEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return types.GarmentEvent{}, fmt.Errorf("%w: decode garment event %s: %w", ErrDrop, msg.ID, err)
	}
	return event, nil
}

// Open connects to the broker selected by cfg.MQBackend. It returns nil
// without error when no broker is configured.
func Open(ctx context.Context, cfg config.Config) (*MQ, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.MQBackend {
	case "":
		return nil, nil
	case config.MQPubSub:
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
	case config.MQRabbitMQ:
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.MQBackend, err)
	}
	return New(backend), nil
}
