package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ShameelMohamed/FASHN8/config"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// EventsExchange is the topic exchange every channel is routed through.
const EventsExchange = "fashn8.events"

// RabbitMQClient routes events through EventsExchange. Each channel name is
// both the routing key and the name of the queue bound to it.
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel

	durable    bool
	autoDelete bool

	mu    sync.Mutex
	bound map[string]bool
}

// NewRabbitMQClient dials the broker and declares EventsExchange.
func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	fail := func(err error) (*RabbitMQClient, error) {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			return fail(err)
		}
	}
	if err := ch.ExchangeDeclare(EventsExchange, amqp.ExchangeTopic, cfg.QueueDurable, false, false, false, nil); err != nil {
		return fail(fmt.Errorf("declare exchange %s: %w", EventsExchange, err))
	}

	return &RabbitMQClient{
		conn:       conn,
		channel:    ch,
		durable:    cfg.QueueDurable,
		autoDelete: cfg.QueueAutoDelete,
		bound:      make(map[string]bool),
	}, nil
}

// Publish routes data to channel. The channel's queue is bound first so
// events published before any consumer starts are kept.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if err := r.bind(channel); err != nil {
		return "", err
	}

	headers := amqp.Table{}
	for key, value := range attrs {
		headers[key] = value
	}

	messageID := uuid.NewString()
	err := r.channel.PublishWithContext(ctx, EventsExchange, channel, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: deliveryMode(r.durable),
		MessageId:    messageID,
		Headers:      headers,
		Body:         data,
	})
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", channel, err)
	}
	return messageID, nil
}

// Subscribe consumes the channel's queue until ctx is done.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if err := r.bind(channel); err != nil {
		return err
	}

	consumerTag := "fashn8-" + uuid.NewString()
	deliveries, err := r.channel.Consume(channel, consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", channel, err)
	}
	defer func() {
		_ = r.channel.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			err := handler(ctx, Message{
				ID:         delivery.MessageId,
				Data:       delivery.Body,
				Attributes: headersToAttributes(delivery.Headers),
			})
			switch settle(err) {
			case ack:
				_ = delivery.Ack(false)
			case drop:
				_ = delivery.Nack(false, false)
			default:
				_ = delivery.Nack(false, true)
			}
		}
	}
}

// Close closes the underlying channel and connection.
func (r *RabbitMQClient) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitMQClient) bind(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("rabbitmq channel is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bound[name] {
		return nil
	}

	if _, err := r.channel.QueueDeclare(name, r.durable, r.autoDelete, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	if err := r.channel.QueueBind(name, name, EventsExchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", name, err)
	}
	r.bound[name] = true
	return nil
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}

func deliveryMode(durable bool) uint8 {
	if durable {
		return amqp.Persistent
	}
	return amqp.Transient
}
