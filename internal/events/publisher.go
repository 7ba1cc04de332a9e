package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys for order lifecycle events.
const (
	RoutingOrderCreated       = "order.created"
	RoutingOrderStatusChanged = "order.status_changed"
	RoutingOrderCancelled     = "order.cancelled"
)

// Publisher emits domain events.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
	Close() error
}

// OrderEvent is the payload published for every order lifecycle change.
type OrderEvent struct {
	Event      string `json:"event"`
	Version    int    `json:"version"`
	OccurredAt string `json:"occurred_at"`
	Data       struct {
		OrderID    uint   `json:"order_id"`
		FromStatus string `json:"from_status,omitempty"`
		ToStatus   string `json:"to_status"`
		ActorID    string `json:"actor_id,omitempty"`
		Note       string `json:"note,omitempty"`
	} `json:"data"`
}

// NewOrderEvent builds an event stamped with the current time.
func NewOrderEvent(key string, orderID uint, from, to, actorID, note string) OrderEvent {
	evt := OrderEvent{
		Event:      key,
		Version:    1,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	evt.Data.OrderID = orderID
	evt.Data.FromStatus = from
	evt.Data.ToStatus = to
	evt.Data.ActorID = actorID
	evt.Data.Note = note
	return evt
}

// AMQPPublisher publishes JSON messages to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials url and declares a durable topic exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         b,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishJSON(context.Context, string, any) error { return nil }

func (NopPublisher) Close() error { return nil }
