// Package rabbitmq publishes ledger events to a topic exchange, routed by
// event type.
package rabbitmq

import (
	"context"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"enroll/internal/events"
)

// Channel is the part of the platform connection the publisher uses.
type Channel interface {
	Publish(ctx context.Context, exchange, routingKey string, msg amqp091.Publishing) error
	Close() error
}

type Publisher struct {
	ch       Channel
	exchange string
}

func NewPublisher(ch Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	body, err := e.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.ID,
		Timestamp:    e.OccurredAt,
		Type:         string(e.Type),
		Body:         body,
	}
	if err := p.ch.Publish(ctx, p.exchange, string(e.Type), msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", e.Type, p.exchange, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
